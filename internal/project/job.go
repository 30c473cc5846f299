// Package project persists pack jobs and application configuration.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/SpritePack/internal/model"
)

// JobVersion is written to every job file.
const JobVersion = "1.0.0"

// Job is a saved pack run: the requests, the settings they were packed with
// and, once packed, the result.
type Job struct {
	Version   string            `json:"version" yaml:"version"`
	CreatedAt string            `json:"created_at" yaml:"created_at"`
	Name      string            `json:"name" yaml:"name"`
	Rects     []model.Rect      `json:"rects" yaml:"rects"`
	Settings  model.Settings    `json:"settings" yaml:"settings"`
	Result    *model.PackResult `json:"result,omitempty" yaml:"result,omitempty"`
}

// NewJob creates a job stamped with the current version and time.
func NewJob(name string, rects []model.Rect, settings model.Settings) Job {
	return Job{
		Version:   JobVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Name:      name,
		Rects:     rects,
		Settings:  settings,
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// SaveJob writes a job to path. Files ending in .yaml or .yml are written as
// YAML, anything else as indented JSON. Missing parent directories are
// created.
func SaveJob(path string, job Job) error {
	if job.Version == "" {
		job.Version = JobVersion
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(job)
	} else {
		data, err = json.MarshalIndent(job, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write job file: %w", err)
	}
	return nil
}

// LoadJob reads a job written by SaveJob. Settings missing from the file keep
// their defaults.
func LoadJob(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("failed to read job file: %w", err)
	}

	job := Job{Settings: model.DefaultSettings()}
	if isYAML(path) {
		err = yaml.Unmarshal(data, &job)
	} else {
		err = json.Unmarshal(data, &job)
	}
	if err != nil {
		return Job{}, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}
	if job.Version == "" {
		return Job{}, fmt.Errorf("invalid job file: missing version field")
	}
	for _, r := range job.Rects {
		if err := r.Validate(); err != nil {
			return Job{}, fmt.Errorf("invalid job file: %w", err)
		}
	}
	return job, nil
}
