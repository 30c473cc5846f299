package model

// maxRecentJobs bounds AppConfig.RecentJobs.
const maxRecentJobs = 10

// AppConfig holds application-wide preferences and the default pack settings
// loaded from the config file.
type AppConfig struct {
	// Default packer settings applied to every run
	Settings `mapstructure:",squash" yaml:",inline"`

	// Output preferences
	PreviewScale float64 `json:"preview_scale" yaml:"preview_scale" mapstructure:"preview_scale"` // Pixels per unit in PNG previews

	// Logging and tracing
	LogLevel     string `json:"log_level" yaml:"log_level" mapstructure:"log_level"` // "debug", "info", "warn", "error"
	JSONLogs     bool   `json:"json_logs" yaml:"json_logs" mapstructure:"json_logs"`
	OtelEndpoint string `json:"otel_endpoint,omitempty" yaml:"otel_endpoint,omitempty" mapstructure:"otel_endpoint"`

	RecentJobs []string `json:"recent_jobs" yaml:"recent_jobs" mapstructure:"recent_jobs"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Settings:     DefaultSettings(),
		PreviewScale: 1,
		LogLevel:     "info",
		RecentJobs:   []string{},
	}
}

// AddRecentJob moves path to the front of RecentJobs, dropping the oldest
// entries beyond the limit.
func (c *AppConfig) AddRecentJob(path string) {
	jobs := []string{path}
	for _, j := range c.RecentJobs {
		if j != path {
			jobs = append(jobs, j)
		}
	}
	if len(jobs) > maxRecentJobs {
		jobs = jobs[:maxRecentJobs]
	}
	c.RecentJobs = jobs
}
