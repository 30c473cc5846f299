package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/piwi3910/SpritePack/internal/model"
)

// ManifestMeta describes the atlas image a manifest belongs to.
type ManifestMeta struct {
	App     string `json:"app"`
	Version string `json:"version"`
	Image   string `json:"image,omitempty"` // Atlas image file name, if one was written
}

// FrameRect is a region of the atlas in pixels.
type FrameRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Frame is one packed rectangle in the manifest.
type Frame struct {
	Filename   string    `json:"filename"`
	Label      string    `json:"label,omitempty"`
	Frame      FrameRect `json:"frame"`
	Rotated    bool      `json:"rotated"`
	SourceSize Size      `json:"sourceSize"`
}

type manifestMeta struct {
	ManifestMeta
	Size       Size       `json:"size"`
	Hint       model.Hint `json:"hint"`
	Refined    bool       `json:"refined"`
	Efficiency float64    `json:"efficiency"`
}

// Manifest is the JSON array layout used by common atlas tooling. Frames keep
// the input order.
type Manifest struct {
	Frames []Frame      `json:"frames"`
	Meta   manifestMeta `json:"meta"`
}

// BuildManifest converts a pack result into its manifest form.
func BuildManifest(result model.PackResult, meta ManifestMeta) Manifest {
	frames := make([]Frame, len(result.Placements))
	for i, p := range result.Placements {
		frames[i] = Frame{
			Filename:   p.ID,
			Frame:      FrameRect{X: p.X, Y: p.Y, W: p.Width, H: p.Height},
			SourceSize: Size{W: p.Width, H: p.Height},
		}
		if p.Label != p.ID {
			frames[i].Label = p.Label
		}
	}
	return Manifest{
		Frames: frames,
		Meta: manifestMeta{
			ManifestMeta: meta,
			Size:         Size{W: result.Width, H: result.Height},
			Hint:         result.Hint,
			Refined:      result.Refined,
			Efficiency:   math.Round(result.Efficiency()*100) / 100,
		},
	}
}

// WriteManifest writes the indented JSON manifest of result to w.
func WriteManifest(w io.Writer, result model.PackResult, meta ManifestMeta) error {
	if len(result.Placements) == 0 {
		return fmt.Errorf("no placements to export")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BuildManifest(result, meta)); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return nil
}

// ExportManifest writes the manifest to path, creating parent directories.
func ExportManifest(path string, result model.PackResult, meta ManifestMeta) error {
	var buf bytes.Buffer
	if err := WriteManifest(&buf, result, meta); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ManifestDigest returns the hex SHA-256 of the manifest bytes. Identical
// layouts produce identical digests.
func ManifestDigest(result model.PackResult, meta ManifestMeta) (string, error) {
	var buf bytes.Buffer
	if err := WriteManifest(&buf, result, meta); err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}
