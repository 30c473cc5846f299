package export

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/SpritePack/internal/model"
)

func TestRenderPreview_Size(t *testing.T) {
	tests := []struct {
		scale        float64
		wantW, wantH int
	}{
		{1, 150, 150},
		{2, 300, 300},
		{0.5, 75, 75},
	}
	for _, tt := range tests {
		img, err := RenderPreview(buildTestResult(), tt.scale)
		if err != nil {
			t.Fatalf("RenderPreview(%v) returned error: %v", tt.scale, err)
		}
		b := img.Bounds()
		if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("RenderPreview(%v) size = %dx%d, want %dx%d", tt.scale, b.Dx(), b.Dy(), tt.wantW, tt.wantH)
		}
	}
}

func TestRenderPreview_FillsRects(t *testing.T) {
	result := buildTestResult()
	img, err := RenderPreview(result, 1)
	if err != nil {
		t.Fatalf("RenderPreview returned error: %v", err)
	}

	for i, p := range result.Placements {
		want := partColors[i%len(partColors)]
		r, g, b, _ := img.At(p.X+4, p.Y+4).RGBA()
		got := partColor{R: int(r >> 8), G: int(g >> 8), B: int(b >> 8)}
		if got != want {
			t.Errorf("rect %s filled with %+v, want %+v", p.ID, got, want)
		}
	}
}

func TestRenderPreview_Errors(t *testing.T) {
	if _, err := RenderPreview(model.PackResult{}, 1); err == nil {
		t.Error("expected error for empty result")
	}
	if _, err := RenderPreview(buildTestResult(), 0); err == nil {
		t.Error("expected error for zero scale")
	}
	if _, err := RenderPreview(buildTestResult(), -1); err == nil {
		t.Error("expected error for negative scale")
	}
	if _, err := RenderPreview(buildTestResult(), 100); err == nil {
		t.Error("expected error for a preview above the pixel limit")
	}
}

func TestExportPreview_WritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview", "atlas.png")

	if err := ExportPreview(path, buildTestResult(), 2); err != nil {
		t.Fatalf("ExportPreview returned error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("preview not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("preview is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 300 || img.Bounds().Dy() != 300 {
		t.Errorf("preview size = %v, want 300x300", img.Bounds())
	}
}
