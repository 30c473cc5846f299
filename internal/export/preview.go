package export

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/piwi3910/SpritePack/internal/model"
)

const (
	maxPreviewSide = 8192 // pixels
	checkerSize    = 8
)

// RenderPreview draws the layout at scale pixels per unit. Empty space shows
// as a checkerboard and each rect gets a palette color, an outline and its
// label when the label fits.
func RenderPreview(result model.PackResult, scale float64) (image.Image, error) {
	if len(result.Placements) == 0 {
		return nil, fmt.Errorf("no placements to render")
	}
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil, fmt.Errorf("preview scale must be positive, got %g", scale)
	}

	w := int(math.Ceil(float64(result.Width) * scale))
	h := int(math.Ceil(float64(result.Height) * scale))
	if w > maxPreviewSide || h > maxPreviewSide {
		return nil, fmt.Errorf("preview of %dx%d pixels exceeds the %d pixel limit, lower the scale", w, h, maxPreviewSide)
	}

	dc := gg.NewContext(w, h)
	drawCheckerboard(dc, w, h)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetLineWidth(1)

	for i, p := range result.Placements {
		col := partColors[i%len(partColors)]
		x, y := float64(p.X)*scale, float64(p.Y)*scale
		pw, ph := float64(p.Width)*scale, float64(p.Height)*scale

		dc.DrawRectangle(x, y, pw, ph)
		dc.SetRGB255(col.R, col.G, col.B)
		dc.FillPreserve()
		dc.SetRGB255(30, 30, 30)
		dc.Stroke()

		label := placementName(p)
		tw, th := dc.MeasureString(label)
		if tw < pw-4 && th < ph-4 {
			dc.SetRGB(0, 0, 0)
			dc.DrawStringAnchored(label, x+pw/2, y+ph/2, 0.5, 0.5)
		}
	}

	return dc.Image(), nil
}

// ExportPreview renders the layout and saves it as a PNG file.
func ExportPreview(path string, result model.PackResult, scale float64) error {
	img, err := RenderPreview(result, scale)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}

func drawCheckerboard(dc *gg.Context, w, h int) {
	dc.SetRGB255(255, 255, 255)
	dc.Clear()
	dc.SetRGB255(220, 220, 220)
	for y := 0; y < h; y += checkerSize {
		for x := (y / checkerSize % 2) * checkerSize; x < w; x += 2 * checkerSize {
			dc.DrawRectangle(float64(x), float64(y), checkerSize, checkerSize)
		}
	}
	dc.Fill()
}
