// Package export writes pack results to manifest, image, PDF and
// spreadsheet files.
package export

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/SpritePack/internal/model"
)

// partColor represents an RGB color for a placed rect.
type partColor struct {
	R, G, B int
}

// partColors is shared by the PDF and PNG renderers so both show the same
// color for the same rect.
var partColors = []partColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	rowHeight    = 6.0
	summaryQR    = 40.0
	maxLegend    = 48 // Rects listed in the layout page legend
)

// ExportPDF generates a report with the layout diagram on the first page,
// followed by summary pages with statistics and the placement table. The
// summary carries a QR code of the manifest digest so a printed report can be
// matched against the atlas it describes.
func ExportPDF(path string, result model.PackResult, meta ManifestMeta) error {
	if len(result.Placements) == 0 {
		return fmt.Errorf("no placements to export")
	}

	digest, err := ManifestDigest(result, meta)
	if err != nil {
		return err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(fmt.Sprintf("%s atlas layout", meta.App), false)

	pdf.AddPage()
	renderLayoutPage(pdf, result)

	pdf.AddPage()
	if err := renderSummaryPage(pdf, result, meta, digest); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return pdf.OutputFileAndClose(path)
}

// renderLayoutPage draws the atlas scaled to fit the page.
func renderLayoutPage(pdf *fpdf.Fpdf, result model.PackResult) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Atlas layout (%d x %d px)", result.Width, result.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Rects: %d | Used area: %d px | Total area: %d px | Efficiency: %.1f%%",
		len(result.Placements), result.UsedArea(), result.Area(), result.Efficiency())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight

	scale := math.Min(drawWidth/float64(result.Width), drawHeight/float64(result.Height))
	canvasW := float64(result.Width) * scale
	canvasH := float64(result.Height) * scale

	// Center the drawing horizontally
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Empty atlas space
	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	for i, p := range result.Placements {
		col := partColors[i%len(partColors)]
		pw := float64(p.Width) * scale
		ph := float64(p.Height) * scale
		px := offsetX + float64(p.X)*scale
		py := offsetY + float64(p.Y)*scale

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.2)
		pdf.Rect(px, py, pw, ph, "FD")

		if pw > 15 && ph > 8 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)

			label := placementName(p)
			dims := fmt.Sprintf("%dx%d", p.Width, p.Height)
			labelW := pdf.GetStringWidth(label)
			dimsW := pdf.GetStringWidth(dims)

			if labelW < pw-2 {
				pdf.SetXY(px+(pw-labelW)/2, py+ph/2-4)
				pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
			}
			if ph > 14 && dimsW < pw-2 {
				pdf.SetXY(px+(pw-dimsW)/2, py+ph/2)
				pdf.CellFormat(dimsW, 4, dims, "", 0, "C", false, 0, "")
			}
		}
	}

	drawDimensionAnnotations(pdf, result, offsetX, offsetY, canvasW, canvasH)
	drawLegend(pdf, result, offsetY+canvasH+6)
}

// drawDimensionAnnotations adds width and height labels outside the atlas.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, result model.PackResult, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%d px", result.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%d px", result.Height)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawLegend lists the placed rects with their color swatch. Long lists are
// cut off; the summary table has every rect.
func drawLegend(pdf *fpdf.Fpdf, result model.PackResult, startY float64) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Rects placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for i, p := range result.Placements {
		if i == maxLegend {
			pdf.SetXY(xPos, startY)
			pdf.CellFormat(40, 4, fmt.Sprintf("... and %d more", len(result.Placements)-maxLegend), "", 0, "L", false, 0, "")
			return
		}
		col := partColors[i%len(partColors)]
		label := fmt.Sprintf("%s (%dx%d)", placementName(p), p.Width, p.Height)
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
			if startY > pageHeight-marginBottom {
				return
			}
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")

		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSummaryPage draws the statistics, the manifest QR code and the
// placement table, continuing on new pages as needed.
func renderSummaryPage(pdf *fpdf.Fpdf, result model.PackResult, meta ManifestMeta, digest string) error {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Packing Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	if err := drawDigestQR(pdf, digest, pageWidth-marginRight-summaryQR, marginTop+16); err != nil {
		return err
	}

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	refined := "no"
	if result.Refined {
		refined = "yes"
	}
	summaryItems := []struct {
		label string
		value string
	}{
		{"Atlas Size", fmt.Sprintf("%d x %d px", result.Width, result.Height)},
		{"Rects Placed", fmt.Sprintf("%d", len(result.Placements))},
		{"Efficiency", fmt.Sprintf("%.1f%%", result.Efficiency())},
		{"Winning Ordering", result.Hint.String()},
		{"Refined Ordering", refined},
		{"Attempts Evaluated", fmt.Sprintf("%d", result.Attempts)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y = math.Max(y, marginTop+16+summaryQR) + 6

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Placements", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{15, 95, 30, 30, 30, 30, 37}
	headers := []string{"#", "ID", "X", "Y", "Width", "Height", "Area"}
	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		xPos := marginLeft
		for i, header := range headers {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[i], rowHeight, header, "1", 0, "C", true, 0, "")
			xPos += colWidths[i]
		}
		y += rowHeight
		pdf.SetFont("Helvetica", "", 9)
	}
	drawHeader()

	for i, p := range result.Placements {
		if y+rowHeight > pageHeight-marginBottom-6 {
			drawFooter(pdf, meta)
			pdf.AddPage()
			y = marginTop
			drawHeader()
		}

		rowData := []string{
			fmt.Sprintf("%d", i+1),
			placementName(p),
			fmt.Sprintf("%d", p.X),
			fmt.Sprintf("%d", p.Y),
			fmt.Sprintf("%d", p.Width),
			fmt.Sprintf("%d", p.Height),
			fmt.Sprintf("%d", p.Width*p.Height),
		}

		// Alternate row background
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos := marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], rowHeight, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += rowHeight
	}

	drawFooter(pdf, meta)
	return nil
}

// drawDigestQR places a QR code of the manifest digest with the short digest
// printed below it.
func drawDigestQR(pdf *fpdf.Fpdf, digest string, x, y float64) error {
	png, err := qrcode.Encode("sha256:"+digest, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}
	name := "manifest_" + digest[:12]
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions(name, x, y, summaryQR, summaryQR, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetFont("Courier", "", 7)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(x, y+summaryQR)
	pdf.CellFormat(summaryQR, 4, digest[:16], "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	return nil
}

func drawFooter(pdf *fpdf.Fpdf, meta ManifestMeta) {
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	footer := fmt.Sprintf("Generated by %s %s", meta.App, meta.Version)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, footer, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}

func placementName(p model.Placement) string {
	if p.Label != "" {
		return p.Label
	}
	return p.ID
}
