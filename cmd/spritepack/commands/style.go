package commands

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/piwi3910/SpritePack/internal/engine"
	"github.com/piwi3910/SpritePack/internal/model"
)

var (
	colorAccent = lipgloss.Color("#874BFD")
	colorGood   = lipgloss.Color("#00FF99")
	colorSub    = lipgloss.Color("#64748B")
	colorDanger = lipgloss.Color("#FF0055")

	titleStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(colorSub).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(colorGood).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	headStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Padding(0, 1)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSub).
			Padding(0, 1)
)

func field(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

// renderSummary formats the result card, optionally followed by the
// placement table.
func renderSummary(result model.PackResult, list bool) string {
	ordering := result.Hint.String()
	if result.Refined {
		ordering = "refined"
	}
	card := cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Atlas packed"),
		field("Size", fmt.Sprintf("%d x %d", result.Width, result.Height)),
		field("Rects", strconv.Itoa(len(result.Placements))),
		field("Efficiency", fmt.Sprintf("%.1f%%", result.Efficiency())),
		field("Ordering", ordering),
		field("Attempts", strconv.Itoa(result.Attempts)),
	))
	if !list {
		return card
	}
	return card + "\n" + placementTable(result)
}

func placementTable(result model.PackResult) string {
	rows := make([][]string, len(result.Placements))
	for i, p := range result.Placements {
		rows[i] = []string{
			p.ID,
			strconv.Itoa(p.X),
			strconv.Itoa(p.Y),
			strconv.Itoa(p.Width),
			strconv.Itoa(p.Height),
		}
	}
	return newTable("ID", "X", "Y", "W", "H").Rows(rows...).String()
}

// renderComparison formats one row per ordering, marking the winner.
func renderComparison(reports []engine.HintReport) string {
	rows := make([][]string, len(reports))
	for i, r := range reports {
		ordering := r.Hint.String()
		if r.Hint == 0 {
			ordering = "input order"
		}
		if r.Failed {
			rows[i] = []string{ordering, "-", "-", "-", "-", "failed: " + r.Error}
			continue
		}
		status := ""
		if r.Best {
			status = "best"
		}
		rows[i] = []string{
			ordering,
			fmt.Sprintf("%d x %d", r.Width, r.Height),
			strconv.FormatUint(r.Area, 10),
			fmt.Sprintf("%.1f%%", r.Efficiency),
			strconv.Itoa(r.Growths),
			status,
		}
	}
	return newTable("Ordering", "Size", "Area", "Used", "Growths", "").Rows(rows...).String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorSub)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			return cellStyle
		})
}
