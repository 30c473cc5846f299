package engine

import (
	"context"

	"github.com/piwi3910/SpritePack/internal/model"
)

// HintReport holds the outcome of a single ordering for side-by-side
// comparison.
type HintReport struct {
	Hint       model.Hint `json:"hint"` // None is the caller order
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Area       uint64     `json:"area"`
	Efficiency float64    `json:"efficiency"`
	Growths    int        `json:"growths"`
	Best       bool       `json:"best"` // The ordering Pack would pick
	Failed     bool       `json:"failed"`
	Error      string     `json:"error,omitempty"`
}

// CompareHints runs the same attempts as PackWithHints and reports every
// ordering, caller order first and then in canonical hint order. This shows
// how much each ordering contributes for a given input.
func (p *Packer) CompareHints(ctx context.Context, rects []model.Rect, hints model.Hint) ([]HintReport, error) {
	ctx, span := p.tracer.Start(ctx, "Packer.CompareHints")
	defer span.End()

	if err := p.validate(rects); err != nil {
		return nil, err
	}

	attempts := p.runAttempts(ctx, rects, candidateHints(hints))
	if skipped(attempts) {
		return nil, ctx.Err()
	}

	var used uint64
	for _, r := range rects {
		used += r.Area()
	}

	best, found := pickBest(attempts)
	reports := make([]HintReport, 0, len(attempts))
	for _, a := range attempts {
		report := HintReport{Hint: a.hint}
		if !a.ok() {
			report.Failed = true
			report.Error = a.err.Error()
			reports = append(reports, report)
			continue
		}
		report.Width = a.width
		report.Height = a.height
		report.Area = a.area()
		report.Growths = a.growths
		if report.Area > 0 {
			report.Efficiency = float64(used) / float64(report.Area) * 100.0
		}
		report.Best = found && a.hint == best.hint
		reports = append(reports, report)
	}

	return reports, nil
}
