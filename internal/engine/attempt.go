package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/piwi3910/SpritePack/internal/model"
)

// attemptState tracks a single attempt through its lifecycle.
type attemptState int

const (
	stateInitializing attemptState = iota
	statePlacing
	stateGrowing
	stateSucceeded
	stateFailed
)

func (s attemptState) String() string {
	switch s {
	case stateInitializing:
		return "initializing"
	case statePlacing:
		return "placing"
	case stateGrowing:
		return "growing"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("attemptState(%d)", int(s))
	}
}

// attempt is the outcome of placing every rect in one ordering. Attempts
// never share state, so any number can run side by side.
type attempt struct {
	hint    model.Hint   // 0 for caller order or an explicit sequence
	order   []int        // Placement sequence as indices into rects
	rects   []model.Rect // Private copy in caller order, positions set on success
	width   int          // Tight bounds of the placements
	height  int
	canvasW int
	canvasH int
	growths int
	state   attemptState
	err     error
}

func (a attempt) ok() bool {
	return a.err == nil
}

func (a attempt) area() uint64 {
	return uint64(a.width) * uint64(a.height)
}

func (a attempt) perimeter() uint64 {
	return 2 * (uint64(a.width) + uint64(a.height))
}

// better reports whether a beats b: smaller area, then smaller perimeter.
// Equal results keep b, so the earlier candidate wins a tie.
func better(a, b attempt) bool {
	if !a.ok() {
		return false
	}
	if !b.ok() {
		return true
	}
	if a.area() != b.area() {
		return a.area() < b.area()
	}
	return a.perimeter() < b.perimeter()
}

// pickBest folds attempts in candidate order. ok is false when every attempt
// failed.
func pickBest(attempts []attempt) (attempt, bool) {
	var best attempt
	found := false
	for _, a := range attempts {
		if !a.ok() {
			continue
		}
		if !found || better(a, best) {
			best, found = a, true
		}
	}
	return best, found
}

// ordering returns the placement sequence for h as indices into rects.
// Hint 0 keeps the caller order; otherwise a private copy is sorted with
// ApplyOrdering and each copy's Seq maps back to the caller index.
func ordering(rects []model.Rect, h model.Hint) ([]int, error) {
	sorted := model.CloneRects(rects)
	if h != 0 {
		if err := ApplyOrdering(sorted, h); err != nil {
			return nil, err
		}
	}
	idx := make([]int, len(sorted))
	for i, r := range sorted {
		idx[i] = r.Seq()
	}
	return idx, nil
}

// runAttempt packs rects in the ordering selected by h.
func runAttempt(rects []model.Rect, h model.Hint, settings model.Settings, logger *slog.Logger) attempt {
	order, err := ordering(rects, h)
	if err != nil {
		return attempt{hint: h, state: stateFailed, err: err}
	}
	a := placeSequence(rects, order, settings, logger)
	a.hint = h
	return a
}

// placeSequence packs a private copy of rects in the given sequence onto a
// canvas that starts near square and grows one step at a time until every
// rect fits or the ceiling is hit.
func placeSequence(rects []model.Rect, order []int, settings model.Settings, logger *slog.Logger) attempt {
	a := attempt{
		order: order,
		rects: model.CloneRects(rects),
		state: stateInitializing,
	}
	pad := settings.Padding

	fail := func(err error) attempt {
		logger.Debug("attempt failed",
			"state", a.state.String(),
			"placed", countPlaced(a.rects),
			"canvas_w", a.canvasW,
			"canvas_h", a.canvasH,
			"error", err,
		)
		a.state = stateFailed
		a.err = err
		return a
	}

	var total uint64
	widest, tallest := 0, 0
	for _, r := range a.rects {
		w, h := r.Width+pad, r.Height+pad
		total += uint64(w) * uint64(h)
		widest = max(widest, w)
		tallest = max(tallest, h)
	}
	side := ceilSqrt(total)
	if side > uint64(settings.MaxSide) {
		return fail(fmt.Errorf("%w: initial side %d above %d", errCeilingExceeded, side, settings.MaxSide))
	}
	a.canvasW = max(int(side), widest)
	a.canvasH = max(int(side), tallest)
	if a.canvasW > settings.MaxSide || a.canvasH > settings.MaxSide {
		return fail(fmt.Errorf("%w: initial canvas %dx%d above %d", errCeilingExceeded, a.canvasW, a.canvasH, settings.MaxSide))
	}

	gp := newGuillotinePacker(a.canvasW, a.canvasH)
	a.state = statePlacing

	for _, i := range order {
		r := &a.rects[i]
		w, h := r.Width+pad, r.Height+pad

		x, y, ok := gp.insert(w, h)
		for !ok {
			a.state = stateGrowing
			if settings.MaxGrowths > 0 && a.growths >= settings.MaxGrowths {
				return fail(fmt.Errorf("%w: growth limit %d reached", errCeilingExceeded, settings.MaxGrowths))
			}
			g, found := gp.planGrowth(w, h, settings.MaxSide)
			if !found {
				return fail(fmt.Errorf("%w: cannot fit %dx%d on %dx%d", errCeilingExceeded, w, h, gp.width, gp.height))
			}
			gp.grow(g)
			a.growths++
			a.canvasW, a.canvasH = gp.width, gp.height
			x, y, ok = gp.insert(w, h)
		}
		a.state = statePlacing
		r.SetPosition(x, y)
		a.width = max(a.width, x+r.Width)
		a.height = max(a.height, y+r.Height)
	}

	a.state = stateSucceeded
	logger.Debug("attempt succeeded",
		"width", a.width,
		"height", a.height,
		"canvas_w", a.canvasW,
		"canvas_h", a.canvasH,
		"growths", a.growths,
	)
	return a
}

func ceilSqrt(n uint64) uint64 {
	s := uint64(math.Sqrt(float64(n)))
	for s*s > n {
		s--
	}
	for s*s < n {
		s++
	}
	return s
}

func countPlaced(rects []model.Rect) int {
	n := 0
	for _, r := range rects {
		if r.Placed() {
			n++
		}
	}
	return n
}

// placements converts a successful attempt into caller-ordered placements.
func (a attempt) placements() []model.Placement {
	out := make([]model.Placement, len(a.rects))
	for i, r := range a.rects {
		x, y, _ := r.Position()
		out[i] = model.Placement{
			ID:     r.ID,
			Label:  r.Label,
			X:      x,
			Y:      y,
			Width:  r.Width,
			Height: r.Height,
		}
	}
	return out
}
