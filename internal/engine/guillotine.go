package engine

import (
	"math"
	"sort"
)

type rect struct {
	x, y, w, h int
}

func (r rect) right() int  { return r.x + r.w }
func (r rect) bottom() int { return r.y + r.h }
func (r rect) area() int   { return r.w * r.h }

// rectsOverlap returns true if two rectangles overlap (not just touch).
func rectsOverlap(a, b rect) bool {
	return a.x < b.right() && b.x < a.right() &&
		a.y < b.bottom() && b.y < a.bottom()
}

// containsRect returns true if outer fully contains inner.
func containsRect(outer, inner rect) bool {
	return outer.x <= inner.x && outer.y <= inner.y &&
		outer.right() >= inner.right() && outer.bottom() >= inner.bottom()
}

// mergeRects returns the union of a and b when they share a full edge.
func mergeRects(a, b rect) (rect, bool) {
	if a.x == b.x && a.w == b.w && (a.bottom() == b.y || b.bottom() == a.y) {
		return rect{x: a.x, y: min(a.y, b.y), w: a.w, h: a.h + b.h}, true
	}
	if a.y == b.y && a.h == b.h && (a.right() == b.x || b.right() == a.x) {
		return rect{x: min(a.x, b.x), y: a.y, w: a.w + b.w, h: a.h}, true
	}
	return rect{}, false
}

// freeList is an arena of free rectangles. Removing an entry only marks it
// dead; dead entries are dropped by compact once they outnumber live ones.
type freeList struct {
	rects []rect
	dead  []bool
	ndead int
}

func (fl *freeList) add(r rect) {
	if r.w <= 0 || r.h <= 0 {
		return
	}
	fl.rects = append(fl.rects, r)
	fl.dead = append(fl.dead, false)
}

func (fl *freeList) remove(i int) {
	if !fl.dead[i] {
		fl.dead[i] = true
		fl.ndead++
	}
}

func (fl *freeList) len() int {
	return len(fl.rects) - fl.ndead
}

func (fl *freeList) maybeCompact() {
	if fl.ndead == 0 || fl.ndead <= fl.len() {
		return
	}
	n := 0
	for i, r := range fl.rects {
		if !fl.dead[i] {
			fl.rects[n] = r
			fl.dead[n] = false
			n++
		}
	}
	fl.rects = fl.rects[:n]
	fl.dead = fl.dead[:n]
	fl.ndead = 0
}

// live returns a copy of the live free rectangles in arena order.
func (fl *freeList) live() []rect {
	out := make([]rect, 0, fl.len())
	for i, r := range fl.rects {
		if !fl.dead[i] {
			out = append(out, r)
		}
	}
	return out
}

// merge joins free rectangles sharing a full edge and drops rectangles
// contained in another, repeating until nothing changes.
func (fl *freeList) merge() {
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(fl.rects); i++ {
			if fl.dead[i] {
				continue
			}
			for j := i + 1; j < len(fl.rects); j++ {
				if fl.dead[j] {
					continue
				}
				a, b := fl.rects[i], fl.rects[j]
				switch {
				case containsRect(a, b):
					fl.remove(j)
				case containsRect(b, a):
					fl.rects[i] = b
					fl.remove(j)
					changed = true
				default:
					if m, ok := mergeRects(a, b); ok {
						fl.rects[i] = m
						fl.remove(j)
						changed = true
					}
				}
			}
		}
	}
	fl.maybeCompact()
}

// guillotinePacker implements the guillotine bin-packing algorithm on a
// canvas that can grow to the right and downwards.
type guillotinePacker struct {
	width, height int
	free          freeList
	placed        []rect
}

func newGuillotinePacker(width, height int) *guillotinePacker {
	gp := &guillotinePacker{width: width, height: height}
	gp.free.add(rect{0, 0, width, height})
	return gp
}

// findPosition picks the free rectangle for a w x h piece using Best Area Fit,
// tie-broken by Best Short Side Fit and then by arena order.
func (gp *guillotinePacker) findPosition(w, h int) (int, bool) {
	bestIdx := -1
	bestArea, bestShort := math.MaxInt, math.MaxInt
	for i, r := range gp.free.rects {
		if gp.free.dead[i] || w > r.w || h > r.h {
			continue
		}
		areaFit := r.area() - w*h
		shortFit := min(r.w-w, r.h-h)
		if areaFit < bestArea || (areaFit == bestArea && shortFit < bestShort) {
			bestIdx = i
			bestArea = areaFit
			bestShort = shortFit
		}
	}
	return bestIdx, bestIdx >= 0
}

// insert tries to place a piece of given dimensions. Returns position and success.
func (gp *guillotinePacker) insert(w, h int) (x, y int, ok bool) {
	idx, ok := gp.findPosition(w, h)
	if !ok {
		return 0, 0, false
	}
	chosen := gp.free.rects[idx]
	placed := rect{x: chosen.x, y: chosen.y, w: w, h: h}
	gp.free.remove(idx)
	gp.split(chosen, placed)
	gp.free.merge()
	gp.placed = append(gp.placed, placed)
	return placed.x, placed.y, true
}

// split cuts the L-shaped leftover of free around placed into a bottom and
// a right strip with a single straight cut.
func (gp *guillotinePacker) split(free, placed rect) {
	leftW := free.w - placed.w
	leftH := free.h - placed.h

	// Keep the larger of the two strips as big as possible.
	horizontal := placed.w*leftH > leftW*placed.h

	bottom := rect{x: free.x, y: free.y + placed.h, h: leftH}
	right := rect{x: free.x + placed.w, y: free.y, w: leftW}
	if horizontal {
		bottom.w = free.w
		right.h = placed.h
	} else {
		bottom.w = placed.w
		right.h = free.h
	}
	gp.free.add(bottom)
	gp.free.add(right)
}

// growth describes one way of enlarging the canvas.
type growth struct {
	right  bool
	amount int
	extend bool // Extend free rects on the grown edge instead of adding a full strip
}

func (g growth) size(gp *guillotinePacker) (int, int) {
	if g.right {
		return gp.width + g.amount, gp.height
	}
	return gp.width, gp.height + g.amount
}

// rightGrowth returns the smallest widening after which a w x h piece fits.
func (gp *guillotinePacker) rightGrowth(w, h int) (growth, bool) {
	if h > gp.height {
		return growth{}, false
	}
	g := growth{right: true, amount: w}
	for i, r := range gp.free.rects {
		if gp.free.dead[i] || r.right() != gp.width || r.h < h {
			continue
		}
		if need := w - r.w; need > 0 && need < g.amount {
			g.amount = need
			g.extend = true
		}
	}
	return g, true
}

// downGrowth returns the smallest heightening after which a w x h piece fits.
func (gp *guillotinePacker) downGrowth(w, h int) (growth, bool) {
	if w > gp.width {
		return growth{}, false
	}
	g := growth{amount: h}
	for i, r := range gp.free.rects {
		if gp.free.dead[i] || r.bottom() != gp.height || r.w < w {
			continue
		}
		if need := h - r.h; need > 0 && need < g.amount {
			g.amount = need
			g.extend = true
		}
	}
	return g, true
}

// planGrowth chooses between growing right and down, preferring the result
// closest to square, then the smaller area, then growing right. Candidates
// with a side above maxSide are rejected.
func (gp *guillotinePacker) planGrowth(w, h, maxSide int) (growth, bool) {
	var best growth
	found := false
	bestSide, bestArea := 0, 0
	for _, plan := range []func(int, int) (growth, bool){gp.rightGrowth, gp.downGrowth} {
		g, ok := plan(w, h)
		if !ok {
			continue
		}
		gw, gh := g.size(gp)
		if gw > maxSide || gh > maxSide {
			continue
		}
		side, area := max(gw, gh), gw*gh
		if !found || side < bestSide || (side == bestSide && area < bestArea) {
			best, bestSide, bestArea, found = g, side, area, true
		}
	}
	return best, found
}

// grow enlarges the canvas. Placed rectangles keep their coordinates; only
// free space along the grown edge is updated.
func (gp *guillotinePacker) grow(g growth) {
	if g.right {
		gp.growRight(g.amount, g.extend)
	} else {
		gp.growDown(g.amount, g.extend)
	}
	gp.free.merge()
}

func (gp *guillotinePacker) growRight(dw int, extend bool) {
	edge := gp.width
	gp.width += dw
	if !extend {
		gp.free.add(rect{x: edge, y: 0, w: dw, h: gp.height})
		return
	}
	var spans [][2]int
	for i := range gp.free.rects {
		r := &gp.free.rects[i]
		if gp.free.dead[i] || r.right() != edge {
			continue
		}
		r.w += dw
		spans = append(spans, [2]int{r.y, r.bottom()})
	}
	for _, gap := range uncovered(spans, gp.height) {
		gp.free.add(rect{x: edge, y: gap[0], w: dw, h: gap[1] - gap[0]})
	}
}

func (gp *guillotinePacker) growDown(dh int, extend bool) {
	edge := gp.height
	gp.height += dh
	if !extend {
		gp.free.add(rect{x: 0, y: edge, w: gp.width, h: dh})
		return
	}
	var spans [][2]int
	for i := range gp.free.rects {
		r := &gp.free.rects[i]
		if gp.free.dead[i] || r.bottom() != edge {
			continue
		}
		r.h += dh
		spans = append(spans, [2]int{r.x, r.right()})
	}
	for _, gap := range uncovered(spans, gp.width) {
		gp.free.add(rect{x: gap[0], y: edge, w: gap[1] - gap[0], h: dh})
	}
}

// uncovered returns the parts of [0, length) not covered by the given
// disjoint spans.
func uncovered(spans [][2]int, length int) [][2]int {
	sort.Slice(spans, func(i, j int) bool {
		return spans[i][0] < spans[j][0]
	})
	var gaps [][2]int
	pos := 0
	for _, s := range spans {
		if s[0] > pos {
			gaps = append(gaps, [2]int{pos, s[0]})
		}
		pos = max(pos, s[1])
	}
	if pos < length {
		gaps = append(gaps, [2]int{pos, length})
	}
	return gaps
}
