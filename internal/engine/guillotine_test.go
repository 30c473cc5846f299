package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariants verifies the free list and placements partition the canvas.
func checkInvariants(t *testing.T, gp *guillotinePacker) {
	t.Helper()
	canvas := rect{0, 0, gp.width, gp.height}
	free := gp.free.live()

	area := 0
	for i, a := range gp.placed {
		require.True(t, containsRect(canvas, a), "placed %v outside canvas %v", a, canvas)
		for _, b := range gp.placed[i+1:] {
			require.False(t, rectsOverlap(a, b), "placed %v overlaps %v", a, b)
		}
		for _, f := range free {
			require.False(t, rectsOverlap(a, f), "placed %v overlaps free %v", a, f)
		}
		area += a.area()
	}
	for i, a := range free {
		require.True(t, containsRect(canvas, a), "free %v outside canvas %v", a, canvas)
		for _, b := range free[i+1:] {
			require.False(t, rectsOverlap(a, b), "free %v overlaps %v", a, b)
		}
		area += a.area()
	}
	require.Equal(t, canvas.area(), area, "free and placed area must cover the canvas")
}

func TestGuillotine_ExactFit(t *testing.T) {
	gp := newGuillotinePacker(100, 100)

	x, y, ok := gp.insert(100, 100)
	require.True(t, ok)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
	assert.Empty(t, gp.free.live())

	_, _, ok = gp.insert(1, 1)
	assert.False(t, ok)
}

func TestGuillotine_SplitKeepsLargerStrip(t *testing.T) {
	gp := newGuillotinePacker(100, 100)

	_, _, ok := gp.insert(60, 40)
	require.True(t, ok)
	assert.ElementsMatch(t, []rect{
		{0, 40, 100, 60},
		{60, 0, 40, 40},
	}, gp.free.live())
	checkInvariants(t, gp)

	// The exact-fit strip wins over the larger one.
	x, y, ok := gp.insert(40, 40)
	require.True(t, ok)
	assert.Equal(t, 60, x)
	assert.Equal(t, 0, y)
	assert.Equal(t, []rect{{0, 40, 100, 60}}, gp.free.live())
	checkInvariants(t, gp)
}

func TestGuillotine_BestShortSideBreaksAreaTie(t *testing.T) {
	gp := &guillotinePacker{width: 100, height: 100}
	gp.free.add(rect{50, 0, 25, 40})  // leftover 500, short side 5
	gp.free.add(rect{0, 0, 20, 50})   // leftover 500, short side 0
	gp.free.add(rect{50, 50, 40, 40}) // leftover 1100

	idx, ok := gp.findPosition(20, 25)
	require.True(t, ok)
	assert.Equal(t, rect{0, 0, 20, 50}, gp.free.rects[idx])
}

func TestFreeList_MergeAndCompact(t *testing.T) {
	var fl freeList
	fl.add(rect{0, 0, 10, 10})
	fl.add(rect{10, 0, 10, 10})
	fl.add(rect{0, 10, 20, 5})
	fl.add(rect{2, 2, 3, 3}) // overlaps by construction, dropped as contained
	fl.add(rect{0, 0, 0, 5}) // degenerate, never stored

	fl.merge()

	assert.Equal(t, []rect{{0, 0, 20, 15}}, fl.live())
	assert.Len(t, fl.rects, 1, "dead entries are compacted away")
	assert.Zero(t, fl.ndead)
}

func TestUncovered(t *testing.T) {
	gaps := uncovered([][2]int{{30, 40}, {0, 10}}, 50)
	assert.Equal(t, [][2]int{{10, 30}, {40, 50}}, gaps)
	assert.Empty(t, uncovered([][2]int{{0, 50}}, 50))
	assert.Equal(t, [][2]int{{0, 50}}, uncovered(nil, 50))
}

func TestGuillotine_GrowRightExtendsEdgeRects(t *testing.T) {
	gp := newGuillotinePacker(133, 133)
	_, _, ok := gp.insert(100, 100)
	require.True(t, ok)

	_, _, ok = gp.insert(50, 100)
	require.False(t, ok)

	g, ok := gp.planGrowth(50, 100, 1000)
	require.True(t, ok)
	assert.Equal(t, growth{right: true, amount: 17, extend: true}, g)

	gp.grow(g)
	assert.Equal(t, 150, gp.width)
	assert.Equal(t, 133, gp.height)
	checkInvariants(t, gp)

	x, y, ok := gp.insert(50, 100)
	require.True(t, ok)
	assert.Equal(t, 100, x)
	assert.Equal(t, 0, y)
	checkInvariants(t, gp)
}

func TestGuillotine_GrowthRespectsMaxSide(t *testing.T) {
	gp := newGuillotinePacker(133, 133)
	_, _, ok := gp.insert(100, 100)
	require.True(t, ok)

	// Right would reach 150 and down 200, both above the ceiling.
	_, ok = gp.planGrowth(50, 100, 149)
	assert.False(t, ok)

	// With room for 150 but not 200 the right side is chosen.
	g, ok := gp.planGrowth(50, 100, 150)
	require.True(t, ok)
	assert.True(t, g.right)
}

func TestGuillotine_FallbackStripWhenEdgeIsFragmented(t *testing.T) {
	gp := newGuillotinePacker(20, 20)
	// Leave a free strip on the right edge that is too short for the next piece.
	_, _, ok := gp.insert(15, 20)
	require.True(t, ok)
	_, _, ok = gp.insert(5, 5)
	require.True(t, ok)
	_, _, ok = gp.insert(5, 5)
	require.True(t, ok)

	g, ok := gp.rightGrowth(10, 20)
	require.True(t, ok)
	assert.Equal(t, 10, g.amount)
	assert.False(t, g.extend)

	gp.grow(g)
	checkInvariants(t, gp)
	_, _, ok = gp.insert(10, 20)
	assert.True(t, ok)
}

func TestGuillotine_RandomInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	gp := newGuillotinePacker(64, 64)

	for i := 0; i < 300; i++ {
		w, h := 1+rng.Intn(40), 1+rng.Intn(40)
		_, _, ok := gp.insert(w, h)
		if !ok {
			g, found := gp.planGrowth(w, h, 1<<20)
			require.True(t, found)
			gp.grow(g)
			checkInvariants(t, gp)

			_, _, ok = gp.insert(w, h)
			require.True(t, ok, "a single growth must make room for %dx%d", w, h)
		}
		checkInvariants(t, gp)
	}
}
