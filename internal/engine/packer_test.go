package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/piwi3910/SpritePack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTestSettings() model.Settings {
	s := model.DefaultSettings()
	s.Workers = 1
	return s
}

func exampleRects() []model.Rect {
	return []model.Rect{
		model.NewRectID("a", 100, 100),
		model.NewRectID("b", 50, 50),
		model.NewRectID("c", 50, 100),
	}
}

func randomRects(seed int64, n, maxSide int) []model.Rect {
	rng := rand.New(rand.NewSource(seed))
	rects := make([]model.Rect, n)
	for i := range rects {
		rects[i] = model.NewRectID(fmt.Sprintf("r%d", i), 1+rng.Intn(maxSide), 1+rng.Intn(maxSide))
	}
	return rects
}

// assertValidLayout checks the properties every successful pack must have.
func assertValidLayout(t *testing.T, rects []model.Rect, result model.PackResult) {
	t.Helper()
	require.Len(t, result.Placements, len(rects))

	var used uint64
	maxRight, maxBottom := 0, 0
	for i, p := range result.Placements {
		assert.Equal(t, rects[i].ID, p.ID, "placements follow input order")
		assert.Equal(t, rects[i].Width, p.Width)
		assert.Equal(t, rects[i].Height, p.Height)
		assert.GreaterOrEqual(t, p.X, 0)
		assert.GreaterOrEqual(t, p.Y, 0)
		assert.LessOrEqual(t, p.Right(), result.Width)
		assert.LessOrEqual(t, p.Bottom(), result.Height)
		for _, o := range result.Placements[i+1:] {
			assert.False(t, p.Overlaps(o), "%s overlaps %s", p.ID, o.ID)
		}
		used += rects[i].Area()
		maxRight = max(maxRight, p.Right())
		maxBottom = max(maxBottom, p.Bottom())
	}
	assert.Equal(t, maxRight, result.Width, "width is the tight bound")
	assert.Equal(t, maxBottom, result.Height, "height is the tight bound")
	assert.GreaterOrEqual(t, result.Area(), used)
}

func TestRunAttempt_TryByArea(t *testing.T) {
	a := runAttempt(exampleRects(), model.TryByArea, defaultTestSettings(), slog.New(slog.DiscardHandler))
	require.NoError(t, a.err)
	assert.Equal(t, stateSucceeded, a.state)
	assert.Equal(t, []int{0, 2, 1}, a.order)
	assert.Equal(t, 150, a.width)
	assert.Equal(t, 150, a.height)
	assert.Equal(t, 2, a.growths)

	want := map[string][2]int{"a": {0, 0}, "c": {100, 0}, "b": {0, 100}}
	for _, r := range a.rects {
		x, y, ok := r.Position()
		require.True(t, ok)
		assert.Equal(t, want[r.ID], [2]int{x, y}, r.ID)
	}
}

func TestRunAttempt_InvalidHint(t *testing.T) {
	a := runAttempt(exampleRects(), model.TryByArea|model.TryByWidth, defaultTestSettings(), slog.New(slog.DiscardHandler))
	assert.ErrorIs(t, a.err, ErrInvalidHint)
	assert.Equal(t, stateFailed, a.state)
}

func TestPack_Example(t *testing.T) {
	rects := exampleRects()
	result, err := New(defaultTestSettings()).Pack(context.Background(), rects)
	require.NoError(t, err)

	assert.Equal(t, 150, result.Width)
	assert.Equal(t, 150, result.Height)
	assert.Equal(t, model.Hint(0), result.Hint, "caller order ties and comes first")
	assert.Equal(t, 7, result.Attempts)
	assertValidLayout(t, rects, result)

	assert.Equal(t, []model.Placement{
		{ID: "a", Label: "a", X: 0, Y: 0, Width: 100, Height: 100},
		{ID: "b", Label: "b", X: 100, Y: 0, Width: 50, Height: 50},
		{ID: "c", Label: "c", X: 100, Y: 50, Width: 50, Height: 100},
	}, result.Placements)
}

func TestPackWithHints_SingleHint(t *testing.T) {
	result, err := New(defaultTestSettings()).PackWithHints(context.Background(), exampleRects(), model.TryByArea)
	require.NoError(t, err)
	assert.Equal(t, 150, result.Width)
	assert.Equal(t, 150, result.Height)
	assert.Equal(t, 2, result.Attempts)
}

func TestPack_SingleRect(t *testing.T) {
	rects := []model.Rect{model.NewRectID("only", 10, 20)}
	result, err := New(defaultTestSettings()).Pack(context.Background(), rects)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Width)
	assert.Equal(t, 20, result.Height)
	assert.Equal(t, 0, result.Placements[0].X)
	assert.Equal(t, 0, result.Placements[0].Y)
}

func TestPack_IdenticalSquaresFillPerfectly(t *testing.T) {
	rects := []model.Rect{
		model.NewRectID("s1", 10, 10),
		model.NewRectID("s2", 10, 10),
		model.NewRectID("s3", 10, 10),
		model.NewRectID("s4", 10, 10),
	}
	result, err := New(defaultTestSettings()).Pack(context.Background(), rects)
	require.NoError(t, err)

	assert.Equal(t, 20, result.Width)
	assert.Equal(t, 20, result.Height)
	assert.InDelta(t, 100.0, result.Efficiency(), 0.001)
	assertValidLayout(t, rects, result)
}

func TestPack_Padding(t *testing.T) {
	settings := defaultTestSettings()
	settings.Padding = 2
	rects := []model.Rect{
		model.NewRectID("p1", 10, 10),
		model.NewRectID("p2", 10, 10),
	}
	result, err := New(settings).Pack(context.Background(), rects)
	require.NoError(t, err)

	assert.Equal(t, 22, result.Width)
	assert.Equal(t, 10, result.Height)
	assert.Equal(t, 12, result.Placements[1].X)
	assertValidLayout(t, rects, result)
}

func TestPack_InvalidInput(t *testing.T) {
	p := New(defaultTestSettings())

	_, err := p.Pack(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = p.Pack(context.Background(), []model.Rect{
		model.NewRectID("ok", 10, 10),
		model.NewRectID("flat", 10, 0),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, model.ErrInvalidSize)
	assert.Contains(t, err.Error(), "flat")

	_, err = p.Pack(context.Background(), []model.Rect{model.NewRectID("neg", -1, 5)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPack_InvalidSettings(t *testing.T) {
	settings := defaultTestSettings()
	settings.MaxSide = 0
	_, err := New(settings).Pack(context.Background(), exampleRects())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPack_CeilingExceeded(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Settings)
	}{
		{"initial canvas above max side", func(s *model.Settings) { s.MaxSide = 5 }},
		{"growth above max side", func(s *model.Settings) { s.MaxSide = 149 }},
		{"growth limit", func(s *model.Settings) { s.MaxGrowths = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := defaultTestSettings()
			tt.mutate(&settings)
			_, err := New(settings).Pack(context.Background(), exampleRects())
			assert.ErrorIs(t, err, ErrPackingFailed)
		})
	}
}

func TestPack_DoesNotModifyInput(t *testing.T) {
	rects := randomRects(3, 25, 50)
	before := make([]model.Rect, len(rects))
	copy(before, rects)

	_, err := New(defaultTestSettings()).Pack(context.Background(), rects)
	require.NoError(t, err)

	assert.Equal(t, before, rects)
	for _, r := range rects {
		assert.False(t, r.Placed())
	}
}

func TestPack_RandomLayoutsAreValid(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		rects := randomRects(seed, 60, 80)
		result, err := New(defaultTestSettings()).Pack(context.Background(), rects)
		require.NoError(t, err)
		assertValidLayout(t, rects, result)
	}
}

func TestPack_FindBestNeverWorseThanSingleHint(t *testing.T) {
	rects := randomRects(11, 40, 60)
	p := New(defaultTestSettings())

	best, err := p.PackWithHints(context.Background(), rects, model.FindBest)
	require.NoError(t, err)

	for _, h := range model.FindBest.Expand() {
		single, err := p.PackWithHints(context.Background(), rects, h)
		require.NoError(t, err)
		assert.LessOrEqual(t, best.Area(), single.Area(), "hint %s", h)
	}
}

func TestPack_ParallelMatchesSequential(t *testing.T) {
	rects := randomRects(5, 80, 64)

	sequential := defaultTestSettings()
	sequential.Workers = 1
	parallel := defaultTestSettings()
	parallel.Workers = 8

	a, err := New(sequential).Pack(context.Background(), rects)
	require.NoError(t, err)
	b, err := New(parallel).Pack(context.Background(), rects)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestPack_Deterministic(t *testing.T) {
	rects := randomRects(9, 50, 40)
	p := New(defaultTestSettings())

	first, err := p.Pack(context.Background(), rects)
	require.NoError(t, err)
	second, err := p.Pack(context.Background(), rects)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPack_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(defaultTestSettings()).Pack(ctx, exampleRects())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBetter(t *testing.T) {
	small := attempt{width: 10, height: 10}
	wide := attempt{width: 20, height: 5}
	failed := attempt{err: errCeilingExceeded}

	assert.True(t, better(small, wide), "same area, smaller perimeter")
	assert.False(t, better(wide, small))
	assert.False(t, better(small, small), "ties keep the earlier attempt")
	assert.True(t, better(small, failed))
	assert.False(t, better(failed, small))

	best, ok := pickBest([]attempt{failed, wide, {width: 5, height: 20}, small})
	require.True(t, ok)
	assert.Equal(t, small, best)

	_, ok = pickBest([]attempt{failed, failed})
	assert.False(t, ok)
}

func TestAttemptState_String(t *testing.T) {
	assert.Equal(t, "growing", stateGrowing.String())
	assert.Equal(t, "attemptState(9)", attemptState(9).String())
}
