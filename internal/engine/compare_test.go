package engine

import (
	"context"
	"testing"

	"github.com/piwi3910/SpritePack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareHints(t *testing.T) {
	reports, err := New(defaultTestSettings()).CompareHints(context.Background(), exampleRects(), model.FindBest)
	require.NoError(t, err)
	require.Len(t, reports, 7)

	want := append([]model.Hint{0}, model.FindBest.Expand()...)
	for i, r := range reports {
		assert.Equal(t, want[i], r.Hint)
		assert.False(t, r.Failed)
		assert.Equal(t, 150, r.Width)
		assert.Equal(t, 150, r.Height)
		assert.Equal(t, uint64(22500), r.Area)
		assert.InDelta(t, 77.78, r.Efficiency, 0.01)
		assert.Equal(t, i == 0, r.Best, "only the caller order is marked best on a tie")
	}
}

func TestCompareHints_ReportsFailures(t *testing.T) {
	settings := defaultTestSettings()
	settings.MaxSide = 149

	reports, err := New(settings).CompareHints(context.Background(), exampleRects(), model.TryByArea)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.True(t, r.Failed)
		assert.False(t, r.Best)
		assert.Contains(t, r.Error, "ceiling")
	}
}

func TestCompareHints_InvalidInput(t *testing.T) {
	_, err := New(defaultTestSettings()).CompareHints(context.Background(), nil, model.FindBest)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
