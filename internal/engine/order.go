package engine

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/piwi3910/SpritePack/internal/model"
)

// SortKey returns the ordering metric of r for a single-criterion hint.
func SortKey(r model.Rect, h model.Hint) (uint64, error) {
	switch h {
	case model.TryByArea:
		return r.Area(), nil
	case model.TryByPerimeter:
		return r.Perimeter(), nil
	case model.TryByBiggerSide:
		return r.BiggerSide(), nil
	case model.TryByWidth:
		return uint64(r.Width), nil
	case model.TryByHeight:
		return uint64(r.Height), nil
	case model.TryByPathologicalMultiplier:
		return r.PathologicalMultiplier(), nil
	default:
		return 0, fmt.Errorf("%w: got %s", ErrInvalidHint, h)
	}
}

// ApplyOrdering assigns every rect its sort key for h and sorts the slice by
// descending key. Equal keys keep their current relative order. On error the
// slice is left untouched.
func ApplyOrdering(rects []model.Rect, h model.Hint) error {
	if !h.IsSingle() {
		return fmt.Errorf("%w: got %s", ErrInvalidHint, h)
	}
	for i := range rects {
		key, err := SortKey(rects[i], h)
		if err != nil {
			return err
		}
		rects[i].SortKey = key
	}
	slices.SortStableFunc(rects, func(a, b model.Rect) int {
		return cmp.Compare(b.SortKey, a.SortKey)
	})
	return nil
}
