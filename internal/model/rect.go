package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidSize is returned by Rect.Validate for non-positive dimensions.
var ErrInvalidSize = errors.New("rectangle size must be positive")

// Rect is a single packing request. Width and Height are fixed once created;
// the position is only set while an attempt places the rectangle.
type Rect struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`

	// SortKey is scratch space for the ordering pass.
	SortKey uint64 `json:"-" yaml:"-"`

	x, y   int
	placed bool
	seq    int
}

// NewRect creates a request with a generated short ID.
func NewRect(label string, w, h int) Rect {
	return Rect{
		ID:     uuid.New().String()[:8],
		Label:  label,
		Width:  w,
		Height: h,
	}
}

// NewRectID creates a request that keeps the caller's identifier.
func NewRectID(id string, w, h int) Rect {
	return Rect{ID: id, Label: id, Width: w, Height: h}
}

// Validate reports whether both sides are positive.
func (r Rect) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %q is %dx%d", ErrInvalidSize, r.ID, r.Width, r.Height)
	}
	return nil
}

// Name returns the label, or the ID when no label is set.
func (r Rect) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return r.ID
}

func (r Rect) Area() uint64 {
	return uint64(r.Width) * uint64(r.Height)
}

func (r Rect) Perimeter() uint64 {
	return 2 * (uint64(r.Width) + uint64(r.Height))
}

func (r Rect) BiggerSide() uint64 {
	if r.Width > r.Height {
		return uint64(r.Width)
	}
	return uint64(r.Height)
}

func (r Rect) smallerSide() uint64 {
	if r.Width < r.Height {
		return uint64(r.Width)
	}
	return uint64(r.Height)
}

// PathologicalMultiplier grows with both the aspect ratio and the area, so
// long thin slivers rank ahead of squares of the same area.
func (r Rect) PathologicalMultiplier() uint64 {
	ratio := (r.BiggerSide() + 1) / (r.smallerSide() + 1)
	return ratio * r.Area()
}

// SetPosition records the top-left corner assigned by the placement engine.
func (r *Rect) SetPosition(x, y int) {
	r.x, r.y = x, y
	r.placed = true
}

// ClearPosition marks the rectangle as unplaced.
func (r *Rect) ClearPosition() {
	r.x, r.y = 0, 0
	r.placed = false
}

// Position returns the assigned corner. ok is false until SetPosition is called.
func (r Rect) Position() (x, y int, ok bool) {
	return r.x, r.y, r.placed
}

func (r Rect) Placed() bool {
	return r.placed
}

// Seq is the rect's position in the slice it was cloned from.
func (r Rect) Seq() int {
	return r.seq
}

// CloneRects copies rects with positions and sort keys reset, so each packing
// attempt owns its own state. Each copy remembers its input position in Seq,
// which survives reordering.
func CloneRects(rects []Rect) []Rect {
	out := make([]Rect, len(rects))
	for i, r := range rects {
		r.SortKey = 0
		r.ClearPosition()
		r.seq = i
		out[i] = r
	}
	return out
}
