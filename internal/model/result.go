package model

// Placement is the position assigned to one requested rectangle.
type Placement struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
	X      int    `json:"x" yaml:"x"` // From the left edge
	Y      int    `json:"y" yaml:"y"` // From the top edge
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

func (p Placement) Right() int {
	return p.X + p.Width
}

func (p Placement) Bottom() int {
	return p.Y + p.Height
}

// Overlaps returns true if the two placements share any area (touching edges
// do not count).
func (p Placement) Overlaps(o Placement) bool {
	return p.X < o.Right() && o.X < p.Right() &&
		p.Y < o.Bottom() && o.Y < p.Bottom()
}

// PackResult is the winning layout of a pack run.
type PackResult struct {
	Width      int         `json:"width" yaml:"width"`
	Height     int         `json:"height" yaml:"height"`
	Hint       Hint        `json:"hint" yaml:"hint"` // Ordering that won; None means caller order
	Refined    bool        `json:"refined,omitempty" yaml:"refined,omitempty"`
	Attempts   int         `json:"attempts" yaml:"attempts"`
	Placements []Placement `json:"placements" yaml:"placements"` // Same order as the input
}

// Area returns the bounding box area.
func (r PackResult) Area() uint64 {
	return uint64(r.Width) * uint64(r.Height)
}

func (r PackResult) Perimeter() uint64 {
	return 2 * (uint64(r.Width) + uint64(r.Height))
}

// UsedArea returns the total area covered by placed rectangles.
func (r PackResult) UsedArea() uint64 {
	var total uint64
	for _, p := range r.Placements {
		total += uint64(p.Width) * uint64(p.Height)
	}
	return total
}

// Efficiency returns the used percentage of the bounding box.
func (r PackResult) Efficiency() float64 {
	area := r.Area()
	if area == 0 {
		return 0
	}
	return float64(r.UsedArea()) / float64(area) * 100.0
}

// Lookup finds the placement for the given ID.
func (r PackResult) Lookup(id string) (Placement, bool) {
	for _, p := range r.Placements {
		if p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}
