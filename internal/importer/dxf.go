package importer

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

type point struct {
	x, y float64
}

// segment is a line between two points, used for chaining disconnected
// LINE and ARC entities into closed outlines.
type segment struct {
	start, end point
}

// bounds is an axis-aligned bounding box.
type bounds struct {
	min, max point
}

func newBounds() bounds {
	return bounds{
		min: point{math.Inf(1), math.Inf(1)},
		max: point{math.Inf(-1), math.Inf(-1)},
	}
}

func (b *bounds) add(p point) {
	b.min.x = math.Min(b.min.x, p.x)
	b.min.y = math.Min(b.min.y, p.y)
	b.max.x = math.Max(b.max.x, p.x)
	b.max.y = math.Max(b.max.y, p.y)
}

func (b bounds) size() (float64, float64) {
	return b.max.x - b.min.x, b.max.y - b.min.y
}

// ImportDXF imports rects from a DXF file. Each closed shape (LWPOLYLINE,
// CIRCLE, or chain of connected LINEs/ARCs) becomes one rect sized to its
// bounding box, rounded up to whole units.
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var shapes []bounds
	var segments []segment

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			if len(e.Vertices) < 3 {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
				continue
			}
			shapes = append(shapes, lwPolylineBounds(e))

		case *entity.Circle:
			b := newBounds()
			b.add(point{e.Center[0] - e.Radius, e.Center[1] - e.Radius})
			b.add(point{e.Center[0] + e.Radius, e.Center[1] + e.Radius})
			shapes = append(shapes, b)

		case *entity.Arc:
			segments = append(segments, arcSegments(e, 32)...)

		case *entity.Line:
			segments = append(segments, segment{
				start: point{e.Start[0], e.Start[1]},
				end:   point{e.End[0], e.End[1]},
			})
		}
	}

	for _, chain := range chainSegments(segments, 0.01) {
		b := newBounds()
		for _, p := range chain {
			b.add(p)
		}
		shapes = append(shapes, b)
	}

	if len(shapes) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i, b := range shapes {
		w, h := b.size()
		if w < 0.01 || h < 0.01 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f)", w, h))
			continue
		}
		id := fmt.Sprintf("%s-%d", base, i+1)
		result.Rects = append(result.Rects, expand(id, int(math.Ceil(w)), int(math.Ceil(h)), 1)...)
	}

	return result
}

// lwPolylineBounds returns the bounding box of a polyline. Bulged vertices
// are expanded into arc points so curved edges count.
func lwPolylineBounds(lw *entity.LwPolyline) bounds {
	b := newBounds()
	n := len(lw.Vertices)
	for i, v := range lw.Vertices {
		current := point{v[0], v[1]}
		b.add(current)

		if i < len(lw.Bulges) && math.Abs(lw.Bulges[i]) > 1e-9 {
			nv := lw.Vertices[(i+1)%n]
			for _, p := range bulgeArcPoints(current, point{nv[0], nv[1]}, lw.Bulges[i], 32) {
				b.add(p)
			}
		}
	}
	return b
}

// bulgeArcPoints generates points along an arc defined by two endpoints and a
// DXF bulge factor. The bulge is the tangent of 1/4 the included angle.
func bulgeArcPoints(p1, p2 point, bulge float64, numSegments int) []point {
	mx, my := (p1.x+p2.x)/2, (p1.y+p2.y)/2
	dx, dy := p2.x-p1.x, p2.y-p1.y
	chord := math.Hypot(dx, dy)
	if chord < 1e-9 {
		return []point{p1, p2}
	}

	sagitta := math.Abs(bulge) * chord / 2
	radius := (chord*chord/(4*sagitta) + sagitta) / 2

	// Center lies on the chord's perpendicular bisector
	perpX, perpY := -dy/chord, dx/chord
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	dist := radius - sagitta
	cx, cy := mx+perpX*dist, my+perpY*dist

	start := math.Atan2(p1.y-cy, p1.x-cx)
	end := math.Atan2(p2.y-cy, p2.x-cx)
	if bulge < 0 && end > start {
		end -= 2 * math.Pi
	} else if bulge > 0 && end < start {
		end += 2 * math.Pi
	}

	pts := make([]point, numSegments+1)
	for i := range pts {
		angle := start + float64(i)/float64(numSegments)*(end-start)
		pts[i] = point{cx + radius*math.Cos(angle), cy + radius*math.Sin(angle)}
	}
	return pts
}

// arcSegments approximates a DXF ARC entity with line segments.
func arcSegments(a *entity.Arc, numSegments int) []segment {
	cx, cy, r := a.Circle.Center[0], a.Circle.Center[1], a.Circle.Radius
	start := a.Angle[0] * math.Pi / 180
	end := a.Angle[1] * math.Pi / 180
	if end <= start {
		end += 2 * math.Pi
	}

	segs := make([]segment, 0, numSegments)
	prev := point{cx + r*math.Cos(start), cy + r*math.Sin(start)}
	for i := 1; i <= numSegments; i++ {
		angle := start + float64(i)/float64(numSegments)*(end-start)
		next := point{cx + r*math.Cos(angle), cy + r*math.Sin(angle)}
		segs = append(segs, segment{start: prev, end: next})
		prev = next
	}
	return segs
}

// chainSegments connects segments into closed outlines. Open chains are
// dropped. tolerance is the maximum distance between endpoints to consider
// them connected.
func chainSegments(segs []segment, tolerance float64) [][]point {
	used := make([]bool, len(segs))
	var outlines [][]point

	for startIdx := range segs {
		if used[startIdx] {
			continue
		}
		chain := []point{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		for extended := true; extended; {
			extended = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
				} else if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
				} else {
					continue
				}
				used[i] = true
				extended = true
				break
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, chain[:len(chain)-1])
		}
	}

	return outlines
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b point, tolerance float64) bool {
	return math.Hypot(a.x-b.x, a.y-b.y) <= tolerance
}
