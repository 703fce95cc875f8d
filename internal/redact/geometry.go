package redact

import (
	"fmt"
	"math"
	"sort"
)

// Rect is a region in page space. The origin is the top-left corner of the
// page as displayed, after cropping and rotation, and y grows downwards.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// Intersects reports whether r and o share a region of positive area.
func (r Rect) Intersects(o Rect) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return r.X0 < o.X1 && o.X0 < r.X1 && r.Y0 < o.Y1 && o.Y0 < r.Y1
}

// Union returns the smallest rectangle containing r and o. An empty operand
// is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return !r.IsEmpty() && r.X0 <= o.X0 && r.Y0 <= o.Y0 && o.X1 <= r.X1 && o.Y1 <= r.Y1
}

// Inset shrinks r by the fraction f of its size on every side.
func (r Rect) Inset(f float64) Rect {
	dx, dy := r.Width()*f, r.Height()*f
	return Rect{X0: r.X0 + dx, Y0: r.Y0 + dy, X1: r.X1 - dx, Y1: r.Y1 - dy}
}

func (r Rect) String() string {
	return fmt.Sprintf("[%.1f %.1f %.1f %.1f]", r.X0, r.Y0, r.X1, r.Y1)
}

// FixedRegions returns the header and footer bands of a page: full width,
// headerHeight from the top and footerHeight from the bottom.
func FixedRegions(width, height, headerHeight, footerHeight float64) (header, footer Rect) {
	header = Rect{X0: 0, Y0: 0, X1: width, Y1: math.Min(headerHeight, height)}
	footer = Rect{X0: 0, Y0: math.Max(height-footerHeight, 0), X1: width, Y1: height}
	return header, footer
}

// SortRects orders rectangles by top edge, then left edge.
func SortRects(rects []Rect) {
	sort.SliceStable(rects, func(i, j int) bool {
		if rects[i].Y0 != rects[j].Y0 {
			return rects[i].Y0 < rects[j].Y0
		}
		return rects[i].X0 < rects[j].X0
	})
}

// FilterMatches sorts match rectangles by (top, left) and drops every one
// that intersects the header or footer, since those bands are blanked anyway.
// The input slice is not modified.
func FilterMatches(matches []Rect, header, footer Rect) []Rect {
	sorted := make([]Rect, len(matches))
	copy(sorted, matches)
	SortRects(sorted)

	kept := sorted[:0]
	for _, m := range sorted {
		if header.Intersects(m) || footer.Intersects(m) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}
