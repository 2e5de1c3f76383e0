package loop

import "sort"

// DefaultMinWidth is the narrowest the loop region may be, in pixels.
const DefaultMinWidth = 50

// Handle identifies a draggable part of the loop region.
type Handle int

const (
	HandleBody Handle = iota
	HandleLeft
	HandleRight
)

func (h Handle) String() string {
	switch h {
	case HandleLeft:
		return "left"
	case HandleRight:
		return "right"
	}
	return "body"
}

// NoteSpan is a note's time interval and its horizontal pixel span.
type NoteSpan struct {
	Index int
	Start float64 // seconds
	End   float64 // seconds
	X     float64
	Width float64
}

// Right returns the right pixel edge of the note.
func (n NoteSpan) Right() float64 {
	return n.X + n.Width
}

// Region is the loop rectangle in pixel space. Bound is the right limit of
// the draggable area; zero leaves it unbounded.
type Region struct {
	X        float64
	Width    float64
	MinWidth float64
	Bound    float64
}

// Right returns the right edge of the region.
func (r Region) Right() float64 {
	return r.X + r.Width
}

// TooNarrow reports whether the region is below its minimum width.
func (r Region) TooNarrow() bool {
	return r.Width < r.MinWidth
}

// NeedsCorrection reports whether r must be widened back to its minimum.
func NeedsCorrection(r Region) bool {
	return r.TooNarrow()
}

// Drag returns the region after moving handle h by dx pixels.
//
// The left handle moves x and keeps the right edge fixed; x stops at 0.
// The right handle changes only the width. The body moves both edges.
func Drag(r Region, h Handle, dx float64) Region {
	switch h {
	case HandleLeft:
		right := r.Right()
		x := r.X + dx
		if x <= 0 {
			x = 0
		}
		if x > right {
			x = right
		}
		r.X, r.Width = x, right-x
	case HandleRight:
		w := r.Width + dx
		if w < 0 {
			w = 0
		}
		if r.Bound > 0 && r.X+w > r.Bound {
			w = r.Bound - r.X
		}
		r.Width = w
	case HandleBody:
		x := r.X + dx
		if r.Bound > 0 && x+r.Width > r.Bound {
			x = r.Bound - r.Width
		}
		if x < 0 {
			x = 0
		}
		r.X = x
	}
	return r
}

// Correct pushes the edge that h moved back out until the region is exactly
// MinWidth wide. The opposite edge stays where it is.
func Correct(r Region, h Handle) Region {
	if r.Width >= r.MinWidth {
		return r
	}
	diff := r.MinWidth - r.Width
	if h == HandleLeft {
		r.X -= diff
	}
	r.Width = r.MinWidth
	return r
}

// InRegion returns the indexes of spans lying fully inside [x1, x2], in
// index order.
func InRegion(spans []NoteSpan, x1, x2 float64) []int {
	var in []int
	for _, s := range spans {
		if s.X >= x1 && s.Right() <= x2 {
			in = append(in, s.Index)
		}
	}
	sort.Ints(in)
	return in
}
