// Package pianoroll lays decoded notes out on a piano-roll grid.
//
// Time runs along x in seconds scaled by PixelsPerTimeStep; pitch runs along
// y with the highest pitch at the top.
package pianoroll

import (
	"image/color"
	"math"
	"sort"

	"github.com/zurustar/pianoroll/pkg/loop"
	"github.com/zurustar/pianoroll/pkg/selection"
	"github.com/zurustar/pianoroll/pkg/sequence"
)

// ScrollMargin is how far left of the playhead the view lands when it
// has to catch up.
const ScrollMargin = 20

// Config controls note geometry and colours.
type Config struct {
	NoteHeight        float64
	PixelsPerTimeStep float64
	NoteSpacing       float64
	NoteRGB           color.RGBA
	ActiveNoteRGB     color.RGBA

	// MinPitch and MaxPitch bound the vertical range. Zero values are
	// replaced with the sequence's pitch range.
	MinPitch uint8
	MaxPitch uint8
}

// DefaultConfig returns the standard geometry.
func DefaultConfig() Config {
	return Config{
		NoteHeight:        6,
		PixelsPerTimeStep: 26,
		NoteSpacing:       1,
		NoteRGB:           color.RGBA{R: 218, G: 227, B: 229, A: 255},
		ActiveNoteRGB:     color.RGBA{R: 4, G: 8, B: 15, A: 255},
	}
}

// Rect is the on-screen box of one note.
type Rect struct {
	Index      int
	X, Y, W, H float64
}

// NoteIndex implements selection.Selectable.
func (r Rect) NoteIndex() int { return r.Index }

// Bounds implements selection.Selectable.
func (r Rect) Bounds() selection.Rect {
	return selection.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H}
}

// Contains reports whether the point lies inside the box.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Layout holds note rectangles for one sequence.
type Layout struct {
	cfg    Config
	notes  []sequence.Note
	rects  []Rect
	width  float64
	height float64
}

// NewLayout computes the box of every note in seq.
func NewLayout(seq *sequence.Sequence, cfg Config) *Layout {
	def := DefaultConfig()
	if cfg.NoteHeight <= 0 {
		cfg.NoteHeight = def.NoteHeight
	}
	if cfg.PixelsPerTimeStep <= 0 {
		cfg.PixelsPerTimeStep = def.PixelsPerTimeStep
	}
	if cfg.NoteSpacing < 0 {
		cfg.NoteSpacing = 0
	}
	if cfg.MinPitch == 0 && cfg.MaxPitch == 0 {
		cfg.MinPitch, cfg.MaxPitch = seq.PitchRange()
	}
	if cfg.MaxPitch < cfg.MinPitch {
		cfg.MinPitch, cfg.MaxPitch = cfg.MaxPitch, cfg.MinPitch
	}

	l := &Layout{
		cfg:    cfg,
		notes:  seq.Notes,
		rects:  make([]Rect, len(seq.Notes)),
		width:  seq.Duration * cfg.PixelsPerTimeStep,
		height: float64(int(cfg.MaxPitch)-int(cfg.MinPitch)+1) * cfg.NoteHeight,
	}
	for i, n := range seq.Notes {
		w := (n.EndTime-n.StartTime)*cfg.PixelsPerTimeStep - cfg.NoteSpacing
		l.rects[i] = Rect{
			Index: n.Index,
			X:     n.StartTime * cfg.PixelsPerTimeStep,
			Y:     float64(int(cfg.MaxPitch)-int(n.Key)) * cfg.NoteHeight,
			W:     math.Max(1, w),
			H:     cfg.NoteHeight,
		}
	}
	return l
}

// Config returns the effective configuration.
func (l *Layout) Config() Config { return l.cfg }

// Width returns the full roll width in pixels.
func (l *Layout) Width() float64 { return l.width }

// Height returns the full roll height in pixels.
func (l *Layout) Height() float64 { return l.height }

// Rects returns the note boxes in note order.
func (l *Layout) Rects() []Rect { return l.rects }

// X converts seconds to a roll x coordinate.
func (l *Layout) X(seconds float64) float64 {
	return seconds * l.cfg.PixelsPerTimeStep
}

// Spans returns the geometry the loop controller works on.
func (l *Layout) Spans() []loop.NoteSpan {
	spans := make([]loop.NoteSpan, len(l.rects))
	for i, r := range l.rects {
		spans[i] = loop.NoteSpan{
			Index: r.Index,
			Start: l.notes[i].StartTime,
			End:   l.notes[i].EndTime,
			X:     r.X,
			Width: r.W,
		}
	}
	return spans
}

// Selectables returns the boxes as rubber-band targets.
func (l *Layout) Selectables() []selection.Selectable {
	items := make([]selection.Selectable, len(l.rects))
	for i, r := range l.rects {
		items[i] = r
	}
	return items
}

// Hit returns the index of the topmost note under (x, y).
func (l *Layout) Hit(x, y float64) (int, bool) {
	for i := len(l.rects) - 1; i >= 0; i-- {
		if l.rects[i].Contains(x, y) {
			return l.rects[i].Index, true
		}
	}
	return 0, false
}

// Intersecting returns the sorted indexes of notes touching area.
func (l *Layout) Intersecting(area selection.Rect) []int {
	var out []int
	for _, r := range l.rects {
		if area.Intersects(r.Bounds()) {
			out = append(out, r.Index)
		}
	}
	sort.Ints(out)
	return out
}

// ClampScroll limits a horizontal scroll offset to the roll.
func (l *Layout) ClampScroll(scroll, viewWidth float64) float64 {
	maxScroll := math.Max(0, l.width-viewWidth)
	return math.Min(math.Max(0, scroll), maxScroll)
}

// ScrollFor returns the scroll offset that keeps playheadX visible. The
// view only moves once the playhead has left it.
func ScrollFor(playheadX, viewWidth, current float64) float64 {
	if playheadX >= current && playheadX <= current+viewWidth {
		return current
	}
	return math.Max(0, playheadX-ScrollMargin)
}
