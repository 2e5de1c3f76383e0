// Package loop keeps a selected note range, the draggable loop region and
// the transport's loop bounds consistent with each other.
package loop

import (
	"log/slog"
	"sort"
	"time"

	"github.com/bep/debounce"
	"github.com/zurustar/pianoroll/pkg/logger"
)

// DefaultCorrectionDelay lets an in-flight drag settle before a too-narrow
// region is widened again.
const DefaultCorrectionDelay = 200 * time.Millisecond

// Transport is the playback engine the controller sets loop bounds on.
type Transport interface {
	IsPlaying() bool
	Pause()
	Stop()
	SeekTo(seconds float64)
	SetLoop(enabled bool)
	SetLoopBounds(start, end float64)
	SetTempo(qpm float64)
}

// Selection is the set of selected notes, by note index.
type Selection interface {
	Selected() []int
	Add(indexes ...int)
	Remove(indexes ...int)
}

// Config configures a Controller.
type Config struct {
	MinWidth        float64
	CorrectionDelay time.Duration
	ViewWidth       float64 // initial region width and drag bound
}

// DefaultConfig returns the standard controller configuration.
func DefaultConfig() Config {
	return Config{
		MinWidth:        DefaultMinWidth,
		CorrectionDelay: DefaultCorrectionDelay,
	}
}

// DragState tracks the drag interaction of one handle.
type DragState struct {
	Handle    Handle
	Active    bool
	Cancelled bool
}

// Controller is the loop range controller. All methods except the debounce
// callback run on the UI goroutine.
type Controller struct {
	cfg       Config
	log       *slog.Logger
	transport Transport
	selection Selection

	spans   []NoteSpan
	byIndex map[int]NoteSpan

	region  Region
	enabled bool
	visible bool
	drag    DragState

	hasBounds  bool
	loopStart  float64
	loopEnd    float64
	generation uint64

	debounced   func(f func())
	corrections correctionQueue
}

// NewController creates a controller with looping off and the region hidden.
func NewController(cfg Config, transport Transport, selection Selection) *Controller {
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = DefaultMinWidth
	}
	if cfg.CorrectionDelay <= 0 {
		cfg.CorrectionDelay = DefaultCorrectionDelay
	}
	c := &Controller{
		cfg:       cfg,
		log:       logger.For("loop"),
		transport: transport,
		selection: selection,
		byIndex:   make(map[int]NoteSpan),
		debounced: debounce.New(cfg.CorrectionDelay),
	}
	c.region = c.initialRegion()
	return c
}

func (c *Controller) initialRegion() Region {
	w := c.cfg.ViewWidth
	if w < c.cfg.MinWidth {
		w = c.cfg.MinWidth
	}
	return Region{X: 0, Width: w, MinWidth: c.cfg.MinWidth, Bound: c.cfg.ViewWidth}
}

// SetNotes replaces the note geometry.
func (c *Controller) SetNotes(spans []NoteSpan) {
	c.spans = make([]NoteSpan, len(spans))
	copy(c.spans, spans)
	sort.SliceStable(c.spans, func(i, j int) bool { return c.spans[i].Index < c.spans[j].Index })

	clear(c.byIndex)
	for _, s := range c.spans {
		c.byIndex[s.Index] = s
	}
}

// SetViewWidth changes the drag bound; the region is clamped into it.
func (c *Controller) SetViewWidth(w float64) {
	c.cfg.ViewWidth = w
	c.region.Bound = w
	if w > 0 && c.region.Right() > w {
		c.region = Drag(c.region, HandleBody, 0)
	}
}

// Region returns the current loop region geometry.
func (c *Controller) Region() Region {
	return c.region
}

// Enabled reports whether loop mode is on.
func (c *Controller) Enabled() bool {
	return c.enabled
}

// Visible reports whether the loop region UI is shown.
func (c *Controller) Visible() bool {
	return c.visible
}

// Drag returns the current drag interaction state.
func (c *Controller) Drag() DragState {
	return c.drag
}

// Bounds returns the loop bounds last applied to the transport.
func (c *Controller) Bounds() (start, end float64, ok bool) {
	return c.loopStart, c.loopEnd, c.hasBounds
}

// ApplyLoopFromSelection loops the transport over the span from the
// lowest-index selected note's start to the highest-index note's end.
// The order of sel does not matter. An empty selection, or one whose span
// collapses to a point, leaves the bounds unchanged.
func (c *Controller) ApplyLoopFromSelection(sel []int) bool {
	first, last, ok := c.endpointsByIndex(sel)
	if !ok {
		return false
	}
	return c.applyBounds(first.Start, last.End)
}

// SelectionChanged handles a completed rubber-band selection. In loop mode
// the region is moved over the selected notes, then the loop is applied as
// ApplyLoopFromSelection does.
func (c *Controller) SelectionChanged(sel []int) bool {
	first, last, ok := c.endpointsByIndex(sel)
	if !ok {
		return false
	}
	if c.enabled && !c.drag.Active {
		c.region = c.fitRegion(first.X, max(first.Right(), last.Right()))
	}
	return c.applyBounds(first.Start, last.End)
}

// fitRegion returns a region covering [x1, x2], widened to MinWidth and kept
// inside the drag bounds.
func (c *Controller) fitRegion(x1, x2 float64) Region {
	r := c.region
	r.X, r.Width = x1, max(x2-x1, r.MinWidth)
	if r.Bound > 0 && r.Right() > r.Bound {
		r.X = r.Bound - r.Width
	}
	if r.X < 0 {
		r.X = 0
	}
	return r
}

func (c *Controller) endpointsByIndex(sel []int) (first, last NoteSpan, ok bool) {
	for _, idx := range sel {
		s, known := c.byIndex[idx]
		if !known {
			continue
		}
		if !ok || s.Index < first.Index {
			first = s
		}
		if !ok || s.Index > last.Index {
			last = s
		}
		ok = true
	}
	return first, last, ok
}

// applyBounds pauses a playing transport, sets the bounds and seeks to the
// end and then the start. Seeking to the end first makes the transport
// refresh its position even when start lies behind the current one.
func (c *Controller) applyBounds(start, end float64) bool {
	if end <= start {
		c.log.Debug("loop span collapsed, bounds unchanged", "start", start, "end", end)
		return false
	}

	c.transport.SetLoop(true)
	if c.transport.IsPlaying() {
		c.transport.Pause()
	}
	c.transport.SetLoopBounds(start, end)
	c.transport.SeekTo(end)
	c.transport.SeekTo(start)

	c.loopStart, c.loopEnd, c.hasBounds = start, end, true
	c.log.Debug("loop bounds applied", "start", start, "end", end)
	return true
}

// ApplyLoopFromRegion selects the notes lying fully inside the region,
// deselects the rest and loops over the selection.
func (c *Controller) ApplyLoopFromRegion() []int {
	in := InRegion(c.spans, c.region.X, c.region.Right())

	inside := make(map[int]bool, len(in))
	for _, idx := range in {
		inside[idx] = true
	}
	out := make([]int, 0, len(c.spans)-len(in))
	for _, s := range c.spans {
		if !inside[s.Index] {
			out = append(out, s.Index)
		}
	}

	c.selection.Remove(out...)
	c.selection.Add(in...)
	c.ApplyLoopFromSelection(in)
	return in
}

// BeginDrag starts dragging handle h. It fails when loop mode is off.
func (c *Controller) BeginDrag(h Handle) bool {
	if !c.enabled {
		return false
	}
	c.drag = DragState{Handle: h, Active: true}
	return true
}

// DragBy moves the dragged handle by dx pixels and re-derives the loop. An
// edge drag that leaves the region narrower than MinWidth cancels the drag
// and schedules a correction.
func (c *Controller) DragBy(h Handle, dx float64) Region {
	if !c.drag.Active || c.drag.Handle != h {
		return c.region
	}

	c.region = Drag(c.region, h, dx)
	if h != HandleBody && NeedsCorrection(c.region) {
		c.drag.Active = false
		c.drag.Cancelled = true
		c.scheduleCorrection(h)
	}

	c.ApplyLoopFromRegion()
	return c.region
}

// EndDrag finishes the drag of handle h.
func (c *Controller) EndDrag(h Handle) {
	if c.drag.Handle == h {
		c.drag.Active = false
	}
}

func (c *Controller) scheduleCorrection(h Handle) {
	gen := c.generation
	c.log.Debug("region below minimum width, correction scheduled", "handle", h, "width", c.region.Width)
	c.debounced(func() {
		c.corrections.Push(correction{handle: h, generation: gen})
	})
}

// Update applies corrections whose debounce delay has elapsed. Call it once
// per frame on the UI goroutine.
func (c *Controller) Update() {
	for _, corr := range c.corrections.PopAll() {
		if corr.generation != c.generation || !c.enabled {
			continue
		}
		c.region = Correct(c.region, corr.handle)
		c.drag.Cancelled = false
		c.log.Debug("region width corrected", "handle", corr.handle, "x", c.region.X, "width", c.region.Width)
		c.ApplyLoopFromRegion()
	}
}

// PendingCorrections returns the number of corrections waiting for Update.
func (c *Controller) PendingCorrections() int {
	return c.corrections.Len()
}

// SetLoopEnabled turns loop mode on or off. Turning it on stops playback,
// clears the selection, resets and shows the region and enables looping.
// Turning it off clears the selection, hides the region and disables
// looping. Calling it with the current state only updates visibility.
func (c *Controller) SetLoopEnabled(flag bool) {
	if flag == c.enabled {
		c.visible = flag
		return
	}

	c.generation++
	c.drag = DragState{}
	c.clearBounds()
	if sel := c.selection.Selected(); len(sel) > 0 {
		c.selection.Remove(sel...)
	}

	if flag {
		if c.transport.IsPlaying() {
			c.transport.Stop()
		}
		c.region = c.initialRegion()
	}
	c.enabled = flag
	c.visible = flag
	c.transport.SetLoop(flag)

	c.log.Info("loop mode changed", "enabled", flag)
}

// Reset ends any drag in progress without touching loop mode. A correction
// still waiting on its debounce is applied at once.
func (c *Controller) Reset() {
	c.generation++
	h, cancelled := c.drag.Handle, c.drag.Cancelled
	c.drag = DragState{}
	if cancelled && c.enabled {
		c.region = Correct(c.region, h)
		c.ApplyLoopFromRegion()
	}
}

func (c *Controller) clearBounds() {
	c.loopStart, c.loopEnd, c.hasBounds = 0, 0, false
	c.transport.SetLoopBounds(0, 0)
}

// OnTempoChange sets the playback tempo and re-derives the loop from the
// current selection ordered by pixel position.
func (c *Controller) OnTempoChange(qpm float64) {
	c.transport.SetTempo(qpm)

	sel := c.selection.Selected()
	spans := make([]NoteSpan, 0, len(sel))
	for _, idx := range sel {
		if s, ok := c.byIndex[idx]; ok {
			spans = append(spans, s)
		}
	}
	if len(spans) == 0 {
		return
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].X < spans[j].X })
	c.applyBounds(spans[0].Start, spans[len(spans)-1].End)
}
