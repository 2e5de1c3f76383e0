// Package player ties a decoded sequence, its piano-roll layout, the note
// selection and the loop controller to one playback transport.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/zurustar/pianoroll/pkg/logger"
	"github.com/zurustar/pianoroll/pkg/loop"
	"github.com/zurustar/pianoroll/pkg/pianoroll"
	"github.com/zurustar/pianoroll/pkg/selection"
	"github.com/zurustar/pianoroll/pkg/sequence"
	"github.com/zurustar/pianoroll/pkg/synth"
)

// AlertMessage is shown to the user when a MIDI file cannot be decoded.
const AlertMessage = "Failed to load MIDI file."

// Tempo limits in quarter notes per minute.
const (
	MinTempo = 1
	MaxTempo = 300
)

var (
	ErrLoadFailed = errors.New("failed to load MIDI file")
	ErrNotLoaded  = errors.New("no sequence loaded")
)

// Transport is the playback engine. *synth.Player implements it.
type Transport interface {
	loop.Transport
	Load(seq *sequence.Sequence) error
	Start(offset float64)
	Resume()
	State() synth.PlayState
	Position() float64
	ActiveNotes() []int
}

// Options configures a Player.
type Options struct {
	Autoplay        bool
	MinLoopWidth    float64
	ViewWidth       float64
	CorrectionDelay time.Duration
	Roll            pianoroll.Config
}

// Player is one interactive piano-roll player. Methods run on the UI
// goroutine.
type Player struct {
	id        uuid.UUID
	coord     *Coordinator
	transport Transport
	opts      Options
	log       *slog.Logger

	seq       *sequence.Sequence
	layout    *pianoroll.Layout
	selection *selection.Manager
	loop      *loop.Controller

	state  State
	tempo  int
	scroll float64
}

// New creates a player and registers it with coord.
func New(coord *Coordinator, transport Transport, opts Options) *Player {
	if opts.Roll == (pianoroll.Config{}) {
		opts.Roll = pianoroll.DefaultConfig()
	}
	p := &Player{
		coord:     coord,
		transport: transport,
		opts:      opts,
	}
	p.id = coord.Register(p)
	p.log = logger.For("player").With("player", p.id.String())
	return p
}

// ID returns the coordinator registration id.
func (p *Player) ID() uuid.UUID { return p.id }

// Close unregisters the player and stops playback.
func (p *Player) Close() {
	if p.seq != nil && p.state != Idle {
		p.transport.Stop()
	}
	p.state = Idle
	p.coord.Unregister(p.id)
}

// Load decodes the MIDI file at path and loads it. Any previous sequence is
// dropped first, so a failed load leaves nothing interactive.
func (p *Player) Load(path string) error {
	p.reset()
	seq, err := sequence.DecodeFile(path)
	if err != nil {
		p.log.Error("failed to decode MIDI file", "path", path, "error", err)
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return p.LoadSequence(seq)
}

// LoadSequence replaces the current sequence. On error the previous
// interactive state is discarded.
func (p *Player) LoadSequence(seq *sequence.Sequence) error {
	p.reset()
	if err := p.transport.Load(seq); err != nil {
		p.log.Error("failed to load sequence into transport", "error", err)
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	layout := pianoroll.NewLayout(seq, p.opts.Roll)
	sel := selection.NewManager()
	cfg := loop.DefaultConfig()
	if p.opts.MinLoopWidth > 0 {
		cfg.MinWidth = p.opts.MinLoopWidth
	}
	if p.opts.CorrectionDelay > 0 {
		cfg.CorrectionDelay = p.opts.CorrectionDelay
	}
	cfg.ViewWidth = layout.Width()
	ctrl := loop.NewController(cfg, p.transport, sel)
	ctrl.SetNotes(layout.Spans())

	sel.Subscribe(func(indexes []int) {
		if len(indexes) == 0 {
			return
		}
		ctrl.SelectionChanged(indexes)
	})

	p.seq = seq
	p.layout = layout
	p.selection = sel
	p.loop = ctrl
	p.tempo = int(math.Round(seq.DefaultQPM()))

	p.log.Info("sequence loaded",
		"title", seq.Title,
		"notes", len(seq.Notes),
		"duration", seq.Duration,
		"tempo", p.tempo)

	if p.opts.Autoplay {
		return p.Play()
	}
	return nil
}

func (p *Player) reset() {
	if p.seq != nil && p.state != Idle {
		p.transport.Stop()
	}
	p.seq, p.layout, p.selection, p.loop = nil, nil, nil, nil
	p.state = Idle
	p.scroll = 0
	p.tempo = 0
}

// Loaded reports whether a sequence is loaded.
func (p *Player) Loaded() bool { return p.seq != nil }

// Sequence returns the loaded sequence, or nil.
func (p *Player) Sequence() *sequence.Sequence { return p.seq }

// Layout returns the piano-roll layout, or nil.
func (p *Player) Layout() *pianoroll.Layout { return p.layout }

// LoopController returns the loop controller, or nil.
func (p *Player) LoopController() *loop.Controller { return p.loop }

// Selection returns the selection manager, or nil.
func (p *Player) Selection() *selection.Manager { return p.selection }

// State returns the presentation state.
func (p *Player) State() State { return p.state }

// IsPlaying reports whether the player is playing.
func (p *Player) IsPlaying() bool { return p.state == Playing }

// Tempo returns the tempo field value.
func (p *Player) Tempo() int { return p.tempo }

// Play starts or resumes playback. Other players are stopped first.
func (p *Player) Play() error {
	if p.seq == nil {
		return ErrNotLoaded
	}
	if n := p.coord.RequestPlay(p); n > 0 {
		p.log.Debug("stopped other players", "count", n)
	}

	if p.state == Paused {
		p.transport.Resume()
	} else {
		offset := 0.0
		if p.loop.Enabled() {
			if start, _, ok := p.loop.Bounds(); ok {
				offset = start
			}
		}
		p.transport.Start(offset)
	}
	p.state = Playing
	return nil
}

// Pause pauses playback.
func (p *Player) Pause() {
	if p.state != Playing {
		return
	}
	p.transport.Pause()
	p.state = Paused
}

// TogglePlay plays when not playing and pauses otherwise.
func (p *Player) TogglePlay() error {
	if p.state == Playing {
		p.Pause()
		return nil
	}
	return p.Play()
}

// Rewind stops playback, ends any loop drag and scrolls back to the start.
func (p *Player) Rewind() {
	if p.seq == nil {
		return
	}
	if p.state != Idle {
		p.transport.Stop()
	}
	p.loop.Reset()
	p.state = Idle
	p.scroll = 0
}

// ToggleLoop switches loop mode. Playback is stopped first.
func (p *Player) ToggleLoop() {
	if p.seq == nil {
		return
	}
	if p.state != Idle {
		p.transport.Stop()
		p.state = Idle
	}
	p.loop.SetLoopEnabled(!p.loop.Enabled())
}

// SetTempo clamps qpm to the tempo range, applies it and returns the value
// used.
func (p *Player) SetTempo(qpm int) int {
	if p.seq == nil {
		return 0
	}
	qpm = min(max(qpm, MinTempo), MaxTempo)
	p.tempo = qpm
	p.loop.OnTempoChange(float64(qpm))
	return qpm
}

// SelectArea completes a rubber-band selection over area in roll
// coordinates.
func (p *Player) SelectArea(area selection.Rect, additive bool) []int {
	if p.seq == nil {
		return nil
	}
	return p.selection.SelectArea(area, p.layout.Selectables(), additive)
}

// SelectAt completes a click at (x, y) in roll coordinates. The note under
// the point becomes the selection, or joins it when additive is set. A click
// on empty space clears a non-additive selection.
func (p *Player) SelectAt(x, y float64, additive bool) []int {
	if p.seq == nil {
		return nil
	}
	var hits []int
	if idx, ok := p.layout.Hit(x, y); ok {
		hits = append(hits, idx)
	}
	return p.selection.Select(hits, additive)
}

// SetViewWidth sets the visible roll width used for scrolling.
func (p *Player) SetViewWidth(w float64) {
	p.opts.ViewWidth = w
}

// Scroll returns the horizontal scroll offset.
func (p *Player) Scroll() float64 { return p.scroll }

// ScrollBy moves the view by dx pixels.
func (p *Player) ScrollBy(dx float64) {
	if p.layout == nil {
		return
	}
	p.scroll = p.layout.ClampScroll(p.scroll+dx, p.opts.ViewWidth)
}

// Update applies due loop corrections, follows transport state changes and
// keeps the playhead in view. Call it once per frame.
func (p *Player) Update() {
	if p.seq == nil {
		return
	}
	p.loop.Update()

	switch ts := p.transport.State(); {
	case p.state == Playing && ts == synth.Paused:
		p.state = Paused
	case p.state != Idle && ts == synth.Stopped:
		p.log.Debug("playback finished")
		p.state = Idle
	}

	if p.state == Playing && p.opts.ViewWidth > 0 {
		x := p.layout.X(p.transport.Position())
		p.scroll = p.layout.ClampScroll(pianoroll.ScrollFor(x, p.opts.ViewWidth, p.scroll), p.opts.ViewWidth)
	}
}

// View derives the presentation for the current frame.
func (p *Player) View() View {
	v := View{
		State:     p.state,
		ShowPlay:  p.state != Playing,
		ShowPause: p.state == Playing,
		Tempo:     p.tempo,
		Scroll:    p.scroll,
	}
	if p.seq == nil {
		return v
	}
	v.LoopActive = p.loop.Enabled()
	v.RegionVisible = p.loop.Visible()
	v.Region = p.loop.Region()
	v.Playhead = p.layout.X(p.transport.Position())
	v.Active = p.transport.ActiveNotes()
	v.Selected = p.selection.Selected()
	return v
}

// stopForOther is called by the coordinator when another player starts.
func (p *Player) stopForOther() {
	p.transport.Stop()
	p.state = Idle
	p.log.Info("stopped by another player")
}
