package player

import (
	"fmt"

	"github.com/zurustar/pianoroll/pkg/sequence"
	"github.com/zurustar/pianoroll/pkg/synth"
)

type fakeTransport struct {
	state     synth.PlayState
	position  float64
	loop      bool
	loopStart float64
	loopEnd   float64
	tempo     float64
	active    []int
	loadErr   error
	loaded    *sequence.Sequence
	calls     []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (f *fakeTransport) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeTransport) Load(seq *sequence.Sequence) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = seq
	f.state = synth.Stopped
	return nil
}

func (f *fakeTransport) Start(offset float64) {
	f.state = synth.Started
	f.position = offset
	f.record("start %g", offset)
}

func (f *fakeTransport) Stop() {
	f.state = synth.Stopped
	f.position = 0
	f.record("stop")
}

func (f *fakeTransport) Pause() {
	if f.state == synth.Started {
		f.state = synth.Paused
	}
	f.record("pause")
}

func (f *fakeTransport) Resume() {
	if f.state == synth.Paused {
		f.state = synth.Started
	}
	f.record("resume")
}

func (f *fakeTransport) SeekTo(seconds float64) {
	f.position = seconds
	f.record("seek %g", seconds)
}

func (f *fakeTransport) SetLoop(enabled bool) {
	f.loop = enabled
	f.record("loop %v", enabled)
}

func (f *fakeTransport) SetLoopBounds(start, end float64) {
	f.loopStart, f.loopEnd = start, end
	f.record("bounds %g %g", start, end)
}

func (f *fakeTransport) SetTempo(qpm float64) {
	f.tempo = qpm
	f.record("tempo %g", qpm)
}

func (f *fakeTransport) IsPlaying() bool { return f.state == synth.Started }
func (f *fakeTransport) State() synth.PlayState { return f.state }
func (f *fakeTransport) Position() float64 { return f.position }
func (f *fakeTransport) ActiveNotes() []int { return f.active }

// threeNoteSequence has one-second notes at 0, 1 and 2 seconds, laid out at
// x = 0, 26 and 52 with the default roll config.
func threeNoteSequence() *sequence.Sequence {
	return &sequence.Sequence{
		Title: "three",
		Notes: []sequence.Note{
			{Index: 0, Key: 60, StartTime: 0, EndTime: 1},
			{Index: 1, Key: 62, StartTime: 1, EndTime: 2},
			{Index: 2, Key: 64, StartTime: 2, EndTime: 3},
		},
		Tempos:   []sequence.TempoEvent{{Tick: 0, MicrosPerBeat: 500000}},
		Duration: 3,
	}
}

func newLoadedPlayer(coord *Coordinator, opts Options) (*Player, *fakeTransport) {
	tr := newFakeTransport()
	p := New(coord, tr, opts)
	if err := p.LoadSequence(threeNoteSequence()); err != nil {
		panic(err)
	}
	tr.calls = nil
	return p, tr
}
