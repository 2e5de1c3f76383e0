// Package synth plays decoded sequences through a SoundFont synthesizer
// (go-meltysynth) and Ebitengine/audio.
package synth

import (
	"sort"

	"github.com/zurustar/pianoroll/pkg/sequence"
)

// SampleRate is the audio sample rate used for MIDI synthesis.
const SampleRate = 44100

// PlayState is the transport state.
type PlayState int

const (
	Stopped PlayState = iota
	Started
	Paused
)

func (s PlayState) String() string {
	switch s {
	case Started:
		return "started"
	case Paused:
		return "paused"
	}
	return "stopped"
}

// Sink receives channel messages. *meltysynth.Synthesizer implements it.
type Sink interface {
	ProcessMidiMessage(channel int32, command int32, data1 int32, data2 int32)
}

const (
	ccAllSoundOff = 120
	ccAllNotesOff = 123
	numChannels   = 16
)

// Transport schedules sequence events against a sample clock. Position and
// loop bounds are seconds of sequence time; SetTempo scales how fast the
// clock moves through them. Transport is not safe for concurrent use.
type Transport struct {
	sink       Sink
	events     []sequence.Event
	duration   float64
	sampleRate int
	baseQPM    float64

	state    PlayState
	position float64
	cursor   int
	speed    float64

	loop      bool
	loopStart float64
	loopEnd   float64

	active map[int]struct{}
}

// NewTransport creates a stopped transport for seq that sends events to sink.
func NewTransport(seq *sequence.Sequence, sink Sink, sampleRate int) *Transport {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}
	return &Transport{
		sink:       sink,
		events:     seq.Events,
		duration:   seq.Duration,
		sampleRate: sampleRate,
		baseQPM:    seq.DefaultQPM(),
		speed:      1,
		active:     make(map[int]struct{}),
	}
}

// State returns the current play state.
func (t *Transport) State() PlayState {
	return t.state
}

// IsPlaying reports whether the transport is started.
func (t *Transport) IsPlaying() bool {
	return t.state == Started
}

// Position returns the current position in seconds.
func (t *Transport) Position() float64 {
	return t.position
}

// Duration returns the sequence length in seconds.
func (t *Transport) Duration() float64 {
	return t.duration
}

// Start begins playback at offset seconds.
func (t *Transport) Start(offset float64) {
	t.seek(offset)
	t.state = Started
}

// Stop halts playback and rewinds to 0.
func (t *Transport) Stop() {
	t.seek(0)
	t.state = Stopped
}

// Pause halts playback at the current position.
func (t *Transport) Pause() {
	if t.state != Started {
		return
	}
	t.notesOff(ccAllNotesOff)
	t.state = Paused
}

// Resume continues a paused transport.
func (t *Transport) Resume() {
	if t.state == Paused {
		t.state = Started
	}
}

// SeekTo moves the position without changing the play state.
func (t *Transport) SeekTo(seconds float64) {
	t.seek(seconds)
}

// SetLoop enables or disables looping between the loop bounds.
func (t *Transport) SetLoop(enabled bool) {
	t.loop = enabled
}

// Loop reports whether looping is enabled.
func (t *Transport) Loop() bool {
	return t.loop
}

// SetLoopBounds sets the loop region in seconds.
func (t *Transport) SetLoopBounds(start, end float64) {
	t.loopStart, t.loopEnd = start, end
}

// LoopBounds returns the loop region in seconds.
func (t *Transport) LoopBounds() (start, end float64) {
	return t.loopStart, t.loopEnd
}

// SetTempo sets the playback tempo in quarter notes per minute.
func (t *Transport) SetTempo(qpm float64) {
	if qpm <= 0 || t.baseQPM <= 0 {
		return
	}
	t.speed = qpm / t.baseQPM
}

// Speed returns the tempo ratio against the sequence's own tempo.
func (t *Transport) Speed() float64 {
	return t.speed
}

// ActiveNotes returns the indexes of currently sounding notes, sorted.
func (t *Transport) ActiveNotes() []int {
	out := make([]int, 0, len(t.active))
	for idx := range t.active {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func (t *Transport) loopValid() bool {
	return t.loop && t.loopEnd > t.loopStart
}

// Advance moves the clock forward by frames samples and dispatches every
// event that falls due.
func (t *Transport) Advance(frames int) {
	if t.state != Started || frames <= 0 {
		return
	}
	if t.loopValid() && t.position >= t.loopEnd {
		t.seek(t.loopStart)
	}
	target := t.position + float64(frames)/float64(t.sampleRate)*t.speed

	for t.loopValid() && t.position < t.loopEnd && target >= t.loopEnd {
		t.dispatchUntil(t.loopEnd)
		remainder := target - t.loopEnd
		length := t.loopEnd - t.loopStart
		for remainder >= length {
			remainder -= length
		}
		t.seek(t.loopStart)
		target = t.loopStart + remainder
	}

	if !t.loopValid() && target >= t.duration {
		t.dispatchUntil(t.duration + 1)
		t.seek(0)
		t.state = Stopped
		return
	}

	t.dispatchUntil(target)
	t.position = target
}

// dispatchUntil sends events with Time < limit.
func (t *Transport) dispatchUntil(limit float64) {
	for t.cursor < len(t.events) && t.events[t.cursor].Time < limit {
		ev := t.events[t.cursor]
		t.send(ev)
		switch {
		case ev.Note < 0:
		case ev.IsNoteOn():
			t.active[ev.Note] = struct{}{}
		case ev.IsNoteOff():
			delete(t.active, ev.Note)
		}
		t.cursor++
	}
	if limit > t.position {
		t.position = limit
	}
}

func (t *Transport) send(ev sequence.Event) {
	if t.sink != nil {
		t.sink.ProcessMidiMessage(ev.Channel, ev.Command, ev.Data1, ev.Data2)
	}
}

// seek silences every channel, re-sends the controller state in effect at
// seconds and positions the cursor on the first event at or after it. Notes
// that started earlier are not re-triggered.
func (t *Transport) seek(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if seconds > t.duration {
		seconds = t.duration
	}

	t.notesOff(ccAllSoundOff)
	t.notesOff(ccAllNotesOff)

	t.cursor = sort.Search(len(t.events), func(i int) bool { return t.events[i].Time >= seconds })
	t.chase()
	t.position = seconds
}

// chase replays the latest program, controller and pitch-bend values
// before the cursor.
func (t *Transport) chase() {
	type ctlKey struct{ ch, ctl int32 }
	programs := make(map[int32]sequence.Event)
	controls := make(map[ctlKey]sequence.Event)
	bends := make(map[int32]sequence.Event)
	var order []ctlKey

	for _, ev := range t.events[:t.cursor] {
		switch ev.Command {
		case 0xC0:
			programs[ev.Channel] = ev
		case 0xB0:
			k := ctlKey{ev.Channel, ev.Data1}
			if _, seen := controls[k]; !seen {
				order = append(order, k)
			}
			controls[k] = ev
		case 0xE0:
			bends[ev.Channel] = ev
		}
	}

	for ch := int32(0); ch < numChannels; ch++ {
		if ev, ok := programs[ch]; ok {
			t.send(ev)
		}
	}
	for _, k := range order {
		t.send(controls[k])
	}
	for ch := int32(0); ch < numChannels; ch++ {
		if ev, ok := bends[ch]; ok {
			t.send(ev)
		}
	}
}

func (t *Transport) notesOff(controller int32) {
	for ch := int32(0); ch < numChannels; ch++ {
		t.send(sequence.Event{Channel: ch, Command: 0xB0, Data1: controller})
	}
	clear(t.active)
}
