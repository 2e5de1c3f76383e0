package synth

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/pianoroll/pkg/sequence"
)

type message struct {
	channel, command, data1, data2 int32
}

// recordingSink captures every message sent by a transport.
type recordingSink struct {
	messages []message
}

func (s *recordingSink) ProcessMidiMessage(channel, command, data1, data2 int32) {
	s.messages = append(s.messages, message{channel, command, data1, data2})
}

func (s *recordingSink) noteOns() []int32 {
	var keys []int32
	for _, m := range s.messages {
		if m.command == 0x90 && m.data2 > 0 {
			keys = append(keys, m.data1)
		}
	}
	return keys
}

func (s *recordingSink) reset() {
	s.messages = nil
}

// testSequence returns n consecutive one-second notes at 120 BPM starting
// at key 60, preceded by a program change on channel 0.
func testSequence(n int) *sequence.Sequence {
	seq := &sequence.Sequence{
		PPQ:      480,
		Tempos:   []sequence.TempoEvent{{Tick: 0, MicrosPerBeat: sequence.DefaultMicrosPerBeat}},
		Duration: float64(n),
	}
	seq.Events = append(seq.Events, sequence.Event{Command: 0xC0, Data1: 7, Note: -1})
	for i := 0; i < n; i++ {
		key := int32(60 + i)
		seq.Notes = append(seq.Notes, sequence.Note{Index: i, Key: uint8(key), StartTime: float64(i), EndTime: float64(i + 1)})
		seq.Events = append(seq.Events,
			sequence.Event{Time: float64(i), Command: 0x90, Data1: key, Data2: 100, Note: i},
			sequence.Event{Time: float64(i + 1), Command: 0x80, Data1: key, Note: i},
		)
	}
	return seq
}

const rate = 1000 // one frame per millisecond keeps arithmetic readable

func TestTransport_PlaysNotesInOrder(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTransport(testSequence(3), sink, rate)

	tr.Start(0)
	if !tr.IsPlaying() {
		t.Fatal("transport should be playing after Start")
	}

	tr.Advance(500)
	if got := sink.noteOns(); len(got) != 1 || got[0] != 60 {
		t.Fatalf("expected only key 60 after 0.5s, got %v", got)
	}
	if active := tr.ActiveNotes(); len(active) != 1 || active[0] != 0 {
		t.Errorf("expected note 0 active, got %v", active)
	}

	tr.Advance(1000)
	if got := sink.noteOns(); len(got) != 2 || got[1] != 61 {
		t.Fatalf("expected keys 60, 61 after 1.5s, got %v", got)
	}
	if active := tr.ActiveNotes(); len(active) != 1 || active[0] != 1 {
		t.Errorf("expected note 1 active, got %v", active)
	}
}

func TestTransport_StopsAtEnd(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTransport(testSequence(2), sink, rate)

	tr.Start(0)
	tr.Advance(2500)

	if tr.State() != Stopped {
		t.Errorf("expected stopped, got %v", tr.State())
	}
	if tr.Position() != 0 {
		t.Errorf("expected position 0 after end, got %v", tr.Position())
	}
	if got := sink.noteOns(); len(got) != 2 {
		t.Errorf("expected both notes played before stopping, got %v", got)
	}
	if active := tr.ActiveNotes(); len(active) != 0 {
		t.Errorf("expected no sounding notes after end, got %v", active)
	}
}

func TestTransport_PauseResume(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTransport(testSequence(3), sink, rate)

	tr.Start(0)
	tr.Advance(500)
	tr.Pause()

	if tr.State() != Paused {
		t.Fatalf("expected paused, got %v", tr.State())
	}
	if len(tr.ActiveNotes()) != 0 {
		t.Error("pause should release sounding notes")
	}

	pos := tr.Position()
	tr.Advance(1000)
	if tr.Position() != pos {
		t.Errorf("paused transport moved from %v to %v", pos, tr.Position())
	}

	tr.Resume()
	if !tr.IsPlaying() {
		t.Error("expected playing after Resume")
	}
}

func TestTransport_LoopWrapsToStart(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTransport(testSequence(4), sink, rate)
	tr.SetLoop(true)
	tr.SetLoopBounds(1, 3)

	tr.Start(1)
	tr.Advance(2500) // 1.0 -> 3.0 wraps -> 1.5

	if !tr.IsPlaying() {
		t.Fatal("looping transport should keep playing")
	}
	if pos := tr.Position(); pos < 1.49 || pos > 1.51 {
		t.Errorf("expected position 1.5, got %v", pos)
	}
	// keys 61, 62 in the first pass, then 61 again
	got := sink.noteOns()
	want := []int32{61, 62, 61}
	if len(got) != len(want) {
		t.Fatalf("expected note-ons %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected note-ons %v, got %v", want, got)
		}
	}
}

func TestTransport_LoopIgnoredWhenDegenerate(t *testing.T) {
	tr := NewTransport(testSequence(2), &recordingSink{}, rate)
	tr.SetLoop(true)
	tr.SetLoopBounds(1, 1)

	tr.Start(0)
	tr.Advance(2500)

	if tr.State() != Stopped {
		t.Errorf("degenerate loop should play through to the end, got %v", tr.State())
	}
}

func TestTransport_SeekSilencesAndChasesProgram(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTransport(testSequence(3), sink, rate)

	tr.SeekTo(1.5)
	if tr.Position() != 1.5 {
		t.Fatalf("expected position 1.5, got %v", tr.Position())
	}

	var allOff, program int
	for _, m := range sink.messages {
		if m.command == 0xB0 && (m.data1 == ccAllNotesOff || m.data1 == ccAllSoundOff) {
			allOff++
		}
		if m.command == 0xC0 && m.data1 == 7 {
			program++
		}
	}
	if allOff != 2*numChannels {
		t.Errorf("expected %d silence messages, got %d", 2*numChannels, allOff)
	}
	if program != 1 {
		t.Errorf("expected program change to be chased once, got %d", program)
	}

	// notes that began before the seek target are not re-triggered
	sink.reset()
	tr.Start(1.5)
	tr.Advance(100)
	if len(sink.noteOns()) != 0 {
		t.Errorf("expected no note-on right after seek, got %v", sink.noteOns())
	}
}

func TestTransport_SeekClamps(t *testing.T) {
	tr := NewTransport(testSequence(2), &recordingSink{}, rate)

	tr.SeekTo(-5)
	if tr.Position() != 0 {
		t.Errorf("expected 0, got %v", tr.Position())
	}
	tr.SeekTo(50)
	if tr.Position() != 2 {
		t.Errorf("expected duration 2, got %v", tr.Position())
	}
}

func TestTransport_TempoScalesClock(t *testing.T) {
	tr := NewTransport(testSequence(4), &recordingSink{}, rate)
	tr.SetTempo(240) // double the sequence tempo

	tr.Start(0)
	tr.Advance(500)

	if pos := tr.Position(); pos < 0.99 || pos > 1.01 {
		t.Errorf("expected position 1.0 at double speed, got %v", pos)
	}

	tr.SetTempo(0)
	if tr.Speed() != 2 {
		t.Errorf("non-positive tempo should be ignored, speed %v", tr.Speed())
	}
}

// Every note-on is eventually balanced by a note-off or a silence message,
// however the clock is chopped up.
func TestTransport_NoStuckNotesProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("active notes empty after playing to the end", prop.ForAll(
		func(steps []int) bool {
			tr := NewTransport(testSequence(5), &recordingSink{}, rate)
			tr.Start(0)
			for _, s := range steps {
				tr.Advance(s)
			}
			tr.Advance(10000)
			return tr.State() == Stopped && len(tr.ActiveNotes()) == 0
		},
		gen.SliceOf(gen.IntRange(1, 700)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
