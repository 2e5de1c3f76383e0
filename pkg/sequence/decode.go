package sequence

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// DecodeFile reads and decodes the MIDI file at path.
func DecodeFile(path string) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMIDIFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Decode parses an SMF stream into a Sequence.
func Decode(r io.Reader) (seq *Sequence, err error) {
	// smf can panic on malformed input
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if rec := recover(); rec != nil {
			seq = nil
			err = fmt.Errorf("%w: %v", ErrInvalidMIDI, rec)
		}
	}()

	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMIDI, err)
	}

	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedTimeFormat, s.TimeFormat)
	}

	return build(s, int(ticks.Resolution())), nil
}

type builder struct {
	ppq      int
	title    string
	tempos   []TempoEvent
	notes    []Note
	events   []Event
	open     map[[2]uint8][]int // note ids awaiting a note-off
	lastTick int64
}

func build(s *smf.SMF, ppq int) *Sequence {
	b := &builder{
		ppq:  ppq,
		open: make(map[[2]uint8][]int),
	}

	for _, track := range s.Tracks {
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)
			b.handle(tick, ev.Message)
		}
		if tick > b.lastTick {
			b.lastTick = tick
		}
	}
	b.closeDangling()

	return b.finish()
}

func (b *builder) handle(tick int64, msg smf.Message) {
	var (
		ch, key, vel uint8
		bpm          float64
		text         string
	)

	switch {
	case msg.GetMetaTempo(&bpm):
		b.tempos = append(b.tempos, TempoEvent{Tick: tick, MicrosPerBeat: QPMToMicros(bpm)})
	case msg.GetMetaTrackName(&text):
		if b.title == "" {
			b.title = decodeText(text)
		}
	case msg.GetNoteStart(&ch, &key, &vel):
		id := len(b.notes)
		b.notes = append(b.notes, Note{Channel: ch, Key: key, Velocity: vel, StartTick: tick, EndTick: -1})
		k := [2]uint8{ch, key}
		b.open[k] = append(b.open[k], id)
	case msg.GetNoteEnd(&ch, &key):
		b.closeNote([2]uint8{ch, key}, tick)
	default:
		if len(msg) >= 2 && msg[0] >= 0xA0 && msg[0] < 0xF0 {
			// aftertouch, control change, program change, pitch bend
			e := Event{
				Tick:    tick,
				Channel: int32(msg[0] & 0x0F),
				Command: int32(msg[0] & 0xF0),
				Data1:   int32(msg[1]),
				Note:    -1,
			}
			if len(msg) >= 3 {
				e.Data2 = int32(msg[2])
			}
			b.events = append(b.events, e)
		}
	}
	if tick > b.lastTick {
		b.lastTick = tick
	}
}

// closeNote ends the oldest open note on (channel, key).
func (b *builder) closeNote(k [2]uint8, tick int64) {
	stack := b.open[k]
	if len(stack) == 0 {
		return
	}
	b.notes[stack[0]].EndTick = tick
	b.open[k] = stack[1:]
}

func (b *builder) closeDangling() {
	for k, stack := range b.open {
		for _, id := range stack {
			b.notes[id].EndTick = b.lastTick
		}
		delete(b.open, k)
	}
}

func (b *builder) finish() *Sequence {
	tm := NewTempoMap(b.ppq, b.tempos)

	notes := make([]Note, 0, len(b.notes))
	for _, n := range b.notes {
		if n.EndTick <= n.StartTick {
			continue
		}
		n.StartTime = tm.SecondsAt(n.StartTick)
		n.EndTime = tm.SecondsAt(n.EndTick)
		notes = append(notes, n)
	}
	sort.SliceStable(notes, func(i, j int) bool {
		a, c := notes[i], notes[j]
		if a.StartTick != c.StartTick {
			return a.StartTick < c.StartTick
		}
		if a.Key != c.Key {
			return a.Key < c.Key
		}
		return a.Channel < c.Channel
	})

	seq := &Sequence{
		Title:    b.title,
		PPQ:      b.ppq,
		Notes:    notes,
		Tempos:   tm.Tempos(),
		tempoMap: tm,
	}

	events := b.events
	for i := range notes {
		notes[i].Index = i
		n := notes[i]
		events = append(events,
			Event{Tick: n.StartTick, Channel: int32(n.Channel), Command: 0x90, Data1: int32(n.Key), Data2: int32(n.Velocity), Note: i},
			Event{Tick: n.EndTick, Channel: int32(n.Channel), Command: 0x80, Data1: int32(n.Key), Note: i},
		)
	}
	for i := range events {
		events[i].Time = tm.SecondsAt(events[i].Tick)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Tick != events[j].Tick {
			return events[i].Tick < events[j].Tick
		}
		return eventPriority(events[i]) < eventPriority(events[j])
	})
	seq.Events = events

	seq.Duration = tm.SecondsAt(b.lastTick)
	for _, n := range seq.Notes {
		seq.Duration = math.Max(seq.Duration, n.EndTime)
	}

	return seq
}

// At equal ticks: note-offs, then controllers and program changes, then note-ons.
func eventPriority(e Event) int {
	switch {
	case e.IsNoteOff():
		return 0
	case e.IsNoteOn():
		return 2
	}
	return 1
}
