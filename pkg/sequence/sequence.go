// Package sequence decodes Standard MIDI Files into time-ordered notes and
// playback events for the piano roll and the softsynth transport.
package sequence

import "errors"

// DefaultMicrosPerBeat is the SMF default tempo (120 BPM).
const DefaultMicrosPerBeat = 500000

// ErrInvalidMIDI is returned when the data is not a decodable SMF.
var ErrInvalidMIDI = errors.New("invalid MIDI file format")

// ErrMIDIFileNotFound is returned when the MIDI file cannot be found.
var ErrMIDIFileNotFound = errors.New("MIDI file not found")

// ErrUnsupportedTimeFormat is returned for SMPTE-timed files.
var ErrUnsupportedTimeFormat = errors.New("unsupported MIDI time format")

// Note is a single sounding note. Index is its ordinal position in
// Sequence.Notes; index order matches start-time order.
type Note struct {
	Index     int
	Channel   uint8
	Key       uint8
	Velocity  uint8
	StartTick int64
	EndTick   int64
	StartTime float64 // seconds
	EndTime   float64 // seconds
}

// Duration returns the note length in seconds.
func (n Note) Duration() float64 {
	return n.EndTime - n.StartTime
}

// Event is a channel message scheduled for playback.
// Note is the index of the note an on/off event belongs to, or -1.
type Event struct {
	Tick    int64
	Time    float64
	Channel int32
	Command int32
	Data1   int32
	Data2   int32
	Note    int
}

// IsNoteOn reports whether the event starts a note.
func (e Event) IsNoteOn() bool {
	return e.Command == 0x90 && e.Data2 > 0
}

// IsNoteOff reports whether the event ends a note.
func (e Event) IsNoteOff() bool {
	return e.Command == 0x80 || (e.Command == 0x90 && e.Data2 == 0)
}

// Sequence is a decoded MIDI file.
type Sequence struct {
	Title    string
	PPQ      int
	Notes    []Note
	Events   []Event
	Tempos   []TempoEvent
	Duration float64 // seconds

	tempoMap *TempoMap
}

// DefaultQPM returns the initial tempo in quarter notes per minute.
func (s *Sequence) DefaultQPM() float64 {
	if len(s.Tempos) == 0 {
		return MicrosToQPM(DefaultMicrosPerBeat)
	}
	return s.Tempos[0].QPM()
}

// TempoMap returns the tick/seconds converter of the sequence.
func (s *Sequence) TempoMap() *TempoMap {
	if s.tempoMap == nil {
		s.tempoMap = NewTempoMap(s.PPQ, s.Tempos)
	}
	return s.tempoMap
}

// PitchRange returns the lowest and highest key used. An empty sequence
// reports middle C for both.
func (s *Sequence) PitchRange() (lo, hi uint8) {
	if len(s.Notes) == 0 {
		return 60, 60
	}
	lo, hi = 127, 0
	for _, n := range s.Notes {
		if n.Key < lo {
			lo = n.Key
		}
		if n.Key > hi {
			hi = n.Key
		}
	}
	return lo, hi
}
