package sequence

import (
	"math"
	"sort"
)

// TempoEvent represents a tempo change in a MIDI file.
type TempoEvent struct {
	Tick          int64 // MIDI tick position
	MicrosPerBeat int   // Microseconds per quarter note
}

// QPM returns the tempo in quarter notes per minute.
func (t TempoEvent) QPM() float64 {
	return MicrosToQPM(t.MicrosPerBeat)
}

// MicrosToQPM converts microseconds per beat to quarter notes per minute.
func MicrosToQPM(micros int) float64 {
	if micros <= 0 {
		return 120
	}
	return 60000000.0 / float64(micros)
}

// QPMToMicros converts quarter notes per minute to microseconds per beat.
func QPMToMicros(qpm float64) int {
	if qpm <= 0 {
		return DefaultMicrosPerBeat
	}
	return int(math.Round(60000000.0 / qpm))
}

// TempoMap converts MIDI ticks to seconds considering tempo changes.
type TempoMap struct {
	ppq           int
	tempos        []TempoEvent
	secondsAtTick []float64 // seconds elapsed at each tempo change
}

// NewTempoMap creates a TempoMap. Tempos are sorted by tick and a default
// tempo is inserted at tick 0 when the first change starts later.
func NewTempoMap(ppq int, tempos []TempoEvent) *TempoMap {
	if ppq <= 0 {
		ppq = 480
	}
	sorted := make([]TempoEvent, len(tempos))
	copy(sorted, tempos)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Tick < sorted[j].Tick })

	if len(sorted) == 0 || sorted[0].Tick > 0 {
		sorted = append([]TempoEvent{{Tick: 0, MicrosPerBeat: DefaultMicrosPerBeat}}, sorted...)
	}

	tm := &TempoMap{ppq: ppq, tempos: sorted}
	tm.precalculate()
	return tm
}

func (tm *TempoMap) precalculate() {
	tm.secondsAtTick = make([]float64, len(tm.tempos))
	for i := 1; i < len(tm.tempos); i++ {
		prev := tm.tempos[i-1]
		ticks := tm.tempos[i].Tick - prev.Tick
		tm.secondsAtTick[i] = tm.secondsAtTick[i-1] + tm.ticksToSeconds(ticks, prev.MicrosPerBeat)
	}
}

// 1 tick = microsPerBeat / ppq microseconds
func (tm *TempoMap) ticksToSeconds(ticks int64, microsPerBeat int) float64 {
	return float64(ticks) * float64(microsPerBeat) / float64(tm.ppq) / 1000000.0
}

// SecondsAt returns the elapsed time at the given tick.
func (tm *TempoMap) SecondsAt(tick int64) float64 {
	if tick <= 0 {
		return 0
	}
	// last tempo change at or before tick
	i := sort.Search(len(tm.tempos), func(i int) bool { return tm.tempos[i].Tick > tick }) - 1
	if i < 0 {
		i = 0
	}
	t := tm.tempos[i]
	return tm.secondsAtTick[i] + tm.ticksToSeconds(tick-t.Tick, t.MicrosPerBeat)
}

// PPQ returns the ticks per quarter note.
func (tm *TempoMap) PPQ() int {
	return tm.ppq
}

// Tempos returns the normalized tempo list.
func (tm *TempoMap) Tempos() []TempoEvent {
	return tm.tempos
}
