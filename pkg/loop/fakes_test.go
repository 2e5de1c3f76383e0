package loop

import (
	"fmt"
	"sort"
	"time"
)

// fakeTransport records calls in order.
type fakeTransport struct {
	playing   bool
	loop      bool
	loopStart float64
	loopEnd   float64
	tempo     float64
	position  float64
	calls     []string
}

func (f *fakeTransport) IsPlaying() bool { return f.playing }

func (f *fakeTransport) Pause() {
	f.playing = false
	f.calls = append(f.calls, "pause")
}

func (f *fakeTransport) Stop() {
	f.playing = false
	f.position = 0
	f.calls = append(f.calls, "stop")
}

func (f *fakeTransport) SeekTo(seconds float64) {
	f.position = seconds
	f.calls = append(f.calls, fmt.Sprintf("seek %g", seconds))
}

func (f *fakeTransport) SetLoop(enabled bool) {
	f.loop = enabled
	f.calls = append(f.calls, fmt.Sprintf("loop %v", enabled))
}

func (f *fakeTransport) SetLoopBounds(start, end float64) {
	f.loopStart, f.loopEnd = start, end
	f.calls = append(f.calls, fmt.Sprintf("bounds %g %g", start, end))
}

func (f *fakeTransport) SetTempo(qpm float64) {
	f.tempo = qpm
	f.calls = append(f.calls, fmt.Sprintf("tempo %g", qpm))
}

// fakeSelection is a set of note indexes.
type fakeSelection struct {
	set map[int]bool
}

func newFakeSelection(indexes ...int) *fakeSelection {
	s := &fakeSelection{set: make(map[int]bool)}
	s.Add(indexes...)
	return s
}

func (s *fakeSelection) Selected() []int {
	out := make([]int, 0, len(s.set))
	for idx := range s.set {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func (s *fakeSelection) Add(indexes ...int) {
	for _, idx := range indexes {
		s.set[idx] = true
	}
}

func (s *fakeSelection) Remove(indexes ...int) {
	for _, idx := range indexes {
		delete(s.set, idx)
	}
}

// threeNotes are consecutive one-second notes, 26px per second.
func threeNotes() []NoteSpan {
	return []NoteSpan{
		{Index: 0, Start: 0, End: 1, X: 0, Width: 25},
		{Index: 1, Start: 1, End: 2, X: 26, Width: 25},
		{Index: 2, Start: 2, End: 3, X: 52, Width: 25},
	}
}

func newTestController(viewWidth float64) (*Controller, *fakeTransport, *fakeSelection) {
	tr := &fakeTransport{}
	sel := newFakeSelection()
	cfg := DefaultConfig()
	cfg.ViewWidth = viewWidth
	cfg.CorrectionDelay = 5 * time.Millisecond
	c := NewController(cfg, tr, sel)
	return c, tr, sel
}
