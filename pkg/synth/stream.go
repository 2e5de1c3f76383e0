package synth

import (
	"encoding/binary"
	"sync"
)

// BlockFrames is the number of frames rendered between transport updates.
const BlockFrames = 64

// Renderer renders stereo float samples. *meltysynth.Synthesizer implements it.
type Renderer interface {
	Render(left []float32, right []float32)
}

// Stream implements io.Reader for Ebitengine/audio. Each block advances the
// transport, then renders the synthesizer into 16-bit stereo PCM.
type Stream struct {
	mu        *sync.Mutex
	transport *Transport
	renderer  Renderer

	left, right []float32
	frames      int64
	closed      bool
}

// NewStream creates a stream. mu guards transport and is shared with its owner.
func NewStream(mu *sync.Mutex, transport *Transport, renderer Renderer) *Stream {
	return &Stream{
		mu:        mu,
		transport: transport,
		renderer:  renderer,
		left:      make([]float32, BlockFrames),
		right:     make([]float32, BlockFrames),
	}
}

// Read implements io.Reader interface for Stream.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 16-bit stereo = 4 bytes per frame
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}

	if s.closed {
		clear(p[:frames*4])
		return frames * 4, nil
	}

	for off := 0; off < frames; off += BlockFrames {
		n := min(BlockFrames, frames-off)
		s.transport.Advance(n)
		s.renderer.Render(s.left[:n], s.right[:n])

		for i := range n {
			l := int16(clamp(s.left[i], -1, 1) * 32767)
			r := int16(clamp(s.right[i], -1, 1) * 32767)
			at := (off + i) * 4
			binary.LittleEndian.PutUint16(p[at:], uint16(l))
			binary.LittleEndian.PutUint16(p[at+2:], uint16(r))
		}
	}
	s.frames += int64(frames)

	return frames * 4, nil
}

// Close makes further reads return silence without touching the transport.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// FrameCount returns the total number of frames rendered.
func (s *Stream) FrameCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// clamp restricts a value to the range [lo, hi].
func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
