package synth

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"
	"github.com/zurustar/pianoroll/pkg/sequence"
)

// ErrNoSoundFont is returned when no SoundFont file is provided.
var ErrNoSoundFont = errors.New("SoundFont file is required for MIDI playback")

// ErrSoundFontNotFound is returned when the SoundFont file cannot be found.
var ErrSoundFontNotFound = errors.New("SoundFont file not found")

// bufferSize keeps pause, seek and loop jumps audibly prompt.
const bufferSize = 60 * time.Millisecond

// Player is the softsynth transport for one sequence. The audio device reads
// the stream on its own goroutine, so every method takes the player lock.
//
// A Player without an audio context renders offline when Pump is called,
// which is how headless mode keeps time.
type Player struct {
	soundFont *meltysynth.SoundFont
	synth     *meltysynth.Synthesizer

	audioCtx *audio.Context
	output   *audio.Player

	transport *Transport
	stream    *Stream
	scratch   []byte
	muted     bool

	mu sync.Mutex
}

// LoadSoundFont reads and parses an .sf2 file.
func LoadSoundFont(path string) (*meltysynth.SoundFont, error) {
	if path == "" {
		return nil, ErrNoSoundFont
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSoundFontNotFound, path)
		}
		return nil, fmt.Errorf("failed to read SoundFont file: %w", err)
	}
	return ParseSoundFont(data)
}

// ParseSoundFont parses SoundFont data already in memory.
func ParseSoundFont(data []byte) (*meltysynth.SoundFont, error) {
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont: %w", err)
	}
	return sf, nil
}

// NewPlayer creates a player for soundFont. audioCtx may be nil for offline
// (headless) rendering.
func NewPlayer(soundFont *meltysynth.SoundFont, audioCtx *audio.Context) (*Player, error) {
	if soundFont == nil {
		return nil, ErrNoSoundFont
	}
	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}
	return &Player{
		soundFont: soundFont,
		synth:     synth,
		audioCtx:  audioCtx,
	}, nil
}

// Load replaces the current sequence. The new transport is stopped.
func (p *Player) Load(seq *sequence.Sequence) error {
	p.mu.Lock()
	oldStream, oldOutput := p.detachLocked()
	p.transport = NewTransport(seq, p.synth, SampleRate)
	p.stream = NewStream(&p.mu, p.transport, p.synth)
	p.mu.Unlock()

	closeOutput(oldStream, oldOutput)

	if p.audioCtx == nil {
		return nil
	}

	out, err := p.audioCtx.NewPlayer(p.stream)
	if err != nil {
		return fmt.Errorf("failed to create audio player: %w", err)
	}
	out.SetBufferSize(bufferSize)

	p.mu.Lock()
	p.output = out
	if p.muted {
		out.SetVolume(0)
	}
	p.mu.Unlock()

	out.Play()
	return nil
}

// Pump renders d worth of audio and discards it. It drives playback when
// there is no audio device.
func (p *Player) Pump(d time.Duration) {
	p.mu.Lock()
	stream := p.stream
	frames := int(d.Seconds() * SampleRate)
	if stream == nil || p.output != nil || frames <= 0 {
		p.mu.Unlock()
		return
	}
	if cap(p.scratch) < frames*4 {
		p.scratch = make([]byte, frames*4)
	}
	buf := p.scratch[:frames*4]
	p.mu.Unlock()

	stream.Read(buf)
}

// Close releases the audio output.
func (p *Player) Close() {
	p.mu.Lock()
	oldStream, oldOutput := p.detachLocked()
	p.stream, p.transport = nil, nil
	p.mu.Unlock()

	closeOutput(oldStream, oldOutput)
}

func (p *Player) detachLocked() (*Stream, *audio.Player) {
	stream, output := p.stream, p.output
	p.output = nil
	return stream, output
}

// closeOutput silences stream and closes output. Both take p.mu or wait on a
// device goroutine that does, so the caller must not hold it.
func closeOutput(stream *Stream, output *audio.Player) {
	if stream != nil {
		stream.Close()
	}
	if output != nil {
		output.Close()
	}
}

// SetMuted sets the muted state of the player.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
	if p.output != nil {
		if muted {
			p.output.SetVolume(0)
		} else {
			p.output.SetVolume(1)
		}
	}
}

// IsMuted returns whether the player is muted.
func (p *Player) IsMuted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *Player) with(fn func(t *Transport)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transport != nil {
		fn(p.transport)
	}
}

// Start begins playback at offset seconds.
func (p *Player) Start(offset float64) { p.with(func(t *Transport) { t.Start(offset) }) }

// Stop halts playback and rewinds.
func (p *Player) Stop() { p.with(func(t *Transport) { t.Stop() }) }

// Pause halts playback at the current position.
func (p *Player) Pause() { p.with(func(t *Transport) { t.Pause() }) }

// Resume continues after Pause.
func (p *Player) Resume() { p.with(func(t *Transport) { t.Resume() }) }

// SeekTo moves the playback position.
func (p *Player) SeekTo(seconds float64) { p.with(func(t *Transport) { t.SeekTo(seconds) }) }

// SetLoop enables or disables looping.
func (p *Player) SetLoop(enabled bool) { p.with(func(t *Transport) { t.SetLoop(enabled) }) }

// SetLoopBounds sets the loop region in seconds.
func (p *Player) SetLoopBounds(start, end float64) {
	p.with(func(t *Transport) { t.SetLoopBounds(start, end) })
}

// SetTempo sets the playback tempo in QPM.
func (p *Player) SetTempo(qpm float64) { p.with(func(t *Transport) { t.SetTempo(qpm) }) }

// IsPlaying reports whether playback is running.
func (p *Player) IsPlaying() bool {
	return p.State() == Started
}

// State returns the transport state.
func (p *Player) State() PlayState {
	state := Stopped
	p.with(func(t *Transport) { state = t.State() })
	return state
}

// Loop reports whether looping is enabled.
func (p *Player) Loop() bool {
	var loop bool
	p.with(func(t *Transport) { loop = t.Loop() })
	return loop
}

// LoopBounds returns the loop region in seconds.
func (p *Player) LoopBounds() (start, end float64) {
	p.with(func(t *Transport) { start, end = t.LoopBounds() })
	return start, end
}

// Position returns the playback position in seconds.
func (p *Player) Position() float64 {
	var pos float64
	p.with(func(t *Transport) { pos = t.Position() })
	return pos
}

// ActiveNotes returns the indexes of sounding notes.
func (p *Player) ActiveNotes() []int {
	var notes []int
	p.with(func(t *Transport) { notes = t.ActiveNotes() })
	return notes
}
