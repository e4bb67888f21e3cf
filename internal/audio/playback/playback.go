// Package playback plays audio cues on the local sound device. Only the
// terminal client links it; the server serves cues as WAV files instead.
package playback

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/vladimirvolkov/penalty/internal/audio"
)

// Player plays cues on the local sound device through a shared mixer.
type Player struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	muted  bool
	closed bool
}

// NewPlayer opens the speaker. Callers without a sound device should
// log the error and carry on silent.
func NewPlayer() (*Player, error) {
	if err := speaker.Init(audio.SampleRate, audio.SampleRate.N(50*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("playback: speaker init: %w", err)
	}
	p := &Player{mixer: &beep.Mixer{}}
	speaker.Play(p.mixer)
	return p, nil
}

func (p *Player) Play(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.muted {
		return
	}
	s, err := audio.Cue(name, audio.SampleRate)
	if err != nil {
		log.Printf("AUDIO: %v", err)
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// SetMuted toggles playback and reports the new state.
func (p *Player) SetMuted(m bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = m
	return m
}

func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	speaker.Clear()
	speaker.Close()
}
