package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

const SampleRate = beep.SampleRate(44100)

var ErrUnknownCue = errors.New("audio: unknown cue")

type cueFunc func(rate beep.SampleRate) beep.Streamer

var cues = map[string]cueFunc{
	// Low thump with a burst of noise for the boot on the ball.
	"kick": func(rate beep.SampleRate) beep.Streamer {
		d := 140 * time.Millisecond
		thump := Envelope(Glide(150, 55, d, Sine, rate), d, 2*time.Millisecond, 100*time.Millisecond, rate)
		slap := note(0, 40*time.Millisecond, Noise, rate)
		return beep.Mix(gain(thump, 0.9), gain(slap, 0.35))
	},
	// Rising major arpeggio.
	"goal": func(rate beep.SampleRate) beep.Streamer {
		d := 110 * time.Millisecond
		return beep.Seq(
			gain(note(523.25, d, Square, rate), 0.3),
			gain(note(659.25, d, Square, rate), 0.3),
			gain(note(783.99, 2*d, Square, rate), 0.3),
		)
	},
	"save": func(rate beep.SampleRate) beep.Streamer {
		d := 180 * time.Millisecond
		return beep.Seq(
			gain(note(220, d, Saw, rate), 0.4),
			gain(note(165, d, Saw, rate), 0.4),
		)
	},
	"out": func(rate beep.SampleRate) beep.Streamer {
		d := 350 * time.Millisecond
		return gain(Envelope(Glide(440, 260, d, Sine, rate), d, 10*time.Millisecond, 150*time.Millisecond, rate), 0.6)
	},
	// Two short blasts and a long one.
	"whistle": func(rate beep.SampleRate) beep.Streamer {
		blast := func(d time.Duration) beep.Streamer {
			return gain(Envelope(Tone(2900, d, Sine, rate), d, 8*time.Millisecond, 30*time.Millisecond, rate), 0.5)
		}
		gap := beep.Silence(rate.N(60 * time.Millisecond))
		return beep.Seq(blast(120*time.Millisecond), gap, blast(120*time.Millisecond), beep.Silence(rate.N(60*time.Millisecond)), blast(400*time.Millisecond))
	},
}

// Names lists the available cues in sorted order.
func Names() []string {
	names := make([]string, 0, len(cues))
	for n := range cues {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Cue returns a fresh streamer for the named cue.
func Cue(name string, rate beep.SampleRate) (beep.Streamer, error) {
	fn, ok := cues[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCue, name)
	}
	return fn(rate), nil
}

// EncodeWAV renders a cue to a 16-bit stereo WAV file.
func EncodeWAV(name string, rate beep.SampleRate) ([]byte, error) {
	s, err := Cue(name, rate)
	if err != nil {
		return nil, err
	}
	var buf memFile
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(&buf, s, format); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return buf.data, nil
}

// Bank holds every cue pre-rendered as WAV and serves them over HTTP.
type Bank struct {
	wavs map[string][]byte
}

func NewBank(rate beep.SampleRate) (*Bank, error) {
	b := &Bank{wavs: make(map[string][]byte, len(cues))}
	for _, name := range Names() {
		data, err := EncodeWAV(name, rate)
		if err != nil {
			return nil, err
		}
		b.wavs[name] = data
	}
	return b, nil
}

func (b *Bank) WAV(name string) ([]byte, bool) {
	data, ok := b.wavs[name]
	return data, ok
}

// ServeHTTP answers /cues/{name}.wav.
func (b *Bank) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	name, ok := strings.CutSuffix(file, ".wav")
	data, found := b.wavs[name]
	if !ok || !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, file, time.Time{}, bytes.NewReader(data))
}

// memFile is an in-memory io.WriteSeeker; wav.Encode seeks back to patch
// the header sizes once the stream is drained.
type memFile struct {
	data []byte
	off  int
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.off + len(p); end > len(m.data) {
		m.data = append(m.data, make([]byte, end-len(m.data))...)
	}
	n := copy(m.data[m.off:], p)
	m.off += n
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(m.off)
	case io.SeekEnd:
		base = int64(len(m.data))
	default:
		return 0, fmt.Errorf("memfile: bad whence %d", whence)
	}
	pos := base + offset
	if pos < 0 {
		return 0, fmt.Errorf("memfile: negative position %d", pos)
	}
	m.off = int(pos)
	return pos, nil
}
