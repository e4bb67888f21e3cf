package audio

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

func drain(s beep.Streamer) (total int, peak float64) {
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			if v := buf[i][0]; v > peak {
				peak = v
			} else if -v > peak {
				peak = -v
			}
		}
		total += n
		if !ok {
			return total, peak
		}
	}
}

func TestToneLengthAndRange(t *testing.T) {
	rate := beep.SampleRate(8000)
	tests := []struct {
		name string
		wave Wave
	}{
		{"Sine", Sine},
		{"Square", Square},
		{"Saw", Saw},
		{"Noise", Noise},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, peak := drain(Tone(440, 100*time.Millisecond, tt.wave, rate))
			if n != rate.N(100*time.Millisecond) {
				t.Errorf("Expected %d samples, got %d", rate.N(100*time.Millisecond), n)
			}
			if peak > 1 || peak == 0 {
				t.Errorf("Peak %v outside (0, 1]", peak)
			}
		})
	}
}

func TestEnvelopeShapesEdges(t *testing.T) {
	rate := beep.SampleRate(1000)
	s := Envelope(Tone(0, time.Second, Square, rate), time.Second, 100*time.Millisecond, 100*time.Millisecond, rate)
	buf := make([][2]float64, 1000)
	n, _ := s.Stream(buf)
	if n != 1000 {
		t.Fatalf("Expected 1000 samples, got %d", n)
	}
	if buf[0][0] != 0 {
		t.Errorf("Attack should start silent, got %v", buf[0][0])
	}
	if buf[500][0] != 1 {
		t.Errorf("Sustain should be full volume, got %v", buf[500][0])
	}
	if buf[950][0] >= 1 || buf[950][0] <= 0 {
		t.Errorf("Release should fade, got %v", buf[950][0])
	}
	if n, ok := s.Stream(buf); n != 0 || ok {
		t.Errorf("Drained envelope should report (0, false), got (%d, %v)", n, ok)
	}
}

func TestEveryCueRenders(t *testing.T) {
	want := []string{"goal", "kick", "out", "save", "whistle"}
	names := Names()
	if len(names) != len(want) {
		t.Fatalf("Expected cues %v, got %v", want, names)
	}
	for i, name := range names {
		if name != want[i] {
			t.Errorf("Expected cue %q at %d, got %q", want[i], i, name)
		}

		t.Run(name, func(t *testing.T) {
			s, err := Cue(name, SampleRate)
			if err != nil {
				t.Fatal(err)
			}
			n, peak := drain(s)
			if n == 0 || peak == 0 {
				t.Errorf("Cue should be audible: %d samples, peak %v", n, peak)
			}
			if d := SampleRate.D(n); d > 2*time.Second {
				t.Errorf("Cue too long: %v", d)
			}
		})
	}

	if _, err := Cue("vuvuzela", SampleRate); !errors.Is(err, ErrUnknownCue) {
		t.Errorf("Expected ErrUnknownCue, got %v", err)
	}
}

func TestEncodeWAV(t *testing.T) {
	data, err := EncodeWAV("goal", SampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) || string(data[8:12]) != "WAVE" {
		t.Fatalf("Missing RIFF/WAVE header: % x", data[:12])
	}

	s, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer s.Close()
	if format.SampleRate != SampleRate || format.NumChannels != 2 {
		t.Errorf("Unexpected format %+v", format)
	}
	if want := SampleRate.N(440 * time.Millisecond); s.Len() < want-10 || s.Len() > want+10 {
		t.Errorf("Expected about %d samples, got %d", want, s.Len())
	}
}

func TestBankServesWAV(t *testing.T) {
	bank, err := NewBank(beep.SampleRate(8000))
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	mux := http.NewServeMux()
	mux.Handle("GET /cues/{file}", bank)

	tests := []struct {
		path string
		code int
	}{
		{"/cues/kick.wav", http.StatusOK},
		{"/cues/whistle.wav", http.StatusOK},
		{"/cues/kick.mp3", http.StatusNotFound},
		{"/cues/.wav", http.StatusNotFound},
		{"/cues/cheer.wav", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.code, rec.Code)
			continue
		}
		if tt.code == http.StatusOK {
			want, _ := bank.WAV(tt.path[len("/cues/") : len(tt.path)-len(".wav")])
			if !bytes.Equal(rec.Body.Bytes(), want) || rec.Header().Get("Content-Type") != "audio/wav" {
				t.Errorf("%s: body or content type mismatch", tt.path)
			}
		}
	}
}

func TestMemFileSeekPatch(t *testing.T) {
	var m memFile
	m.Write([]byte("hello world"))
	if _, err := m.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	m.Write([]byte("J"))
	if _, err := m.Seek(-5, 2); err != nil {
		t.Fatal(err)
	}
	m.Write([]byte("W"))
	if got := string(m.data); got != "Jello World" {
		t.Errorf("Expected %q, got %q", "Jello World", got)
	}
	if _, err := m.Seek(-1, 0); err == nil {
		t.Error("Negative seek should fail")
	}
}
