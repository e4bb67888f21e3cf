package middleware

import (
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestConnectLimit(t *testing.T) {
	rl := newLimiter(Limits{MaxConnsPerIP: 2, MsgRate: 10, MsgWindow: time.Second}, time.Now)

	if !rl.ConnectAllowed("1.2.3.4") || !rl.ConnectAllowed("1.2.3.4") {
		t.Fatal("First two connections should be allowed")
	}
	if rl.ConnectAllowed("1.2.3.4") {
		t.Error("Third connection should be rejected")
	}
	if !rl.ConnectAllowed("5.6.7.8") {
		t.Error("Other IPs are tracked separately")
	}

	rl.Disconnect("1.2.3.4")
	if !rl.ConnectAllowed("1.2.3.4") {
		t.Error("Connection slot should be freed by Disconnect")
	}
}

func TestMessageTokenBucket(t *testing.T) {
	fc := &fakeClock{t: time.Unix(1000, 0)}
	rl := newLimiter(Limits{MaxConnsPerIP: 1, MsgRate: 3, MsgWindow: time.Second}, fc.now)
	rl.ConnectAllowed("ip")

	for i := 0; i < 3; i++ {
		if !rl.MessageAllowed("ip") {
			t.Fatalf("Message %d should be allowed", i)
		}
	}
	if rl.MessageAllowed("ip") {
		t.Fatal("Bucket should be empty")
	}

	fc.advance(500 * time.Millisecond)
	if rl.MessageAllowed("ip") {
		t.Error("Half a window should not refill")
	}

	fc.advance(600 * time.Millisecond)
	if !rl.MessageAllowed("ip") {
		t.Error("A full window should refill the bucket")
	}
}

func TestSweepKeepsConnectedVisitors(t *testing.T) {
	rl := newLimiter(DefaultLimits(), time.Now)
	rl.ConnectAllowed("a")
	rl.ConnectAllowed("b")
	rl.Disconnect("b")

	if n := rl.Sweep(); n != 1 {
		t.Errorf("Expected 1 stale visitor swept, got %d", n)
	}
	if _, ok := rl.visitors["a"]; !ok {
		t.Error("Connected visitor was swept")
	}
	rl.Close()
	rl.Close()
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		remote string
		want   string
	}{
		{"Remote only", "", "10.0.0.1:5555", "10.0.0.1"},
		{"Single forwarded", "203.0.113.9", "10.0.0.1:5555", "203.0.113.9"},
		{"Forwarded chain", " 203.0.113.9 , 10.0.0.2", "10.0.0.1:5555", "203.0.113.9"},
		{"Remote without port", "", "10.0.0.1", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := RealIP(r); got != tt.want {
				t.Errorf("RealIP = %q, want %q", got, tt.want)
			}
		})
	}
}
