package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type visitor struct {
	connections int
	tokens      int
	lastRefill  time.Time
}

// Limits configures an IPRateLimiter.
type Limits struct {
	MaxConnsPerIP int           `toml:"max_conns_per_ip"`
	MsgRate       int           `toml:"msg_rate"`
	MsgWindow     time.Duration `toml:"msg_window"`
	CleanupEvery  time.Duration `toml:"cleanup_every"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxConnsPerIP: 4,
		MsgRate:       240,
		MsgWindow:     time.Second,
		CleanupEvery:  5 * time.Minute,
	}
}

// IPRateLimiter tracks per-IP connection counts and message rates.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limits   Limits
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter creates a limiter and starts its cleanup goroutine.
// Call Close to stop it.
func NewIPRateLimiter(l Limits) *IPRateLimiter {
	rl := newLimiter(l, time.Now)
	if l.CleanupEvery > 0 {
		go rl.cleanup(l.CleanupEvery)
	}
	return rl
}

func newLimiter(l Limits, now func() time.Time) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limits:   l,
		now:      now,
		stop:     make(chan struct{}),
	}
}

// ConnectAllowed checks if an IP can open a new connection.
// If allowed, increments the connection count and returns true.
func (rl *IPRateLimiter) ConnectAllowed(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &visitor{
			connections: 1,
			tokens:      rl.limits.MsgRate,
			lastRefill:  rl.now(),
		}
		return true
	}
	if v.connections >= rl.limits.MaxConnsPerIP {
		return false
	}
	v.connections++
	return true
}

// Disconnect decrements the connection count for an IP.
func (rl *IPRateLimiter) Disconnect(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		return
	}
	v.connections--
	if v.connections < 0 {
		v.connections = 0
	}
}

// MessageAllowed is a token bucket refilling MsgRate tokens per MsgWindow.
func (rl *IPRateLimiter) MessageAllowed(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &visitor{
			tokens:     rl.limits.MsgRate - 1,
			lastRefill: now,
		}
		return true
	}

	elapsed := now.Sub(v.lastRefill)
	if w := rl.limits.MsgWindow; w > 0 && elapsed >= w {
		windows := int(elapsed / w)
		v.tokens += windows * rl.limits.MsgRate
		if v.tokens > rl.limits.MsgRate {
			v.tokens = rl.limits.MsgRate
		}
		v.lastRefill = v.lastRefill.Add(time.Duration(windows) * w)
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// Sweep drops visitors with no open connections.
func (rl *IPRateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for ip, v := range rl.visitors {
		if v.connections <= 0 {
			delete(rl.visitors, ip)
			n++
		}
	}
	return n
}

func (rl *IPRateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Sweep()
		case <-rl.stop:
			return
		}
	}
}

func (rl *IPRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// RealIP extracts the client IP from the request.
// Checks X-Forwarded-For (for reverse proxies) then RemoteAddr.
func RealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if comma := strings.Index(xff, ","); comma > 0 {
			return strings.TrimSpace(xff[:comma])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
