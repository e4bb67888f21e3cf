package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/vladimirvolkov/penalty/internal/middleware"
)

const (
	defaultWidth  = 1280
	defaultHeight = 720
	maxDimension  = 8192
)

// sanitizeName strips disallowed characters and enforces 2-12 runes.
func sanitizeName(raw string) string {
	if !utf8.ValidString(raw) {
		return "Player"
	}
	cleaned := []rune{}
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-' || r == ' ' ||
			(r >= 0x0400 && r <= 0x04FF) {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) < 2 {
		return "Player"
	}
	if len(cleaned) > 12 {
		cleaned = cleaned[:12]
	}
	return string(cleaned)
}

// parseDimension reads a viewport side from the query, falling back to def
// for missing, malformed or out-of-range values.
func parseDimension(raw string, def float64) float64 {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !(v >= 1 && v <= maxDimension) {
		return def
	}
	return v
}

type SessionCreator interface {
	CreateSession(c *Conn)
}

// HubStats holds live server metrics.
type HubStats struct {
	ActiveSessions   int64  `json:"activeSessions"`
	TotalConnections uint64 `json:"totalConnections"`
	Rejected         uint64 `json:"rejected"`
}

type Hub struct {
	creator     SessionCreator
	nextID      atomic.Uint64
	maxSessions int64

	activeSessions   atomic.Int64
	totalConnections atomic.Uint64
	rejected         atomic.Uint64

	limiter        *middleware.IPRateLimiter
	originPatterns []string
	readLimit      int64
}

func NewHub(creator SessionCreator, limiter *middleware.IPRateLimiter, originPatterns []string, maxSessions int) *Hub {
	return &Hub{
		creator:        creator,
		limiter:        limiter,
		originPatterns: originPatterns,
		maxSessions:    int64(maxSessions),
		readLimit:      1024,
	}
}

// Stats returns a snapshot of current server metrics.
func (h *Hub) Stats() HubStats {
	return HubStats{
		ActiveSessions:   h.activeSessions.Load(),
		TotalConnections: h.totalConnections.Load(),
		Rejected:         h.rejected.Load(),
	}
}

// SessionEnded decrements the active session counter.
func (h *Hub) SessionEnded() {
	h.activeSessions.Add(-1)
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ip := middleware.RealIP(r)
	if h.limiter != nil && !h.limiter.ConnectAllowed(ip) {
		h.rejected.Add(1)
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}
	release := func() {
		if h.limiter != nil {
			h.limiter.Disconnect(ip)
		}
	}

	q := r.URL.Query()
	codec, err := CodecByName(q.Get("enc"))
	if err != nil {
		release()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	acceptOpts := &websocket.AcceptOptions{}
	if len(h.originPatterns) > 0 {
		acceptOpts.OriginPatterns = h.originPatterns
	}

	ws, err := websocket.Accept(w, r, acceptOpts)
	if err != nil {
		release()
		log.Printf("ws accept error: %v", err)
		return
	}

	// Input messages are small pointer events.
	ws.SetReadLimit(h.readLimit)

	h.totalConnections.Add(1)
	info := ClientInfo{
		ID:     fmt.Sprintf("session-%d", h.nextID.Add(1)),
		Name:   sanitizeName(q.Get("name")),
		IP:     ip,
		Width:  parseDimension(q.Get("w"), defaultWidth),
		Height: parseDimension(q.Get("h"), defaultHeight),
	}
	conn := NewConn(ws, codec, info, h.limiter)
	log.Printf("new connection: %s [%s] from %s codec=%s (total: %d)",
		info.ID, info.Name, ip, codec.Name(), h.totalConnections.Load())

	go conn.WriteLoop(context.Background())

	go func() {
		<-conn.Done()
		release()
	}()

	if h.maxSessions > 0 && h.activeSessions.Load() >= h.maxSessions {
		h.rejected.Add(1)
		log.Printf("max sessions reached, rejecting %s", info.ID)
		conn.closeWith(websocket.StatusTryAgainLater, "server full")
		return
	}

	h.activeSessions.Add(1)
	h.creator.CreateSession(conn)

	// Hold the handler open for the lifetime of the websocket.
	<-conn.Done()
	log.Printf("connection closed: %s", info.ID)
}
