package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/vladimirvolkov/penalty/internal/audio"
	"github.com/vladimirvolkov/penalty/internal/config"
	"github.com/vladimirvolkov/penalty/internal/game"
	"github.com/vladimirvolkov/penalty/internal/middleware"
	"github.com/vladimirvolkov/penalty/internal/ws"
)

// securityHeaders wraps a handler with common security response headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:; img-src 'self' data:; media-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

// SessionManager starts a Room for every accepted connection.
type SessionManager struct {
	hub      *ws.Hub
	settings game.Settings

	mu    sync.Mutex
	rng   *rand.Rand
	rooms map[*game.Room]struct{}
}

func (sm *SessionManager) CreateSession(c *ws.Conn) {
	sm.mu.Lock()
	rng := rand.New(rand.NewSource(sm.rng.Int63()))
	sm.mu.Unlock()

	room := game.NewRoom(c, sm.settings, rng)
	sm.track(room, true)
	room.Start(context.Background())
	go func() {
		<-room.Done()
		c.Close()
		sm.track(room, false)
		sm.hub.SessionEnded()
	}()
}

func (sm *SessionManager) track(r *game.Room, live bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if live {
		sm.rooms[r] = struct{}{}
	} else {
		delete(sm.rooms, r)
	}
}

// StopAll ends every running room.
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	rooms := make([]*game.Room, 0, len(sm.rooms))
	for r := range sm.rooms {
		rooms = append(rooms, r)
	}
	sm.mu.Unlock()
	for _, r := range rooms {
		r.Stop()
	}
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	log.SetOutput(os.Stdout)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bank, err := audio.NewBank(audio.SampleRate)
	if err != nil {
		log.Fatalf("audio: %v", err)
	}

	limiter := middleware.NewIPRateLimiter(cfg.Server.Limits)
	defer limiter.Close()

	manager := &SessionManager{
		settings: cfg.Settings,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		rooms:    make(map[*game.Room]struct{}),
	}
	hub := ws.NewHub(manager, limiter, cfg.Server.AllowedOrigins, cfg.Server.MaxSessions)
	manager.hub = hub

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.Handle("GET /cues/{file}", bank)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.Stats())
	})

	// Static files with no-cache headers (prevents stale JS in browser)
	mux.Handle("/", noCache(http.FileServer(http.Dir(cfg.Server.StaticDir))))

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           securityHeaders(mux),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down...")
		manager.StopAll()
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
			server.Close()
		}
	}()

	log.Printf("penalty server starting on :%s (%d balls, keeper %.0f%%)",
		cfg.Server.Port, cfg.Session.MaxBalls, cfg.Keeper.CatchProbability*100)
	log.Printf("serving static files from %s", cfg.Server.StaticDir)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
	log.Println("server stopped")
}
