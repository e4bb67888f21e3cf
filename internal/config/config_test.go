package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "penalty.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Defaults should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STATIC_DIR", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	path := writeConfig(t, `
[server]
port = "9090"
max_sessions = 12

[server.limits]
max_conns_per_ip = 2
msg_rate = 60
msg_window = "500ms"

[session]
max_balls = 3
respawn_delay = "1500ms"

[keeper]
catch_probability = 0.25

[flight]
finalize_delay = "1s"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "9090" || cfg.Server.MaxSessions != 12 {
		t.Errorf("Server section not applied: %+v", cfg.Server)
	}
	if cfg.Server.Limits.MsgWindow != 500*time.Millisecond || cfg.Server.Limits.MaxConnsPerIP != 2 {
		t.Errorf("Limits not applied: %+v", cfg.Server.Limits)
	}
	if cfg.Session.MaxBalls != 3 || cfg.Session.RespawnDelay != 1500*time.Millisecond {
		t.Errorf("Session not applied: %+v", cfg.Session)
	}
	if cfg.Keeper.CatchProbability != 0.25 || cfg.Flight.FinalizeDelay != time.Second {
		t.Errorf("Tuning not applied: keeper=%v finalize=%v", cfg.Keeper.CatchProbability, cfg.Flight.FinalizeDelay)
	}

	def := Default()
	if cfg.Shot != def.Shot || cfg.Layout != def.Layout {
		t.Error("Sections missing from the file should keep their defaults")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("STATIC_DIR", "/srv/www")
	t.Setenv("ALLOWED_ORIGINS", "example.com, *.example.org ,")
	path := writeConfig(t, "[server]\nport = \"9090\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "7000" || cfg.Server.StaticDir != "/srv/www" {
		t.Errorf("Env should win over the file: %+v", cfg.Server)
	}
	want := []string{"example.com", "*.example.org"}
	if len(cfg.Server.AllowedOrigins) != len(want) {
		t.Fatalf("Expected origins %v, got %v", want, cfg.Server.AllowedOrigins)
	}
	for i := range want {
		if cfg.Server.AllowedOrigins[i] != want[i] {
			t.Errorf("Expected origins %v, got %v", want, cfg.Server.AllowedOrigins)
		}
	}
}

func TestLoadRejects(t *testing.T) {
	t.Setenv("PORT", "")
	tests := []struct {
		name string
		body string
	}{
		{"Probability above one", "[keeper]\ncatch_probability = 1.5\n"},
		{"Inverted window", "[flight]\nkeeper_window_start = 0.9\nkeeper_window_end = 0.6\n"},
		{"Inverted swipe speeds", "[shot]\nmin_swipe_speed = 3000.0\n"},
		{"No balls", "[session]\nmax_balls = 0\n"},
		{"Unknown key", "[keeper]\ncatch_chance = 0.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "[server\nport = "))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("Expected a parse error, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Missing file should be an error")
	}
}
