// Package config loads server settings and simulation tuning from an
// optional TOML file, with environment overrides for deployment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/vladimirvolkov/penalty/internal/game"
	"github.com/vladimirvolkov/penalty/internal/middleware"
)

var ErrInvalid = errors.New("config: invalid value")

type Server struct {
	Port            string            `toml:"port"`
	StaticDir       string            `toml:"static_dir"`
	AllowedOrigins  []string          `toml:"allowed_origins"`
	MaxSessions     int               `toml:"max_sessions"`
	ShutdownTimeout time.Duration     `toml:"shutdown_timeout"`
	Limits          middleware.Limits `toml:"limits"`
}

// Config is the whole file. The simulation sections ([session], [layout],
// [shot], [flight], [keeper]) sit at the top level next to [server].
type Config struct {
	Server Server `toml:"server"`
	game.Settings
}

func Default() Config {
	return Config{
		Server: Server{
			Port:            "8080",
			StaticDir:       "../client/dist",
			MaxSessions:     200,
			ShutdownTimeout: 5 * time.Second,
			Limits:          middleware.DefaultLimits(),
		},
		Settings: game.DefaultSettings(),
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("config %s: unknown key %q: %w", path, undecoded[0].String(), ErrInvalid)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if dir := getenv("STATIC_DIR"); dir != "" {
		c.Server.StaticDir = dir
	}
	if origins := getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalid)
}

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return invalid("server.port is empty")
	}
	if c.Server.MaxSessions < 0 {
		return invalid("server.max_sessions %d is negative", c.Server.MaxSessions)
	}
	if l := c.Server.Limits; l.MaxConnsPerIP < 1 || l.MsgRate < 1 || l.MsgWindow <= 0 {
		return invalid("server.limits %+v must be positive", l)
	}

	s := c.Settings
	if s.Session.MaxBalls < 1 {
		return invalid("session.max_balls %d must be at least 1", s.Session.MaxBalls)
	}
	if s.Session.BallRatio <= 0 || s.Session.SpawnRatio <= 0 || s.Session.SpawnRatio > 1 {
		return invalid("session ball_ratio/spawn_ratio out of range")
	}
	if s.Layout.TextureWidth <= 0 || s.Layout.WidthRatio <= 0 || s.Layout.WidthRatio > 1 {
		return invalid("layout texture_width/width_ratio out of range")
	}
	if s.Shot.MinSwipeSpeed >= s.Shot.MaxSwipeSpeed {
		return invalid("shot swipe speed range [%v, %v] is inverted", s.Shot.MinSwipeSpeed, s.Shot.MaxSwipeSpeed)
	}
	if s.Shot.MinRange > s.Shot.MaxRange {
		return invalid("shot range [%v, %v] is inverted", s.Shot.MinRange, s.Shot.MaxRange)
	}
	if s.Shot.MinDuration <= 0 || s.Shot.MinDuration > s.Shot.MaxDuration {
		return invalid("shot duration [%v, %v] is inverted", s.Shot.MinDuration, s.Shot.MaxDuration)
	}
	if s.Shot.BaselineSpeed <= 0 || s.Shot.PxPerMs <= 0 {
		return invalid("shot baseline_speed and px_per_ms must be positive")
	}
	f := s.Flight
	if f.KeeperWindowStart < 0 || f.KeeperWindowStart > f.KeeperWindowEnd || f.KeeperWindowEnd > 1 {
		return invalid("flight keeper window [%v, %v] must lie in [0,1]", f.KeeperWindowStart, f.KeeperWindowEnd)
	}
	if f.CatchWait <= 0 {
		return invalid("flight.catch_wait must be positive")
	}
	if p := s.Keeper.CatchProbability; p < 0 || p > 1 {
		return invalid("keeper.catch_probability %v outside [0,1]", p)
	}
	if s.Keeper.DiveDuration <= 0 || s.Keeper.FallDuration <= 0 {
		return invalid("keeper dive and fall durations must be positive")
	}
	return nil
}
