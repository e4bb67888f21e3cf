package game

import (
	"time"

	"github.com/vladimirvolkov/penalty/internal/geom"
	"github.com/vladimirvolkov/penalty/internal/goal"
	"github.com/vladimirvolkov/penalty/internal/keeper"
)

const (
	TickRate = 60
	DT       = time.Second / TickRate
)

// ShotTuning drives gesture → curve mapping. Distances are screen px.
type ShotTuning struct {
	MinDistance   float64 `toml:"min_distance"`
	MinPower      float64 `toml:"min_power"`
	MinSwipeSpeed float64 `toml:"min_swipe_speed"` // px/s at 0% power
	MaxSwipeSpeed float64 `toml:"max_swipe_speed"` // px/s at 100% power

	RangeFactor float64 `toml:"range_factor"`
	MinRange    float64 `toml:"min_range"`
	MaxRange    float64 `toml:"max_range"`

	OutboundMargin   float64 `toml:"outbound_margin"`
	OutboundPush     float64 `toml:"outbound_push"`
	CrossbarBand     float64 `toml:"crossbar_band"`
	CrossbarBounce   float64 `toml:"crossbar_bounce"`
	LowPower         float64 `toml:"low_power"`
	LowPowerDistance float64 `toml:"low_power_distance"`
	LowPowerStop     float64 `toml:"low_power_stop"`

	MaxCurveOffset float64       `toml:"max_curve_offset"`
	BaselineSpeed  float64       `toml:"baseline_speed"`
	PxPerMs        float64       `toml:"px_per_ms"`
	MinDuration    time.Duration `toml:"min_duration"`
	MaxDuration    time.Duration `toml:"max_duration"`
}

func DefaultShotTuning() ShotTuning {
	return ShotTuning{
		MinDistance:   10,
		MinPower:      5,
		MinSwipeSpeed: 100,
		MaxSwipeSpeed: 2000,

		RangeFactor: 3,
		MinRange:    150,
		MaxRange:    900,

		OutboundMargin:   50,
		OutboundPush:     80,
		CrossbarBand:     30,
		CrossbarBounce:   0.35,
		LowPower:         30,
		LowPowerDistance: 200,
		LowPowerStop:     0.6,

		MaxCurveOffset: 220,
		BaselineSpeed:  1000,
		PxPerMs:        0.9,
		MinDuration:    120 * time.Millisecond,
		MaxDuration:    1400 * time.Millisecond,
	}
}

// FlightTuning covers the in-flight keeper trigger, deflection and settle.
type FlightTuning struct {
	KeeperWindowStart float64 `toml:"keeper_window_start"`
	KeeperWindowEnd   float64 `toml:"keeper_window_end"`
	KeeperRange       float64 `toml:"keeper_range"`

	SnapScale float64 `toml:"snap_scale"`

	DeflectDistance float64       `toml:"deflect_distance"`
	DeflectDuration time.Duration `toml:"deflect_duration"`
	DeflectCooldown time.Duration `toml:"deflect_cooldown"`
	GoalBias        float64       `toml:"goal_bias"`

	GoalBounce     float64       `toml:"goal_bounce"`
	GoalBounceGain float64       `toml:"goal_bounce_gain"`
	GoalSettle     time.Duration `toml:"goal_settle"`
	NetInset       float64       `toml:"net_inset"`
	MissBounce     float64       `toml:"miss_bounce"`
	MissBounceGain float64       `toml:"miss_bounce_gain"`
	MissSettle     time.Duration `toml:"miss_settle"`
	MissDrop       float64       `toml:"miss_drop"`
	Bounces        int           `toml:"bounces"`

	CatchWait     time.Duration `toml:"catch_wait"`
	FinalizeDelay time.Duration `toml:"finalize_delay"`
}

func DefaultFlightTuning() FlightTuning {
	return FlightTuning{
		KeeperWindowStart: 0.6,
		KeeperWindowEnd:   0.9,
		KeeperRange:       0.8,

		SnapScale: 0.55,

		DeflectDistance: 180,
		DeflectDuration: 500 * time.Millisecond,
		DeflectCooldown: 700 * time.Millisecond,
		GoalBias:        0.6,

		GoalBounce:     80,
		GoalBounceGain: 0.8,
		GoalSettle:     800 * time.Millisecond,
		NetInset:       4,
		MissBounce:     40,
		MissBounceGain: 0.4,
		MissSettle:     600 * time.Millisecond,
		MissDrop:       12,
		Bounces:        3,

		CatchWait:     2 * time.Second,
		FinalizeDelay: 800 * time.Millisecond,
	}
}

type SessionTuning struct {
	MaxBalls     int           `toml:"max_balls"`
	RespawnDelay time.Duration `toml:"respawn_delay"`
	BallRatio    float64       `toml:"ball_ratio"`  // radius as a fraction of viewport width
	SpawnRatio   float64       `toml:"spawn_ratio"` // spawn y as a fraction of viewport height
}

func DefaultSessionTuning() SessionTuning {
	return SessionTuning{
		MaxBalls:     5,
		RespawnDelay: 2 * time.Second,
		BallRatio:    1.0 / 40,
		SpawnRatio:   0.75,
	}
}

// Settings bundles every tunable of one play session.
type Settings struct {
	Layout  goal.Layout   `toml:"layout"`
	Shot    ShotTuning    `toml:"shot"`
	Flight  FlightTuning  `toml:"flight"`
	Keeper  keeper.Tuning `toml:"keeper"`
	Session SessionTuning `toml:"session"`
}

func DefaultSettings() Settings {
	return Settings{
		Layout:  goal.DefaultLayout(),
		Shot:    DefaultShotTuning(),
		Flight:  DefaultFlightTuning(),
		Keeper:  keeper.DefaultTuning(),
		Session: DefaultSessionTuning(),
	}
}

// Classification is decided once at launch and never re-derived.
type Classification uint8

const (
	ClassNormal Classification = iota
	ClassOutboundLeft
	ClassOutboundRight
	ClassAboveCrossbar
	ClassLowPower
)

func (c Classification) String() string {
	switch c {
	case ClassOutboundLeft:
		return "outbound_left"
	case ClassOutboundRight:
		return "outbound_right"
	case ClassAboveCrossbar:
		return "above_crossbar"
	case ClassLowPower:
		return "low_power"
	}
	return "normal"
}

// Outbound reports classifications that always finish as out.
func (c Classification) Outbound() bool {
	return c == ClassOutboundLeft || c == ClassOutboundRight || c == ClassLowPower
}

// Miss reports whether the shot is out whatever happens after launch.
// A ball off the crossbar drops back through the goal mouth in screen
// space, so it counts as a miss too.
func (c Classification) Miss() bool {
	return c.Outbound() || c == ClassAboveCrossbar
}

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseFlying
	PhaseSettling
	PhaseConcluded
)

func (p Phase) String() string {
	switch p {
	case PhaseFlying:
		return "flying"
	case PhaseSettling:
		return "settling"
	case PhaseConcluded:
		return "concluded"
	}
	return "idle"
}

type PendingKind uint8

const (
	PendingNone PendingKind = iota
	PendingGoal
	PendingSave
)

// Pending is the deferred scoring decision. A ball holds at most one.
type Pending struct {
	Kind PendingKind
	Zone goal.Zone
}

type OutcomeKind uint8

const (
	OutcomeNone OutcomeKind = iota
	OutcomeGoal
	OutcomeSave
	OutcomeOut
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeGoal:
		return "goal"
	case OutcomeSave:
		return "save"
	case OutcomeOut:
		return "out"
	}
	return "none"
}

type Outcome struct {
	Kind OutcomeKind `json:"kind" msgpack:"kind"`
	Zone goal.Zone   `json:"zone" msgpack:"zone"`
}

// BallState is the per-frame ball snapshot sent to renderers.
type BallState struct {
	Position    geom.Vec2 `json:"position" msgpack:"position"`
	Radius      float64   `json:"radius" msgpack:"radius"`
	Scale       float64   `json:"scale" msgpack:"scale"`
	Height      float64   `json:"height" msgpack:"height"`
	ShadowScale float64   `json:"shadowScale" msgpack:"shadowScale"`
	ShadowAlpha float64   `json:"shadowAlpha" msgpack:"shadowAlpha"`
	Phase       string    `json:"phase" msgpack:"phase"`
	Class       string    `json:"class,omitempty" msgpack:"class,omitempty"`
	Power       float64   `json:"power" msgpack:"power"`
}

type Tallies struct {
	Goals    int     `json:"goals" msgpack:"goals"`
	Saves    int     `json:"saves" msgpack:"saves"`
	Outs     int     `json:"outs" msgpack:"outs"`
	Shots    int     `json:"shots" msgpack:"shots"`
	Accuracy float64 `json:"accuracy" msgpack:"accuracy"`
}

type OutcomeEvent struct {
	Kind           string  `json:"kind" msgpack:"kind"`
	Zone           int     `json:"zone,omitempty" msgpack:"zone,omitempty"`
	Tallies        Tallies `json:"tallies" msgpack:"tallies"`
	BallsRemaining int     `json:"ballsRemaining" msgpack:"ballsRemaining"`
}

// Frame is a full render snapshot, produced once per tick.
type Frame struct {
	Tick           uint64        `json:"tick" msgpack:"tick"`
	TimeMs         int64         `json:"timeMs" msgpack:"timeMs"`
	GameOver       bool          `json:"gameOver" msgpack:"gameOver"`
	Viewport       goal.Viewport `json:"viewport" msgpack:"viewport"`
	Ball           *BallState    `json:"ball,omitempty" msgpack:"ball,omitempty"`
	Keeper         keeper.State  `json:"keeper" msgpack:"keeper"`
	GoalArea       geom.Rect     `json:"goalArea" msgpack:"goalArea"`
	Posts          [3]geom.Rect  `json:"posts" msgpack:"posts"` // left, right, crossbar
	Zones          []goal.Zone   `json:"zones" msgpack:"zones"`
	Tallies        Tallies       `json:"tallies" msgpack:"tallies"`
	BallsRemaining int           `json:"ballsRemaining" msgpack:"ballsRemaining"`
	Aiming         bool          `json:"aiming" msgpack:"aiming"`
	Power          float64       `json:"power" msgpack:"power"`
	LastOutcome    *OutcomeEvent `json:"lastOutcome,omitempty" msgpack:"lastOutcome,omitempty"`
	Cues           []string      `json:"cues,omitempty" msgpack:"cues,omitempty"`
}
