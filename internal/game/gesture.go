package game

import (
	"time"

	"github.com/vladimirvolkov/penalty/internal/geom"
)

type PointerPhase uint8

const (
	PointerDown PointerPhase = iota + 1
	PointerMove
	PointerUp
)

func ParsePointerPhase(s string) (PointerPhase, bool) {
	switch s {
	case "down":
		return PointerDown, true
	case "move":
		return PointerMove, true
	case "up":
		return PointerUp, true
	}
	return 0, false
}

// Gesture tracks one swipe from pointer-down to pointer-up. Moves only
// refresh the live power readout.
type Gesture struct {
	tuning  ShotTuning
	active  bool
	start   geom.Vec2
	startAt time.Duration
	power   float64
}

func NewGesture(t ShotTuning) *Gesture {
	return &Gesture{tuning: t}
}

func (g *Gesture) Active() bool   { return g.active }
func (g *Gesture) Power() float64 { return g.power }

func (g *Gesture) Down(p geom.Vec2, at time.Duration) {
	g.active = true
	g.start = p
	g.startAt = at
	g.power = 0
}

// Move returns the power the swipe would have if released at p.
func (g *Gesture) Move(p geom.Vec2, at time.Duration) float64 {
	if !g.active {
		return 0
	}
	g.power, _ = SwipePower(p.Dist(g.start), at-g.startAt, g.tuning)
	return g.power
}

// Up ends the gesture. The swipe is returned even when it is too weak to
// launch; PlanShot decides that.
func (g *Gesture) Up(p geom.Vec2, at time.Duration) (Swipe, bool) {
	if !g.active {
		return Swipe{}, false
	}
	sw := Swipe{Start: g.start, End: p, Duration: at - g.startAt}
	g.Cancel()
	return sw, true
}

func (g *Gesture) Cancel() {
	g.active = false
	g.power = 0
}
