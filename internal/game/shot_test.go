package game

import (
	"math"
	"testing"
	"time"

	"github.com/vladimirvolkov/penalty/internal/geom"
	"github.com/vladimirvolkov/penalty/internal/goal"
)

var testViewport = goal.Viewport{Width: 1280, Height: 720}

func testGoal() *goal.Goal {
	return goal.New(goal.DefaultLayout(), testViewport)
}

func spawnPoint() geom.Vec2 {
	return geom.V(testViewport.Width/2, testViewport.Height*0.75)
}

// swipeToward builds a swipe whose straight projection from origin lands
// on target with the given power.
func swipeToward(origin, target geom.Vec2, power float64, t ShotTuning) Swipe {
	dir, dist := target.Sub(origin).Normalize()
	speed := t.MinSwipeSpeed + power/100*(t.MaxSwipeSpeed-t.MinSwipeSpeed)
	length := dist / (t.RangeFactor * (0.5 + power/100))
	start := geom.V(300, 600)
	return Swipe{
		Start:    start,
		End:      start.Add(dir.Scale(length)),
		Duration: time.Duration(length / speed * float64(time.Second)),
	}
}

func TestSwipePower(t *testing.T) {
	tuning := DefaultShotTuning()
	tests := []struct {
		name     string
		distance float64
		duration time.Duration
		want     float64
	}{
		{"Minimum speed", 100, time.Second, 0},
		{"Below minimum", 10, time.Second, 0},
		{"Midpoint", 1050, time.Second, 50},
		{"Maximum speed", 200, 100 * time.Millisecond, 100},
		{"Clamped above", 5000, 100 * time.Millisecond, 100},
		{"Zero duration", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := SwipePower(tt.distance, tt.duration, tuning)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected power %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTinySwipeIsNoOp(t *testing.T) {
	g := testGoal()
	origin := spawnPoint()
	sw := Swipe{Start: geom.V(100, 100), End: geom.V(103, 96), Duration: 50 * time.Millisecond}

	if _, ok := PlanShot(g, origin, sw, DefaultShotTuning()); ok {
		t.Fatal("5px swipe in 50ms should not launch")
	}

	zero := Swipe{Start: geom.V(100, 100), End: geom.V(100, 100), Duration: 0}
	if _, ok := PlanShot(g, origin, zero, DefaultShotTuning()); ok {
		t.Fatal("Zero-length swipe should not launch")
	}
}

func TestShortFastFlickLaunches(t *testing.T) {
	g := testGoal()
	sw := Swipe{Start: geom.V(100, 100), End: geom.V(100, 92), Duration: time.Millisecond}
	s, ok := PlanShot(g, spawnPoint(), sw, DefaultShotTuning())
	if !ok {
		t.Fatal("A fast 8px flick clears the power gate")
	}
	if s.Direction.Len() == 0 {
		t.Error("Direction should be normalized, not zero")
	}
}

func TestClassifyPriority(t *testing.T) {
	g := testGoal()
	tuning := DefaultShotTuning()
	area := g.GoalArea()
	midY := area.Y + area.H/2
	z6, _ := g.Zone(6)

	tests := []struct {
		name  string
		p     geom.Vec2
		power float64
		want  Classification
	}{
		{"Far left beats low power", geom.V(area.X-120, midY), 10, ClassOutboundLeft},
		{"Far right beats low power", geom.V(area.Right()+120, midY), 10, ClassOutboundRight},
		{"Left flank", geom.V(area.X-10, midY), 90, ClassOutboundLeft},
		{"Right flank", geom.V(area.Right()+10, midY), 90, ClassOutboundRight},
		{"Above crossbar", geom.V(area.Center().X, area.Y-20), 80, ClassAboveCrossbar},
		{"Above crossbar at margin", geom.V(area.X-50, area.Y-5), 80, ClassAboveCrossbar},
		{"Low power short of goal", geom.V(area.Center().X, area.Bottom()+80), 10, ClassLowPower},
		{"Low power near goal is normal", z6.Center(), 10, ClassNormal},
		{"Zone 6 center", z6.Center(), 80, ClassNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(g, tt.p, tt.power, tuning); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestZoneSixShotSnapsToCenter(t *testing.T) {
	g := testGoal()
	tuning := DefaultShotTuning()
	origin := spawnPoint()
	z6, _ := g.Zone(6)

	s, ok := PlanShot(g, origin, swipeToward(origin, z6.Center(), 80, tuning), tuning)
	if !ok {
		t.Fatal("Shot should launch")
	}
	if math.Abs(s.Power-80) > 0.01 {
		t.Errorf("Expected power 80, got %.3f", s.Power)
	}
	if s.Projected.Dist(z6.Center()) > 0.5 {
		t.Errorf("Projected %v should land on zone 6 center %v", s.Projected, z6.Center())
	}
	if s.Class != ClassNormal || !s.Snap {
		t.Errorf("Expected normal snapped shot, got %s snap=%v", s.Class, s.Snap)
	}
	if s.Target != z6.Center() || s.Zone.ID != 6 {
		t.Errorf("Target should be zone 6 center exactly, got %v zone %d", s.Target, s.Zone.ID)
	}
	if s.Curve.At(0) != origin || s.Curve.At(1) != s.Target {
		t.Error("Curve endpoints must be exact")
	}
}

func TestNonNormalTargets(t *testing.T) {
	g := testGoal()
	tuning := DefaultShotTuning()
	origin := spawnPoint()
	area := g.GoalArea()

	t.Run("Above crossbar bounces back", func(t *testing.T) {
		p := geom.V(area.Center().X, area.Y-10)
		target, _, snap := aim(g, origin, p, ClassAboveCrossbar, tuning)
		if snap {
			t.Error("Crossbar shots never snap")
		}
		if target.Dist(origin) >= p.Dist(origin) {
			t.Errorf("Crossbar hit should come back toward the kicker, got %v", target)
		}
	})

	t.Run("Well over the bar keeps rising", func(t *testing.T) {
		p := geom.V(area.Center().X, area.Y-100)
		target, _, _ := aim(g, origin, p, ClassAboveCrossbar, tuning)
		if target.Y >= p.Y {
			t.Errorf("Expected target above %v, got %v", p, target)
		}
	})

	t.Run("Outbound pushes outward", func(t *testing.T) {
		p := geom.V(area.X-100, area.Y+50)
		target, _, _ := aim(g, origin, p, ClassOutboundLeft, tuning)
		if target.X >= p.X {
			t.Errorf("Left outbound should move further left, got %v", target)
		}
		p = geom.V(area.Right()+100, area.Y+50)
		target, _, _ = aim(g, origin, p, ClassOutboundRight, tuning)
		if target.X <= p.X {
			t.Errorf("Right outbound should move further right, got %v", target)
		}
	})

	t.Run("Low power stops short", func(t *testing.T) {
		p := geom.V(origin.X, origin.Y-300)
		target, _, _ := aim(g, origin, p, ClassLowPower, tuning)
		want := origin.Lerp(p, tuning.LowPowerStop)
		if target.Dist(want) > 1e-9 {
			t.Errorf("Expected %v, got %v", want, target)
		}
	})
}

func TestControlPointOffsetCapped(t *testing.T) {
	tuning := DefaultShotTuning()
	origin := geom.V(0, 1000)
	target := geom.V(900, 0)
	for _, dir := range []geom.Vec2{
		geom.V(0.6, -0.8),
		geom.V(-0.6, -0.8),
		geom.V(1, 0),
		geom.V(0, -1),
	} {
		ctrl := controlPoint(origin, target, dir, 100, tuning)
		mid := origin.Lerp(target, 0.5)
		if d := ctrl.Dist(mid); d > tuning.MaxCurveOffset+1e-9 {
			t.Errorf("Control offset %.1f exceeds cap for dir %v", d, dir)
		}
	}
	if ctrl := controlPoint(origin, origin, geom.V(1, 0), 100, tuning); ctrl != origin {
		t.Errorf("Degenerate chord should use the midpoint, got %v", ctrl)
	}
}

func TestFlightDurationBounds(t *testing.T) {
	tuning := DefaultShotTuning()
	tests := []struct {
		name  string
		dist  float64
		speed float64
		want  time.Duration
	}{
		{"Tiny hop clamps up", 10, 2000, tuning.MinDuration},
		{"Slow long shot clamps down", 2000, 100, tuning.MaxDuration},
		{"Baseline speed", 450, 1000, 500 * time.Millisecond},
		{"Zero speed uses slowest factor", 90, 0, 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := flightDuration(tt.dist, tt.speed, tuning)
			if diff := got - tt.want; diff > time.Microsecond || diff < -time.Microsecond {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
