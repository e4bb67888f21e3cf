package game

import (
	"math"
	"time"

	"github.com/vladimirvolkov/penalty/internal/geom"
	"github.com/vladimirvolkov/penalty/internal/goal"
)

// Swipe is a completed pointer gesture.
type Swipe struct {
	Start    geom.Vec2
	End      geom.Vec2
	Duration time.Duration
}

// Shot is everything decided at launch. Curve.StartTime is left zero for
// the ball to stamp.
type Shot struct {
	Origin    geom.Vec2
	Direction geom.Vec2
	Distance  float64 // swipe length
	Speed     float64 // swipe px/s
	Power     float64 // 0..100
	Range     float64
	Projected geom.Vec2
	Class     Classification
	Snap      bool
	Zone      goal.Zone
	Target    geom.Vec2
	Curve     geom.Curve
}

// SwipePower maps swipe speed linearly from MinSwipeSpeed (0%) to
// MaxSwipeSpeed (100%). It also returns the speed in px/s.
func SwipePower(distance float64, d time.Duration, t ShotTuning) (power, speed float64) {
	secs := d.Seconds()
	if secs < 0.001 {
		secs = 0.001
	}
	speed = distance / secs
	span := t.MaxSwipeSpeed - t.MinSwipeSpeed
	if span <= 0 {
		return 100, speed
	}
	power = geom.Clamp((speed-t.MinSwipeSpeed)/span*100, 0, 100)
	return power, speed
}

// PlanShot turns a swipe into a classified flight curve from origin.
// It returns false for gestures too short and too weak to count.
func PlanShot(g GeometryProvider, origin geom.Vec2, sw Swipe, t ShotTuning) (Shot, bool) {
	dir, dist := sw.End.Sub(sw.Start).Normalize()
	power, speed := SwipePower(dist, sw.Duration, t)
	if dist < t.MinDistance && power < t.MinPower {
		return Shot{}, false
	}

	s := Shot{
		Origin:    origin,
		Direction: dir,
		Distance:  dist,
		Speed:     speed,
		Power:     power,
	}
	s.Range = geom.Clamp(dist*t.RangeFactor*(0.5+power/100), t.MinRange, t.MaxRange)
	s.Projected = g.Viewport().Bounds().ClampPoint(origin.Add(dir.Scale(s.Range)))

	s.Class = Classify(g, s.Projected, power, t)
	s.Target, s.Zone, s.Snap = aim(g, origin, s.Projected, s.Class, t)
	s.Curve = geom.Curve{
		Start:    origin,
		Control:  controlPoint(origin, s.Target, dir, power, t),
		End:      s.Target,
		Duration: flightDuration(origin.Dist(s.Target), speed, t),
	}
	return s, true
}

// Classify applies the fixed priority order; the first match wins so an
// outbound shot is never demoted to low power.
func Classify(g GeometryProvider, p geom.Vec2, power float64, t ShotTuning) Classification {
	area := g.GoalArea()
	iz, inFlank := g.InteractionZoneAt(p.X, p.Y)

	switch {
	case p.X < area.X-t.OutboundMargin, inFlank && iz.Side == goal.SideLeft:
		return ClassOutboundLeft
	case p.X > area.Right()+t.OutboundMargin, inFlank && iz.Side == goal.SideRight:
		return ClassOutboundRight
	case p.Y < area.Y:
		return ClassAboveCrossbar
	case power < t.LowPower && p.Dist(g.Center()) > t.LowPowerDistance:
		return ClassLowPower
	}
	return ClassNormal
}

func aim(g GeometryProvider, origin, p geom.Vec2, c Classification, t ShotTuning) (geom.Vec2, goal.Zone, bool) {
	area := g.GoalArea()
	switch c {
	case ClassNormal:
		z := g.NearestZone(p)
		return z.Center(), z, true
	case ClassOutboundLeft:
		return p.Add(geom.V(-t.OutboundPush, 0)), goal.Zone{}, false
	case ClassOutboundRight:
		return p.Add(geom.V(t.OutboundPush, 0)), goal.Zone{}, false
	case ClassAboveCrossbar:
		over := area.Y - p.Y
		if over <= t.CrossbarBand {
			// Off the bar: come back toward the kicker.
			return p.Add(origin.Sub(p).Scale(t.CrossbarBounce)), goal.Zone{}, false
		}
		return p.Add(geom.V(0, -over)), goal.Zone{}, false
	case ClassLowPower:
		return origin.Lerp(p, t.LowPowerStop), goal.Zone{}, false
	}
	return p, goal.Zone{}, false
}

// controlPoint bends the path off the chord midpoint toward the swipe's
// lateral side, lifting it for upward swipes.
func controlPoint(origin, target, dir geom.Vec2, power float64, t ShotTuning) geom.Vec2 {
	chord := target.Sub(origin)
	mid := origin.Add(chord.Scale(0.5))
	n, l := chord.Normalize()
	if l == 0 {
		return mid
	}
	n = n.Perp()

	vertical := math.Abs(dir.Y)
	offset := math.Min(t.MaxCurveOffset, l*0.25*(power/100)*(0.5+vertical))

	lateral := geom.Sign(dir.X)
	if lateral != 0 && geom.Sign(n.X) != lateral {
		n = n.Scale(-1)
	}
	bend := n.Scale(offset * math.Abs(dir.X))
	if dir.Y < 0 {
		bend.Y -= offset * vertical * 0.5
	}
	if bl := bend.Len(); bl > t.MaxCurveOffset {
		bend = bend.Scale(t.MaxCurveOffset / bl)
	}
	return mid.Add(bend)
}

// flightDuration is distance-proportional, shortened by fast swipes.
func flightDuration(dist, speed float64, t ShotTuning) time.Duration {
	base := dist / t.PxPerMs
	factor := 2.5
	if speed > 0 {
		factor = geom.Clamp(t.BaselineSpeed/speed, 0.4, 2.5)
	}
	d := time.Duration(base * factor * float64(time.Millisecond))
	if d < t.MinDuration {
		d = t.MinDuration
	}
	if d > t.MaxDuration {
		d = t.MaxDuration
	}
	return d
}
