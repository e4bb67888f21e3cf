package geom

import (
	"math"
	"time"
)

// Curve is a quadratic Bézier flight path with its timing.
// Control is fixed at launch; End and StartTime change only on a deflection.
type Curve struct {
	Start     Vec2          `json:"start" msgpack:"start"`
	Control   Vec2          `json:"control" msgpack:"control"`
	End       Vec2          `json:"end" msgpack:"end"`
	StartTime time.Duration `json:"startTime" msgpack:"startTime"`
	Duration  time.Duration `json:"duration" msgpack:"duration"`
}

// At evaluates the curve at parameter t in [0,1]. t=0 and t=1 return
// Start and End exactly.
func (c Curve) At(t float64) Vec2 {
	switch {
	case t <= 0:
		return c.Start
	case t >= 1:
		return c.End
	}
	u := 1 - t
	a := u * u
	b := 2 * u * t
	d := t * t
	return Vec2{
		X: a*c.Start.X + b*c.Control.X + d*c.End.X,
		Y: a*c.Start.Y + b*c.Control.Y + d*c.End.Y,
	}
}

// Progress returns the linear time fraction at now, capped to [0,1].
func (c Curve) Progress(now time.Duration) float64 {
	if c.Duration <= 0 {
		return 1
	}
	return Clamp01(float64(now-c.StartTime) / float64(c.Duration))
}

// Deviation is the perpendicular distance from p to the Start→End chord.
// It stands in for flight height when shading the shadow.
func (c Curve) Deviation(p Vec2) float64 {
	chord, l := c.End.Sub(c.Start).Normalize()
	if l < minLength {
		return p.Dist(c.Start)
	}
	return math.Abs(p.Sub(c.Start).Dot(chord.Perp()))
}

func EaseInOutQuad(t float64) float64 {
	t = Clamp01(t)
	if t < 0.5 {
		return 2 * t * t
	}
	k := -2*t + 2
	return 1 - k*k/2
}

func EaseOutCubic(t float64) float64 {
	t = Clamp01(t)
	k := 1 - t
	return 1 - k*k*k
}

func EaseInQuad(t float64) float64 {
	t = Clamp01(t)
	return t * t
}

// DampedBounce is |sin| bouncing with exponential decay; 0 at t=0 and t=1.
func DampedBounce(t float64, bounces int) float64 {
	t = Clamp01(t)
	if t == 1 {
		return 0
	}
	return math.Exp(-3*t) * math.Abs(math.Sin(float64(bounces)*math.Pi*t))
}
