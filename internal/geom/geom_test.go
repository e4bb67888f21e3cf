package geom

import (
	"math"
	"testing"
	"time"
)

func TestCurveEndpointsExact(t *testing.T) {
	tests := []struct {
		name  string
		curve Curve
	}{
		{"Straight", Curve{Start: V(0, 0), Control: V(50, 0), End: V(100, 0)}},
		{"Arced", Curve{Start: V(640, 540), Control: V(512.3, 201.7), End: V(433.1, 219.9)}},
		{"Fractional", Curve{Start: V(0.1, 0.2), Control: V(0.3, 0.7), End: V(1.0/3, 2.0/3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.curve.At(0); got != tt.curve.Start {
				t.Errorf("At(0) = %v, want %v", got, tt.curve.Start)
			}
			if got := tt.curve.At(1); got != tt.curve.End {
				t.Errorf("At(1) = %v, want %v", got, tt.curve.End)
			}
			if got := tt.curve.At(EaseInOutQuad(1)); got != tt.curve.End {
				t.Errorf("At(ease(1)) = %v, want %v", got, tt.curve.End)
			}
			if got := tt.curve.At(EaseInOutQuad(0)); got != tt.curve.Start {
				t.Errorf("At(ease(0)) = %v, want %v", got, tt.curve.Start)
			}
		})
	}
}

func TestCurveMidpoint(t *testing.T) {
	c := Curve{Start: V(0, 0), Control: V(50, -100), End: V(100, 0)}
	mid := c.At(0.5)
	if mid.X != 50 || mid.Y != -50 {
		t.Errorf("Expected midpoint (50,-50), got %v", mid)
	}
	if d := c.Deviation(mid); math.Abs(d-50) > 1e-9 {
		t.Errorf("Expected deviation 50, got %f", d)
	}
}

func TestCurveProgress(t *testing.T) {
	c := Curve{StartTime: 100 * time.Millisecond, Duration: 200 * time.Millisecond}
	tests := []struct {
		now  time.Duration
		want float64
	}{
		{50 * time.Millisecond, 0},
		{100 * time.Millisecond, 0},
		{200 * time.Millisecond, 0.5},
		{300 * time.Millisecond, 1},
		{900 * time.Millisecond, 1},
	}
	for _, tt := range tests {
		if got := c.Progress(tt.now); got != tt.want {
			t.Errorf("Progress(%v) = %f, want %f", tt.now, got, tt.want)
		}
	}

	if got := (Curve{}).Progress(0); got != 1 {
		t.Errorf("Zero-duration curve should be complete, got %f", got)
	}
}

func TestEasingBounds(t *testing.T) {
	for _, ease := range []func(float64) float64{EaseInOutQuad, EaseOutCubic, EaseInQuad} {
		if ease(0) != 0 || ease(1) != 1 {
			t.Errorf("Easing must map 0->0 and 1->1, got %f and %f", ease(0), ease(1))
		}
		prev := 0.0
		for i := 1; i <= 100; i++ {
			v := ease(float64(i) / 100)
			if v < prev {
				t.Fatalf("Easing not monotonic at %d: %f < %f", i, v, prev)
			}
			prev = v
		}
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	n, l := V(0, 0).Normalize()
	if n != (Vec2{}) || l != 0 {
		t.Errorf("Expected zero vector, got %v len %f", n, l)
	}
	n, l = V(3, 4).Normalize()
	if l != 5 || math.Abs(n.X-0.6) > 1e-12 || math.Abs(n.Y-0.8) > 1e-12 {
		t.Errorf("Unexpected normalize result %v len %f", n, l)
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 100, H: 50}
	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"Inside", 50, 40, true},
		{"Top-left corner", 10, 20, true},
		{"Bottom-right corner", 110, 70, true},
		{"Left of", 9.99, 40, false},
		{"Below", 50, 70.01, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%f,%f) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}

	if (Rect{X: 5, Y: 5}).Contains(5, 5) {
		t.Error("Zero-area rect must never contain a point")
	}
}
