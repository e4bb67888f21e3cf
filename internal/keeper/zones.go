package keeper

import (
	"math"

	"github.com/vladimirvolkov/penalty/internal/geom"
)

// diveOffset is a zone's dive direction in units of DiveDistance, plus the
// body lean to strike at the end of the dive.
type diveOffset struct {
	dx, dy   float64
	rotation float64
}

var diveTable = [...]diveOffset{
	1:  {-1, -1, -0.4},
	2:  {-0.5, -1, -0.2},
	3:  {0.5, -1, 0.2},
	4:  {1, -1, 0.4},
	5:  {-1, 0, -0.5},
	6:  {-0.5, 0, -0.2},
	7:  {0.5, 0, 0.2},
	8:  {1, 0, 0.5},
	9:  {-1, 0.5, -0.3},
	10: {-0.5, 0.5, -0.1},
	11: {0.5, 0.5, 0.1},
	12: {1, 0.5, 0.3},
}

// diveTarget returns the stance-relative dive destination for a zone.
// Unknown zones get a random direction, squashed vertically.
func (k *Keeper) diveTarget(zoneID int) (geom.Vec2, float64) {
	d := k.tuning.DiveDistance
	if zoneID >= 1 && zoneID < len(diveTable) {
		o := diveTable[zoneID]
		return geom.V(k.initial.X+o.dx*d, k.initial.Y+o.dy*d), o.rotation
	}
	a := k.rng.Float64() * 2 * math.Pi
	return geom.V(k.initial.X+math.Cos(a)*d, k.initial.Y+math.Sin(a)*d*0.7), 0
}
