package game

import (
	"log"
	"math"
	"time"

	"github.com/vladimirvolkov/penalty/internal/clock"
	"github.com/vladimirvolkov/penalty/internal/geom"
	"github.com/vladimirvolkov/penalty/internal/goal"
	"github.com/vladimirvolkov/penalty/internal/keeper"
)

// GeometryProvider is the read-only goal layout consumed by shots and balls.
type GeometryProvider interface {
	Viewport() goal.Viewport
	GoalArea() geom.Rect
	Center() geom.Vec2
	Zones() []goal.Zone
	ZoneAt(x, y float64) (goal.Zone, bool)
	NearestZone(p geom.Vec2) goal.Zone
	InGoalArea(x, y float64) bool
	InteractionZoneAt(x, y float64) (goal.InteractionZone, bool)
}

// KeeperAgent is the goalkeeper as seen by a ball.
type KeeperAgent interface {
	AttemptCatch(req keeper.CatchRequest) <-chan keeper.CatchResult
	Reset()
}

// Hooks are the outcome router callbacks. Exactly one of OnGoal, OnSave
// and OnOut fires per ball, followed by OnDestroyed.
type Hooks struct {
	OnGoal      func(goal.Zone)
	OnSave      func()
	OnOut       func()
	OnDestroyed func()
}

type settle struct {
	from, to  geom.Vec2
	amplitude float64
	began     time.Duration
	duration  time.Duration
	done      bool
}

type Ball struct {
	clock  clock.Scheduler
	geo    GeometryProvider
	keeper KeeperAgent
	shotT  ShotTuning
	tuning FlightTuning
	hooks  Hooks

	pos         geom.Vec2
	radius      float64
	scale       float64
	height      float64
	shadowScale float64
	shadowAlpha float64

	phase   Phase
	shot    Shot
	curve   *geom.Curve
	settle  *settle
	pending Pending
	outcome Outcome

	snapped         bool
	inGoal          bool
	keeperTriggered bool
	deflectUntil    time.Duration
	catchCh         <-chan keeper.CatchResult
	catchAt         time.Duration

	loop      *clock.Task
	finalize  *clock.Task
	reported  bool
	destroyed bool
}

// NewBall places an idle ball. k may be nil, in which case goals are
// scored straight from the deferred pending zone.
func NewBall(sched clock.Scheduler, geo GeometryProvider, k KeeperAgent, settings Settings, pos geom.Vec2, radius float64, hooks Hooks) *Ball {
	return &Ball{
		clock:       sched,
		geo:         geo,
		keeper:      k,
		shotT:       settings.Shot,
		tuning:      settings.Flight,
		hooks:       hooks,
		pos:         pos,
		radius:      radius,
		scale:       1,
		shadowScale: 1,
		shadowAlpha: 1,
	}
}

func (b *Ball) Position() geom.Vec2 { return b.pos }
func (b *Ball) Phase() Phase        { return b.phase }
func (b *Ball) Shot() Shot          { return b.shot }
func (b *Ball) Pending() Pending    { return b.pending }
func (b *Ball) Outcome() Outcome    { return b.outcome }
func (b *Ball) Destroyed() bool     { return b.destroyed }

// Place moves an idle ball, used when the viewport changes before a kick.
func (b *Ball) Place(pos geom.Vec2, radius float64) {
	if b.phase != PhaseIdle {
		return
	}
	b.pos = pos
	b.radius = radius
}

func (b *Ball) State() BallState {
	s := BallState{
		Position:    b.pos,
		Radius:      b.radius,
		Scale:       b.scale,
		Height:      b.height,
		ShadowScale: b.shadowScale,
		ShadowAlpha: b.shadowAlpha,
		Phase:       b.phase.String(),
	}
	if b.phase != PhaseIdle {
		s.Class = b.shot.Class.String()
		s.Power = b.shot.Power
	}
	return s
}

// Launch plans and starts a flight. It is a no-op unless the ball is idle
// and the swipe clears the minimum distance/power gate.
func (b *Ball) Launch(sw Swipe) (Shot, bool) {
	if b.destroyed || b.phase != PhaseIdle {
		return Shot{}, false
	}
	shot, ok := PlanShot(b.geo, b.pos, sw, b.shotT)
	if !ok {
		return Shot{}, false
	}
	shot.Curve.StartTime = b.clock.Now()
	b.shot = shot
	b.curve = &b.shot.Curve
	b.snapped = shot.Snap
	b.phase = PhaseFlying

	log.Printf("SHOT: power=%.1f%% speed=%.0fpx/s range=%.0f class=%s zone=%d duration=%v",
		shot.Power, shot.Speed, shot.Range, shot.Class, shot.Zone.ID, shot.Curve.Duration)

	b.loop = b.clock.EveryFrame(b.step)
	return shot, true
}

func (b *Ball) step(now time.Duration) bool {
	if b.destroyed {
		return false
	}
	b.pollCatch(now)

	switch b.phase {
	case PhaseFlying:
		b.fly(now)
	case PhaseSettling:
		b.settleStep(now)
	default:
		return false
	}
	return b.phase != PhaseConcluded
}

func (b *Ball) fly(now time.Duration) {
	c := b.curve
	p := c.Progress(now)
	b.pos = c.At(geom.EaseInOutQuad(p))
	b.height = c.Deviation(b.pos)
	b.updateVisuals()

	if b.keeper != nil && !b.keeperTriggered &&
		p > b.tuning.KeeperWindowStart && p < b.tuning.KeeperWindowEnd {
		area := b.geo.GoalArea()
		if b.pos.Dist(b.geo.Center()) <= math.Max(area.W, area.H)*b.tuning.KeeperRange {
			b.requestCatch(now)
		}
	}

	if now >= b.deflectUntil && !b.inGoal && b.geo.InGoalArea(b.pos.X, b.pos.Y) {
		b.inGoal = true
		if b.pending.Kind == PendingNone && !b.shot.Class.Miss() {
			b.pending = Pending{Kind: PendingGoal, Zone: b.zoneAt(b.pos)}
		}
	}

	if p >= 1 {
		b.curve = nil
		b.beginSettle(now)
	}
}

// requestCatch asks the keeper to go for the predicted end point. The
// trigger flag is set before the call so it fires at most once per flight.
func (b *Ball) requestCatch(now time.Duration) {
	b.keeperTriggered = true
	end := b.curve.End
	req := keeper.CatchRequest{Ball: end, BallRadius: b.radius}
	if z, ok := b.geo.ZoneAt(end.X, end.Y); ok {
		req.Zone = &z
	}
	b.catchCh = b.keeper.AttemptCatch(req)
	b.catchAt = now
	b.pollCatch(now)
}

func (b *Ball) pollCatch(now time.Duration) {
	if b.catchCh == nil {
		return
	}
	select {
	case res := <-b.catchCh:
		b.catchCh = nil
		b.onCatch(now, res)
	default:
		if now-b.catchAt > b.tuning.CatchWait {
			log.Printf("KEEPER: no catch result after %v, treating as miss", now-b.catchAt)
			b.catchCh = nil
		}
	}
}

func (b *Ball) onCatch(now time.Duration, res keeper.CatchResult) {
	if !res.Caught || b.phase == PhaseConcluded || b.destroyed {
		return
	}
	b.deflect(now, res.Pos)
}

// deflect re-launches the ball away from the catch point, biased away from
// the goal center, and marks the shot as a pending save.
func (b *Ball) deflect(now time.Duration, catchPos geom.Vec2) {
	away, _ := b.pos.Sub(catchPos).Normalize()
	out, _ := b.pos.Sub(b.geo.Center()).Normalize()
	dir, l := away.Add(out.Scale(b.tuning.GoalBias)).Normalize()
	if l == 0 {
		dir = geom.V(0, 1)
	}

	dist := b.tuning.DeflectDistance + b.shot.Power
	end := b.geo.Viewport().Bounds().ClampPoint(b.pos.Add(dir.Scale(dist)))
	mid := b.pos.Lerp(end, 0.5)
	ctrl := mid.Add(dir.Perp().Scale(dist * 0.15))

	b.curve = &geom.Curve{
		Start:     b.pos,
		Control:   ctrl,
		End:       end,
		StartTime: now,
		Duration:  b.tuning.DeflectDuration,
	}
	b.settle = nil
	b.phase = PhaseFlying
	b.snapped = false
	b.inGoal = false
	b.pending = Pending{Kind: PendingSave, Zone: b.zoneAt(catchPos)}
	b.deflectUntil = now + b.tuning.DeflectCooldown

	log.Printf("DEFLECT: ball at (%.0f,%.0f) caught at (%.0f,%.0f), redirected to (%.0f,%.0f)",
		b.pos.X, b.pos.Y, catchPos.X, catchPos.Y, end.X, end.Y)
}

func (b *Ball) beginSettle(now time.Duration) {
	t := b.tuning
	s := &settle{from: b.pos, began: now}

	if b.snapped && b.geo.InGoalArea(b.pos.X, b.pos.Y) {
		area := b.geo.GoalArea()
		floor := math.Max(area.Y, area.Bottom()-t.NetInset)
		s.to = geom.V(b.pos.X, math.Max(b.pos.Y, floor))
		s.amplitude = math.Min(t.GoalBounce, b.shot.Power*t.GoalBounceGain)
		s.duration = t.GoalSettle
	} else {
		s.to = b.pos.Add(geom.V(0, t.MissDrop))
		s.amplitude = math.Min(t.MissBounce, b.shot.Power*t.MissBounceGain)
		s.duration = t.MissSettle
	}
	b.settle = s
	b.phase = PhaseSettling
}

func (b *Ball) settleStep(now time.Duration) {
	s := b.settle
	if !s.done {
		p := 1.0
		if s.duration > 0 {
			p = geom.Clamp01(float64(now-s.began) / float64(s.duration))
		}
		bounce := geom.DampedBounce(p, b.tuning.Bounces) * s.amplitude
		b.pos = s.from.Lerp(s.to, geom.EaseOutCubic(p)).Sub(geom.V(0, bounce))
		b.height = bounce
		b.updateVisuals()
		if p >= 1 {
			b.pos = s.to
			b.height = 0
			s.done = true
		}
	}
	// An outstanding catch can still deflect the ball, so hold off.
	if s.done && b.catchCh == nil {
		b.conclude()
	}
}

// conclude picks the outcome from the final resting position.
func (b *Ball) conclude() {
	final := b.pos
	in := b.geo.InGoalArea(final.X, final.Y)

	// A snapped ball drops to the net floor after crossing the line, so
	// report the zone it was aimed at rather than where it came to rest.
	var zone goal.Zone
	switch {
	case b.snapped && goal.ValidZoneID(b.shot.Zone.ID):
		zone = b.shot.Zone
	case b.pending.Kind == PendingGoal:
		zone = b.pending.Zone
	default:
		zone = b.zoneAt(final)
	}

	var kind OutcomeKind
	switch {
	case b.shot.Class.Miss():
		kind = OutcomeOut
	case b.pending.Kind == PendingSave:
		kind = OutcomeSave
		if in {
			kind = OutcomeGoal
		}
	case b.pending.Kind == PendingGoal:
		kind = OutcomeOut
		if in {
			kind = OutcomeGoal
		}
	case in:
		kind = OutcomeGoal
	default:
		kind = OutcomeOut
	}

	b.outcome = Outcome{Kind: kind, Zone: zone}
	b.phase = PhaseConcluded
	log.Printf("OUTCOME: %s zone=%d at (%.0f,%.0f) pending=%d class=%s",
		kind, zone.ID, final.X, final.Y, b.pending.Kind, b.shot.Class)

	b.finalize = b.clock.Schedule(b.tuning.FinalizeDelay, b.report)
}

func (b *Ball) report() {
	if b.destroyed || b.reported {
		return
	}
	b.reported = true
	switch b.outcome.Kind {
	case OutcomeGoal:
		if b.hooks.OnGoal != nil {
			b.hooks.OnGoal(b.outcome.Zone)
		}
	case OutcomeSave:
		if b.hooks.OnSave != nil {
			b.hooks.OnSave()
		}
	default:
		if b.hooks.OnOut != nil {
			b.hooks.OnOut()
		}
	}
	b.Destroy()
}

// DetachDestroyed drops the OnDestroyed hook so a forced removal does not
// trigger the router's respawn path.
func (b *Ball) DetachDestroyed() {
	b.hooks.OnDestroyed = nil
}

// Destroy stops all pending work. OnDestroyed is cleared before it runs.
func (b *Ball) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.loop.Cancel()
	b.finalize.Cancel()
	b.catchCh = nil

	cb := b.hooks.OnDestroyed
	b.hooks.OnDestroyed = nil
	if cb != nil {
		cb()
	}
}

func (b *Ball) zoneAt(p geom.Vec2) goal.Zone {
	if z, ok := b.geo.ZoneAt(p.X, p.Y); ok {
		return z
	}
	return b.geo.NearestZone(p)
}

// updateVisuals derives shadow and depth scale from the flight height.
func (b *Ball) updateVisuals() {
	b.shadowScale = math.Max(0.3, 1-b.height*0.002)
	b.shadowAlpha = math.Max(0.2, 1-b.height*0.003)

	area := b.geo.GoalArea()
	switch {
	case b.snapped:
		b.scale = geom.Lerp(b.scale, b.tuning.SnapScale, 0.1)
	case area.Contains(b.pos.X, b.pos.Y):
		depth := (area.Bottom() - b.pos.Y) / area.H
		b.scale = 1 - depth*(1-b.tuning.SnapScale)
	default:
		b.scale = geom.Lerp(b.scale, 1, 0.1)
	}
}
