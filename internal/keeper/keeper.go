package keeper

import (
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/vladimirvolkov/penalty/internal/clock"
	"github.com/vladimirvolkov/penalty/internal/geom"
	"github.com/vladimirvolkov/penalty/internal/goal"
)

// Goal is the geometry the keeper positions itself against.
type Goal interface {
	GoalArea() geom.Rect
	Scale() float64
	Viewport() goal.Viewport
}

type Tuning struct {
	CatchProbability float64       `toml:"catch_probability"`
	Cooldown         time.Duration `toml:"cooldown"`
	ReachFactor      float64       `toml:"reach_factor"`
	DiveDistance     float64       `toml:"dive_distance"`
	ArmLength        float64       `toml:"arm_length"`
	JumpHeight       float64       `toml:"jump_height"`
	StanceInset      float64       `toml:"stance_inset"`
	DiveDuration     time.Duration `toml:"dive_duration"`
	FailedDive       time.Duration `toml:"failed_dive_duration"`
	FailedDiveReach  float64       `toml:"failed_dive_reach"`
	FallDelay        time.Duration `toml:"fall_delay"`
	FallDuration     time.Duration `toml:"fall_duration"`
}

func DefaultTuning() Tuning {
	return Tuning{
		CatchProbability: 0.7,
		Cooldown:         1500 * time.Millisecond,
		ReachFactor:      1.5,
		DiveDistance:     220,
		ArmLength:        80,
		JumpHeight:       120,
		StanceInset:      20,
		DiveDuration:     450 * time.Millisecond,
		FailedDive:       300 * time.Millisecond,
		FailedDiveReach:  0.7,
		FallDelay:        150 * time.Millisecond,
		FallDuration:     500 * time.Millisecond,
	}
}

type Pose uint8

const (
	PoseIdle Pose = iota
	PoseDiving
	PoseFalling
)

func (p Pose) String() string {
	switch p {
	case PoseDiving:
		return "diving"
	case PoseFalling:
		return "falling"
	}
	return "idle"
}

// State is a snapshot for rendering and inspection.
type State struct {
	Position         geom.Vec2     `json:"position" msgpack:"position"`
	Rotation         float64       `json:"rotation" msgpack:"rotation"`
	BodyRotation     float64       `json:"bodyRotation" msgpack:"bodyRotation"`
	Scale            float64       `json:"scale" msgpack:"scale"`
	Pose             Pose          `json:"pose" msgpack:"pose"`
	Active           bool          `json:"active" msgpack:"active"`
	Animating        bool          `json:"animating" msgpack:"animating"`
	CatchProbability float64       `json:"catchProbability" msgpack:"catchProbability"`
	LastActionTime   time.Duration `json:"lastActionTime" msgpack:"lastActionTime"`
}

type CatchRequest struct {
	Ball       geom.Vec2
	Zone       *goal.Zone
	BallRadius float64
}

// CatchResult reports a catch attempt. Attempted is false when the keeper
// declined without moving (inactive, mid-dive, or cooling down); Zone and
// Pos are only meaningful when Attempted is true.
type CatchResult struct {
	Caught    bool
	Attempted bool
	Zone      goal.Zone
	Pos       geom.Vec2
}

// resolver delivers exactly one result on a buffered channel.
type resolver struct {
	ch   chan CatchResult
	done bool
}

func newResolver() *resolver {
	return &resolver{ch: make(chan CatchResult, 1)}
}

func (r *resolver) resolve(res CatchResult) {
	if r == nil || r.done {
		return
	}
	r.done = true
	r.ch <- res
}

// Keeper is the goalkeeper agent. It is shared by successive balls; its
// active/animating flags and cooldown are the only synchronization.
type Keeper struct {
	clock  clock.Scheduler
	rng    *rand.Rand
	tuning Tuning
	goal   Goal

	initial         geom.Vec2
	initialRotation float64
	pos             geom.Vec2
	rotation        float64
	bodyRotation    float64
	scale           float64
	pose            Pose
	active          bool
	animating       bool

	lastAction time.Duration
	hasActed   bool

	anim    *clock.Task
	pending *resolver
}

func New(sched clock.Scheduler, tuning Tuning, rng *rand.Rand) *Keeper {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	k := &Keeper{
		clock:  sched,
		rng:    rng,
		tuning: tuning,
		scale:  1,
	}
	k.SetCatchProbability(tuning.CatchProbability)
	k.Reset()
	return k
}

// SetGoal attaches the keeper to a goal and re-derives its stance.
func (k *Keeper) SetGoal(g Goal) {
	k.goal = g
	k.Relayout()
}

// Relayout recomputes scale and stance after the goal changed size.
// An idle keeper snaps to the new stance immediately.
func (k *Keeper) Relayout() {
	if k.goal == nil {
		return
	}
	vp := k.goal.Viewport()
	screen := geom.Clamp(math.Min(vp.Width/1920, vp.Height/1080), 0.6, 1.4)
	k.scale = k.goal.Scale() * 0.6 * screen
	if k.scale <= 0 {
		k.scale = 1
	}

	area := k.goal.GoalArea()
	k.initial = geom.V(area.X+area.W/2, area.Bottom()-k.tuning.StanceInset)
	if !k.animating {
		k.pos = k.initial
		k.rotation = k.initialRotation
	}
}

// Reset returns the keeper to its stance, cancels any animation and clears
// the cooldown. An outstanding catch resolves as a miss.
func (k *Keeper) Reset() {
	k.anim.Cancel()
	k.anim = nil
	k.pending.resolve(CatchResult{})
	k.pending = nil

	k.pos = k.initial
	k.rotation = k.initialRotation
	k.bodyRotation = 0
	k.pose = PoseIdle
	k.active = true
	k.animating = false
	k.lastAction = 0
	k.hasActed = false
}

func (k *Keeper) SetCatchProbability(p float64) {
	k.tuning.CatchProbability = geom.Clamp01(p)
}

func (k *Keeper) CatchProbability() float64 { return k.tuning.CatchProbability }

func (k *Keeper) State() State {
	return State{
		Position:         k.pos,
		Rotation:         k.rotation,
		BodyRotation:     k.bodyRotation,
		Scale:            k.scale,
		Pose:             k.pose,
		Active:           k.active,
		Animating:        k.animating,
		CatchProbability: k.tuning.CatchProbability,
		LastActionTime:   k.lastAction,
	}
}

// CollisionRadius is the body radius used when drawing contact effects.
func (k *Keeper) CollisionRadius() float64 { return 40 * k.scale }

// AttemptCatch starts a dive toward the ball and returns a channel that
// receives exactly one result, possibly on a later frame. Declined attempts
// resolve immediately without touching position or animation state.
func (k *Keeper) AttemptCatch(req CatchRequest) (out <-chan CatchResult) {
	r := newResolver()
	now := k.clock.Now()

	if !k.active || k.animating {
		r.resolve(CatchResult{})
		return r.ch
	}
	if k.hasActed && now-k.lastAction < k.tuning.Cooldown {
		log.Printf("KEEPER: cooling down (%v since last dive), skipping", now-k.lastAction)
		r.resolve(CatchResult{})
		return r.ch
	}

	k.lastAction = now
	k.hasActed = true

	defer func() {
		if p := recover(); p != nil {
			log.Printf("KEEPER: catch attempt aborted: %v", p)
			k.abort(r)
			out = r.ch
		}
	}()

	willAttempt := k.rng.Float64() < k.tuning.CatchProbability
	zone := k.pickZone(req.Zone)

	k.pending = r
	k.animating = true
	k.active = false

	if !willAttempt || !k.canReach(req.Ball) {
		log.Printf("KEEPER: failed dive to zone %d (attempt=%v)", zone.ID, willAttempt)
		k.failedDive(zone, req.Ball, r)
		return r.ch
	}

	log.Printf("KEEPER: diving for ball at (%.1f,%.1f) zone %d", req.Ball.X, req.Ball.Y, zone.ID)
	k.catchDive(zone, req.Ball, r)
	return r.ch
}

func (k *Keeper) pickZone(z *goal.Zone) goal.Zone {
	if z != nil && goal.ValidZoneID(z.ID) {
		return *z
	}
	return goal.ZoneByID(k.rng.Intn(goal.ZoneCount) + 1)
}

// canReach rejects balls outside ReachFactor goal-widths/heights of the
// goal center. Without a goal every ball is reachable.
func (k *Keeper) canReach(ball geom.Vec2) bool {
	if k.goal == nil {
		return true
	}
	area := k.goal.GoalArea()
	c := area.Center()
	return math.Abs(ball.X-c.X) <= area.W*k.tuning.ReachFactor &&
		math.Abs(ball.Y-c.Y) <= area.H*k.tuning.ReachFactor
}

// failedDive lunges most of the way toward the zone's dive target, falls
// back to the stance, then resolves with a deflection point away from the ball.
func (k *Keeper) failedDive(zone goal.Zone, ball geom.Vec2, r *resolver) {
	k.pose = PoseDiving
	target, rot := k.diveTarget(zone.ID)

	start := k.pos
	startRot := k.rotation
	delta := target.Sub(start).Scale(k.tuning.FailedDiveReach)
	began := k.clock.Now()
	dur := k.tuning.FailedDive

	k.animate(r, func(now time.Duration) bool {
		p := progress(now-began, dur)
		e := geom.EaseOutCubic(p)
		k.rotation = startRot + (rot-startRot)*e
		k.pos = start.Add(delta.Scale(e))
		if p < 1 {
			return true
		}
		k.fall(func() {
			r.resolve(CatchResult{Attempted: true, Zone: zone, Pos: k.deflectPoint(ball)})
		})
		return false
	})
}

// catchDive jumps so the hand, ArmLength ahead of the body, meets the ball.
// The result resolves at half progress with the live body position.
func (k *Keeper) catchDive(zone goal.Zone, ball geom.Vec2, r *resolver) {
	k.pose = PoseDiving

	arm := k.tuning.ArmLength * k.scale
	jump := k.tuning.JumpHeight * k.scale

	start := k.pos
	d := ball.Sub(start)
	angle := math.Atan2(d.Y, d.X)
	body := BodyTarget(start, ball, arm)
	travel := body.Sub(start)

	var targetRot float64
	switch {
	case zone.Row == 0:
		targetRot = -0.5 * geom.Sign(d.X)
	case zone.Row >= goal.Rows-1:
		targetRot = 0.2 * geom.Sign(d.X)
	default:
		targetRot = angle * 0.5
	}
	startRot := k.bodyRotation

	began := k.clock.Now()
	dur := k.tuning.DiveDuration

	k.animate(r, func(now time.Duration) bool {
		p := progress(now-began, dur)
		e := geom.EaseOutCubic(p)
		k.pos = geom.V(
			start.X+travel.X*e,
			start.Y+travel.Y*e-math.Sin(p*math.Pi)*jump,
		)
		k.bodyRotation = startRot + (targetRot-startRot)*e

		if p >= 0.5 {
			r.resolve(CatchResult{Caught: true, Attempted: true, Zone: zone, Pos: k.pos})
		}
		if p < 1 {
			return true
		}
		k.anim = k.clock.Schedule(k.tuning.FallDelay, func() { k.fall(nil) })
		return false
	})
}

// fall eases the keeper back to its stance and re-arms it.
func (k *Keeper) fall(then func()) {
	k.pose = PoseFalling
	start := k.pos
	startRot := k.rotation
	began := k.clock.Now()
	dur := k.tuning.FallDuration
	r := k.pending

	k.animate(r, func(now time.Duration) bool {
		p := progress(now-began, dur)
		e := geom.EaseInQuad(p)
		k.pos = start.Lerp(k.initial, e)
		k.rotation = startRot + (k.initialRotation-startRot)*e
		if p < 1 {
			return true
		}
		k.settle()
		if then != nil {
			then()
		}
		return false
	})
}

// animate runs step every frame; a panic resolves the attempt as a miss
// and returns the keeper to its stance.
func (k *Keeper) animate(r *resolver, step func(now time.Duration) bool) {
	k.anim = k.clock.EveryFrame(func(now time.Duration) (more bool) {
		defer func() {
			if p := recover(); p != nil {
				log.Printf("KEEPER: animation aborted: %v", p)
				k.abort(r)
				more = false
			}
		}()
		return step(now)
	})
}

func (k *Keeper) abort(r *resolver) {
	r.resolve(CatchResult{})
	k.anim.Cancel()
	k.anim = nil
	k.settle()
}

func (k *Keeper) settle() {
	k.pos = k.initial
	k.rotation = k.initialRotation
	k.bodyRotation = 0
	k.pose = PoseIdle
	k.animating = false
	k.active = true
	k.pending = nil
}

// deflectPoint picks a spot beside a post, away from the goal center and
// at least 60px from avoid, so a miss never reads as a parry at the ball.
func (k *Keeper) deflectPoint(avoid geom.Vec2) geom.Vec2 {
	var area geom.Rect
	if k.goal != nil {
		area = k.goal.GoalArea()
	}
	side := 1.0
	if k.rng.Float64() < 0.5 {
		side = -1
	}
	if area.W <= 0 || area.H <= 0 {
		return geom.V(
			k.initial.X+side*(80+k.rng.Float64()*120),
			k.initial.Y-20+k.rng.Float64()*80,
		)
	}

	var p geom.Vec2
	if side < 0 {
		p.X = area.X - 40 - k.rng.Float64()*80
	} else {
		p.X = area.Right() + 40 + k.rng.Float64()*80
	}
	p.Y = area.Y + k.rng.Float64()*area.H*0.8 + area.H*0.1
	if p.Dist(avoid) < 60 {
		p.X += side * 80
		p.Y += (k.rng.Float64() - 0.5) * 80
	}
	return p
}

// BodyTarget is where the body center must land so a hand arm px ahead,
// along the body→ball line, touches the ball.
func BodyTarget(body, ball geom.Vec2, arm float64) geom.Vec2 {
	d := ball.Sub(body)
	angle := math.Atan2(d.Y, d.X)
	return geom.V(ball.X-math.Cos(angle)*arm, ball.Y-math.Sin(angle)*arm)
}

func progress(elapsed, dur time.Duration) float64 {
	if dur <= 0 {
		return 1
	}
	return geom.Clamp01(float64(elapsed) / float64(dur))
}
