package game

import (
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/vladimirvolkov/penalty/internal/clock"
	"github.com/vladimirvolkov/penalty/internal/geom"
	"github.com/vladimirvolkov/penalty/internal/goal"
	"github.com/vladimirvolkov/penalty/internal/keeper"
)

// Cue names emitted with frames; they match the synthesized audio set.
const (
	CueKick    = "kick"
	CueGoal    = "goal"
	CueSave    = "save"
	CueOut     = "out"
	CueWhistle = "whistle"
)

type SessionHooks struct {
	OnOutcome  func(OutcomeEvent)
	OnGameOver func(Tallies)
}

// Session is one game of MaxBalls kicks: it spawns balls, routes their
// outcomes into tallies and owns the shared clock, goal and keeper.
// It is not safe for concurrent use; drive it from one goroutine.
type Session struct {
	settings Settings
	clock    *clock.Clock
	goal     *goal.Goal
	keeper   *keeper.Keeper
	gesture  *Gesture
	hooks    SessionHooks

	ball           *Ball
	tallies        Tallies
	ballsRemaining int
	gameOver       bool
	started        bool
	respawn        *clock.Task
	resize         *goal.Viewport
	last           *OutcomeEvent
	cues           []string
}

func NewSession(settings Settings, vp goal.Viewport, rng *rand.Rand, hooks SessionHooks) *Session {
	c := clock.New()
	g := goal.New(settings.Layout, vp)
	k := keeper.New(c, settings.Keeper, rng)
	k.SetGoal(g)

	return &Session{
		settings:       settings,
		clock:          c,
		goal:           g,
		keeper:         k,
		gesture:        NewGesture(settings.Shot),
		hooks:          hooks,
		ballsRemaining: settings.Session.MaxBalls,
	}
}

func (s *Session) Clock() *clock.Clock        { return s.clock }
func (s *Session) Goal() *goal.Goal           { return s.goal }
func (s *Session) Keeper() *keeper.Keeper     { return s.keeper }
func (s *Session) Ball() *Ball                { return s.ball }
func (s *Session) Tallies() Tallies           { return s.tallies }
func (s *Session) BallsRemaining() int        { return s.ballsRemaining }
func (s *Session) GameOver() bool             { return s.gameOver }
func (s *Session) LastOutcome() *OutcomeEvent { return s.last }

// Start spawns the first ball. Calling it again is a no-op.
func (s *Session) Start() {
	if s.started {
		return
	}
	s.started = true
	s.cue(CueWhistle)
	s.spawn()
	log.Printf("SESSION: started with %d balls", s.ballsRemaining)
}

func (s *Session) Pause()  { s.clock.Pause() }
func (s *Session) Resume() { s.clock.Resume() }

// Tick applies a queued resize, then advances the clock one frame, so
// geometry is current before any motion runs.
func (s *Session) Tick(dt time.Duration) {
	if s.resize != nil {
		s.applyResize(*s.resize)
		s.resize = nil
	}
	s.clock.Advance(dt)
}

// Resize queues a viewport change for the start of the next tick.
func (s *Session) Resize(vp goal.Viewport) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return
	}
	s.resize = &vp
}

func (s *Session) applyResize(vp goal.Viewport) {
	s.goal.Relayout(vp)
	s.keeper.Relayout()
	if s.ball != nil {
		pos, r := s.spawnPoint()
		s.ball.Place(pos, r)
	}
	log.Printf("SESSION: viewport %.0fx%.0f", vp.Width, vp.Height)
}

// Pointer feeds gesture input. Input is ignored unless an idle ball is
// waiting to be kicked.
func (s *Session) Pointer(phase PointerPhase, p geom.Vec2, at time.Duration) {
	if s.gameOver || s.ball == nil || s.ball.Phase() != PhaseIdle {
		s.gesture.Cancel()
		return
	}
	switch phase {
	case PointerDown:
		s.gesture.Down(p, at)
	case PointerMove:
		s.gesture.Move(p, at)
	case PointerUp:
		sw, ok := s.gesture.Up(p, at)
		if !ok {
			return
		}
		if _, launched := s.ball.Launch(sw); launched {
			s.tallies.Shots++
			s.tallies.Accuracy = accuracy(s.tallies)
			s.cue(CueKick)
		}
	}
}

// Reset removes the current ball without scoring it, resets the keeper
// and spawns a fresh ball. Tallies are kept; at least one ball is granted.
func (s *Session) Reset() {
	s.respawn.Cancel()
	s.respawn = nil
	if s.ball != nil {
		s.ball.DetachDestroyed()
		s.ball.Destroy()
		s.ball = nil
	}
	s.keeper.Reset()
	s.gesture.Cancel()
	if s.ballsRemaining < 1 {
		s.ballsRemaining = 1
	}
	s.gameOver = false
	s.started = true
	s.spawn()
	log.Printf("SESSION: reset, %d balls remaining", s.ballsRemaining)
}

// Restart clears tallies and begins a new game.
func (s *Session) Restart() {
	s.tallies = Tallies{}
	s.ballsRemaining = s.settings.Session.MaxBalls
	s.last = nil
	s.Reset()
	s.cue(CueWhistle)
}

func (s *Session) spawnPoint() (geom.Vec2, float64) {
	vp := s.goal.Viewport()
	t := s.settings.Session
	return geom.V(vp.Width/2, vp.Height*t.SpawnRatio), vp.Width * t.BallRatio
}

func (s *Session) spawn() {
	pos, r := s.spawnPoint()
	s.ball = NewBall(s.clock, s.goal, s.keeper, s.settings, pos, r, Hooks{
		OnGoal:      func(z goal.Zone) { s.record(OutcomeGoal, z) },
		OnSave:      func() { s.record(OutcomeSave, goal.Zone{}) },
		OnOut:       func() { s.record(OutcomeOut, goal.Zone{}) },
		OnDestroyed: s.ballDestroyed,
	})
}

func (s *Session) record(kind OutcomeKind, z goal.Zone) {
	switch kind {
	case OutcomeGoal:
		s.tallies.Goals++
		s.cue(CueGoal)
	case OutcomeSave:
		s.tallies.Saves++
		s.cue(CueSave)
	default:
		s.tallies.Outs++
		s.cue(CueOut)
	}
	s.tallies.Accuracy = accuracy(s.tallies)
	if s.ballsRemaining > 0 {
		s.ballsRemaining--
	}

	ev := OutcomeEvent{
		Kind:           kind.String(),
		Zone:           z.ID,
		Tallies:        s.tallies,
		BallsRemaining: s.ballsRemaining,
	}
	s.last = &ev
	log.Printf("SESSION: %s (zone %d) goals=%d saves=%d outs=%d remaining=%d",
		ev.Kind, ev.Zone, s.tallies.Goals, s.tallies.Saves, s.tallies.Outs, s.ballsRemaining)
	if s.hooks.OnOutcome != nil {
		s.hooks.OnOutcome(ev)
	}
}

func (s *Session) ballDestroyed() {
	s.ball = nil
	if s.ballsRemaining <= 0 {
		s.gameOver = true
		s.cue(CueWhistle)
		log.Printf("SESSION: game over, %d/%d goals (%.1f%%)", s.tallies.Goals, s.tallies.Shots, s.tallies.Accuracy)
		if s.hooks.OnGameOver != nil {
			s.hooks.OnGameOver(s.tallies)
		}
		return
	}
	s.respawn = s.clock.Schedule(s.settings.Session.RespawnDelay, func() {
		s.respawn = nil
		s.keeper.Reset()
		s.spawn()
	})
}

func (s *Session) cue(name string) {
	s.cues = append(s.cues, name)
}

// Frame snapshots the session and consumes queued cues.
func (s *Session) Frame() Frame {
	left, right, bar := s.goal.Posts()
	f := Frame{
		Tick:           s.clock.Frame(),
		TimeMs:         s.clock.Now().Milliseconds(),
		GameOver:       s.gameOver,
		Viewport:       s.goal.Viewport(),
		Keeper:         s.keeper.State(),
		GoalArea:       s.goal.GoalArea(),
		Posts:          [3]geom.Rect{left, right, bar},
		Zones:          s.goal.Zones(),
		Tallies:        s.tallies,
		BallsRemaining: s.ballsRemaining,
		Aiming:         s.gesture.Active(),
		Power:          s.gesture.Power(),
		LastOutcome:    s.last,
		Cues:           s.cues,
	}
	if s.ball != nil {
		st := s.ball.State()
		f.Ball = &st
	}
	s.cues = nil
	return f
}

func accuracy(t Tallies) float64 {
	if t.Shots == 0 {
		return 0
	}
	return math.Round(float64(t.Goals)/float64(t.Shots)*1000) / 10
}
