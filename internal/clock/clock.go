// Package clock provides the frame clock that drives every simulated motion.
//
// All callbacks run on the goroutine calling Advance; nothing here blocks.
// A cancelled Task is inert: it is skipped when due and dropped on the next pass.
package clock

import (
	"sort"
	"time"
)

// Scheduler is the subset of Clock consumed by simulated entities.
type Scheduler interface {
	Now() time.Duration
	Schedule(delay time.Duration, fn func()) *Task
	EveryFrame(fn func(now time.Duration) bool) *Task
}

// Task is a handle to a scheduled callback.
type Task struct {
	seq       uint64
	due       time.Duration
	once      func()
	frame     func(now time.Duration) bool
	cancelled bool
	done      bool
}

// Cancel prevents any further invocation. Safe on nil and on finished tasks.
func (t *Task) Cancel() {
	if t != nil {
		t.cancelled = true
	}
}

// Active reports whether the task can still fire.
func (t *Task) Active() bool {
	return t != nil && !t.cancelled && !t.done
}

// Clock is a pausable simulated clock advanced explicitly by the game loop.
type Clock struct {
	now    time.Duration
	frame  uint64
	seq    uint64
	paused bool

	timers []*Task
	frames []*Task
}

func New() *Clock {
	return &Clock{}
}

// Now returns simulated time since the clock was created, excluding pauses.
func (c *Clock) Now() time.Duration { return c.now }

// Frame returns the number of Advance calls that moved time forward.
func (c *Clock) Frame() uint64 { return c.frame }

func (c *Clock) Pause()         { c.paused = true }
func (c *Clock) Resume()        { c.paused = false }
func (c *Clock) IsPaused() bool { return c.paused }

// Schedule runs fn once, on the first Advance at or after now+delay.
func (c *Clock) Schedule(delay time.Duration, fn func()) *Task {
	if delay < 0 {
		delay = 0
	}
	c.seq++
	t := &Task{seq: c.seq, due: c.now + delay, once: fn}
	c.timers = append(c.timers, t)
	return t
}

// EveryFrame runs fn on every subsequent Advance until it returns false
// or the task is cancelled. Registration order is execution order.
func (c *Clock) EveryFrame(fn func(now time.Duration) bool) *Task {
	c.seq++
	t := &Task{seq: c.seq, frame: fn}
	c.frames = append(c.frames, t)
	return t
}

// Advance moves time forward by dt, fires due timers in due order, then
// runs frame callbacks. Callbacks registered during this call are not run
// until the next Advance, except timers already due.
func (c *Clock) Advance(dt time.Duration) {
	if c.paused {
		return
	}
	if dt < 0 {
		dt = 0
	}
	c.now += dt
	c.frame++

	c.fireTimers()

	frames := c.frames
	c.frames = nil
	kept := frames[:0:0]
	for _, t := range frames {
		if t.cancelled {
			continue
		}
		if !t.frame(c.now) {
			t.done = true
			continue
		}
		if !t.cancelled {
			kept = append(kept, t)
		}
	}
	// Frame tasks registered by callbacks during this pass were appended to c.frames.
	c.frames = append(kept, c.frames...)
}

func (c *Clock) fireTimers() {
	for {
		var next *Task
		idx := -1
		for i, t := range c.timers {
			if t.cancelled || t.due > c.now {
				continue
			}
			if next == nil || t.due < next.due || (t.due == next.due && t.seq < next.seq) {
				next, idx = t, i
			}
		}
		if next == nil {
			break
		}
		c.timers = append(c.timers[:idx], c.timers[idx+1:]...)
		next.done = true
		next.once()
	}
	c.compact()
}

func (c *Clock) compact() {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	c.timers = live
	sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].due < c.timers[j].due })
}

// Pending returns the number of live timers and frame tasks.
func (c *Clock) Pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.cancelled {
			n++
		}
	}
	for _, t := range c.frames {
		if !t.cancelled {
			n++
		}
	}
	return n
}
