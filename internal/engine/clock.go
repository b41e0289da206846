package engine

import "sync/atomic"

// Clock is the engine's logical step clock.
//
// It advances once per applied step (cascade rewrites do not tick it), so
// reaction log entries and cycle reports are stamped with step numbers
// rather than wall-clock time and replay identically.
type Clock struct {
	step atomic.Int64
}

// NewClock creates a clock at step 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock at a given step, for resuming from a
// snapshot taken mid-run.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.step.Store(start)
	return c
}

// Tick advances the clock and returns the new step.
func (c *Clock) Tick() int64 {
	return c.step.Add(1)
}

// Current returns the current step without advancing.
func (c *Clock) Current() int64 {
	return c.step.Load()
}
