// Package tick implements a framerate-independent fixed-interval
// accumulator, used to batch outbound per-tool network state and
// GetChunks requests onto a steady cadence regardless of how often the
// caller's event loop happens to run.
package tick

import "time"

// Timer accumulates elapsed wall-clock time as a time.Duration and
// reports how many whole ticks of a fixed interval have elapsed
// since it was last consumed, carrying any remainder (lag) forward.
//
// Grounded on the original implementation's net::timer::Timer: the
// same lag-accumulator shape, adapted from an Iterator-per-call into a
// single Elapsed() that returns a tick count, which is the more
// idiomatic Go shape for a poll-driven caller.
type Timer struct {
	interval time.Duration
	lastTick time.Time
	lag      time.Duration
}

// NewTimer creates a timer that fires once per interval.
func NewTimer(interval time.Duration) *Timer {
	return &Timer{interval: interval, lastTick: time.Now()}
}

// Elapsed reports how many whole intervals have passed since the timer
// was created or last called, carrying any fractional remainder (the
// "lag") forward so ticks never compound or drift: for any sequence of
// calls spanning real duration d, the total ticks returned times the
// interval never exceeds d, and never falls more than one interval
// short of it.
func (t *Timer) Elapsed() int {
	now := time.Now()
	t.lag += now.Sub(t.lastTick)
	t.lastTick = now

	ticks := 0
	for t.lag >= t.interval {
		t.lag -= t.interval
		ticks++
	}
	return ticks
}

// Interval returns the timer's configured tick interval.
func (t *Timer) Interval() time.Duration { return t.interval }
