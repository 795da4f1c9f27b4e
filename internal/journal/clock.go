package journal

import "sync/atomic"

// Sequencer hands out the logical seq stamped on each journaled action.
// Implemented by Clock (production) and testutil.DeterministicClock (tests).
type Sequencer interface {
	// Next advances and returns the new seq.
	Next() int64

	// Current returns the last seq handed out.
	Current() int64
}

// Clock is a monotonic logical clock for action ordering.
//
// Every journaled action is stamped with a strictly increasing seq from
// this clock. Wall time is never used, so a session replays in the same
// order it was recorded.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that continues after start.
// Used to resume recording into an existing session.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
