package testutil

import "sync"

// DeterministicClock is a resettable journal.Sequencer for tests.
//
// The harness uses one to number trace events and tests use it to feed
// journal.Recorder predictable seqs. Gaps can be forced with Skip to
// check that readers order by seq rather than assume density.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock returns a clock whose first Next is 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next advances the clock and returns the new value.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last value handed out, or 0.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Skip advances the clock by n without handing the values out.
func (c *DeterministicClock) Skip(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq += n
}

// Reset rewinds the clock so the next call to Next returns 1.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
