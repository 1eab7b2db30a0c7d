package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start of a DeterministicClock: 2025-01-15 10:00:00 UTC.
var Epoch = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

// DeterministicClock is a thread-safe wall clock for tests that advances by a
// fixed step on every reading.
//
// The first call to Now returns the start time. Reset rewinds the clock so
// the same scenario can run twice with identical timestamps.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	n     int64
}

// NewDeterministicClock creates a clock starting at Epoch with a one minute step.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(Epoch, time.Minute)
}

// NewDeterministicClockAt creates a clock starting at start advancing by step.
func NewDeterministicClockAt(start time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{start: start, step: step}
}

// Now returns the current reading and advances the clock.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Readings is how many times Now has been called since the last Reset.
func (c *DeterministicClock) Readings() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock to its start time.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
