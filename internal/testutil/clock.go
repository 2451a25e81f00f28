package testutil

import (
	"fmt"
	"sync"
	"time"
)

// Epoch is the default start time of a StepClock.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// StepClock is a deterministic wall clock for tests. Every call to Now
// advances it by a fixed step, so successive timestamps are distinct and
// ordered.
//
// Thread-safety: all methods are safe for concurrent use.
type StepClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	n     int64
}

// NewStepClock creates a clock starting at start. A zero start uses Epoch;
// a non-positive step uses one second.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	if start.IsZero() {
		start = Epoch
	}
	if step <= 0 {
		step = time.Second
	}
	return &StepClock{start: start, step: step}
}

// Now returns the current time and advances the clock by one step.
// The first call returns the start time.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Reset rewinds the clock to its start time.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}

// SequentialIDs generates predictable UUID-shaped identifiers:
// 00000000-0000-0000-0000-000000000001, ...-000000000002, and so on.
type SequentialIDs struct {
	mu sync.Mutex
	n  int64
}

// Next returns the next identifier.
func (g *SequentialIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", g.n)
}
