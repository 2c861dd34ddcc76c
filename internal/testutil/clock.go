// Package testutil holds deterministic stand-ins shared by package tests.
package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a resettable sequence source. The first Next
// returns 1. It satisfies runner.Sequencer.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock at 0.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last issued number.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// Epoch is the fixed wall time used by FixedNow.
var Epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// FixedNow returns a time source that always reports Epoch.
func FixedNow() func() time.Time {
	return func() time.Time { return Epoch }
}

// SteppingNow returns a time source that starts at Epoch and advances by
// step on every call.
func SteppingNow(step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := Epoch
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}
