package runner

import "sync/atomic"

// Sequencer hands out strictly increasing transition sequence numbers.
type Sequencer interface {
	Next() int64
}

// Clock is the default Sequencer: a monotonic logical clock.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start, used when a persisted
// session already holds transitions up to start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
