package testutil

import "sync"

// Recorder captures reported values in order. A Recorder[runner.Transition]
// satisfies runner.Reporter.
type Recorder[T any] struct {
	mu    sync.Mutex
	items []T
}

// Report appends v.
func (r *Recorder[T]) Report(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, v)
}

// All returns a copy of everything recorded.
func (r *Recorder[T]) All() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of recorded values.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Reset discards recorded values.
func (r *Recorder[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
