package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/taskbench/internal/check"
	"github.com/roach88/taskbench/internal/harness"
	"github.com/roach88/taskbench/internal/record"
)

// Registry maps predicate names to implementations so catalog files can
// bind tasks to predicates written in Go.
type Registry struct {
	mu    sync.RWMutex
	preds map[string]harness.Predicate
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{preds: make(map[string]harness.Predicate)}
}

// Register adds a predicate under name. Names are unique.
func (r *Registry) Register(name string, pred harness.Predicate) error {
	if name == "" {
		return fmt.Errorf("register predicate: empty name")
	}
	if pred == nil {
		return fmt.Errorf("register predicate %q: nil predicate", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.preds[name]; exists {
		return fmt.Errorf("register predicate %q: already registered", name)
	}
	r.preds[name] = pred
	return nil
}

// LookupPredicate returns the predicate registered under name.
func (r *Registry) LookupPredicate(name string) (harness.Predicate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.preds[name]
	return p, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.preds))
	for n := range r.preds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Built-in predicate names.
const (
	PredicateXEqualsFive  = "demo.x_equals_5"
	PredicateCounterTen   = "demo.counter_reaches_10"
	PredicateSliderWindow = "demo.slider_between_40_and_60"
)

// Builtins returns a registry holding the predicates shipped with
// taskbench.
func Builtins() *Registry {
	r := NewRegistry()
	for name, pred := range map[string]harness.Predicate{
		PredicateXEqualsFive:  xEqualsFive,
		PredicateCounterTen:   counterReachesTen,
		PredicateSliderWindow: sliderInWindow,
	} {
		if err := r.Register(name, pred); err != nil {
			panic(err)
		}
	}
	return r
}

func xEqualsFive(s record.Snapshot) (harness.Verdict, error) {
	x, _ := s.Float("x")
	return harness.Verdict{Success: x == 5}, nil
}

var counterReachesTen = check.All(
	check.Requires("counter"),
	check.Pure(func(s record.Snapshot) harness.Verdict {
		n, ok := s.Int("counter")
		if !ok {
			return harness.Fail("counter is not an integer")
		}
		if n != 10 {
			return harness.Failf("counter is %d, want 10", n)
		}
		return harness.Pass("")
	}),
)

var sliderInWindow = check.All(
	check.Requires("slider.value"),
	check.Pure(func(s record.Snapshot) harness.Verdict {
		v, ok := s.Float("slider.value")
		if !ok {
			return harness.Fail("slider.value is not a number")
		}
		if v < 40 || v > 60 {
			return harness.Failf("slider at %g, want between 40 and 60", v)
		}
		return harness.Pass("")
	}),
)
