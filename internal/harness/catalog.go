package harness

import (
	"fmt"
)

// Layout values accepted on a Descriptor.
const (
	LayoutDefault = "default"
	LayoutWide    = "wide"
	LayoutFull    = "full"
)

// Descriptor is the immutable metadata and grading binding for one task.
type Descriptor struct {
	// ID is the stable numeric identifier used in routes.
	ID int `json:"id"`

	// Name is the short display name.
	Name string `json:"name"`

	// Instructions is the read-only task text shown to the agent.
	Instructions string `json:"instructions"`

	// Hint is an optional UX hint shown under the instructions.
	Hint string `json:"hint,omitempty"`

	// Component names the widget rendered for this task.
	Component string `json:"component"`

	// Predicate grades the task. Nil means the task is ungraded and the
	// runner stays idle.
	Predicate Predicate `json:"-"`

	// RequiresSubmission enables the free-form result submission surface.
	RequiresSubmission bool `json:"requires_submission"`

	// Layout selects how much of the viewport the widget may use.
	Layout string `json:"layout"`
}

// Graded reports whether a predicate is bound.
func (d *Descriptor) Graded() bool {
	return d.Predicate != nil
}

// Catalog is the ordered, immutable task list.
type Catalog struct {
	tasks []Descriptor
	index map[int]int
}

// NewCatalog builds a catalog from descriptors in display order.
// IDs must be unique; empty layouts default to LayoutDefault.
func NewCatalog(tasks []Descriptor) (*Catalog, error) {
	c := &Catalog{
		tasks: make([]Descriptor, len(tasks)),
		index: make(map[int]int, len(tasks)),
	}
	for i, t := range tasks {
		if _, dup := c.index[t.ID]; dup {
			return nil, fmt.Errorf("tasks[%d]: duplicate task id %d", i, t.ID)
		}
		switch t.Layout {
		case "":
			t.Layout = LayoutDefault
		case LayoutDefault, LayoutWide, LayoutFull:
		default:
			return nil, fmt.Errorf("tasks[%d]: unknown layout %q", i, t.Layout)
		}
		c.tasks[i] = t
		c.index[t.ID] = i
	}
	return c, nil
}

// Len returns the number of tasks.
func (c *Catalog) Len() int {
	return len(c.tasks)
}

// All returns a copy of the descriptors in catalog order.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Lookup resolves a task by id.
func (c *Catalog) Lookup(id int) (*Descriptor, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	d := c.tasks[i]
	return &d, true
}

// Neighbors returns the tasks before and after id in catalog order.
// Either is nil at the boundaries; both are nil for an unknown id.
func (c *Catalog) Neighbors(id int) (prev, next *Descriptor) {
	i, ok := c.index[id]
	if !ok {
		return nil, nil
	}
	if i > 0 {
		p := c.tasks[i-1]
		prev = &p
	}
	if i < len(c.tasks)-1 {
		n := c.tasks[i+1]
		next = &n
	}
	return prev, next
}
