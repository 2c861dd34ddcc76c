// Package viewer is the task navigator: it owns the active task, switches
// the runner when a different task is opened, and assembles the page model
// rendered by the web layer.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/taskbench/internal/harness"
	"github.com/roach88/taskbench/internal/record"
	"github.com/roach88/taskbench/internal/runner"
	"github.com/roach88/taskbench/internal/store"
	"github.com/roach88/taskbench/internal/submission"
)

// ErrUnknownTask is returned when an id is not in the catalog.
var ErrUnknownTask = errors.New("unknown task")

// Link points at a neighboring task.
type Link struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Page is everything needed to render one task.
type Page struct {
	Task harness.Descriptor `json:"task"`

	// ShowVerdict is set when the task has a predicate.
	ShowVerdict bool `json:"show_verdict"`

	// ShowSubmit is set when the task takes a free-form result.
	ShowSubmit bool `json:"show_submit"`

	// TestMode renders only the widget, without navigation chrome.
	TestMode bool `json:"test_mode"`

	Prev *Link `json:"prev,omitempty"`
	Next *Link `json:"next,omitempty"`

	// Verdict is the current verdict; nil for ungraded tasks.
	Verdict   *harness.Verdict `json:"verdict,omitempty"`
	Indicator string           `json:"indicator,omitempty"`

	Position int `json:"position"`
	Total    int `json:"total"`
}

// Entry is one line of the task list.
type Entry struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Graded bool   `json:"graded"`
}

// TaskURL returns the detail route for id.
func TaskURL(id int) string {
	return fmt.Sprintf("/tasks/%d", id)
}

// Config wires a Controller.
type Config struct {
	Record      *record.Record
	Catalog     *harness.Catalog
	Runner      *runner.Runner
	Submissions *submission.Channel

	// Store and SessionID enable submission persistence. Both optional.
	Store     *store.Store
	SessionID string

	Logger *slog.Logger
}

// Controller is the single-active-task navigator.
type Controller struct {
	rec     *record.Record
	catalog *harness.Catalog
	runner  *runner.Runner
	subs    *submission.Channel
	store   *store.Store
	session string
	logger  *slog.Logger

	mu     sync.Mutex
	active int
}

// New validates cfg and returns a controller with no active task.
func New(cfg Config) (*Controller, error) {
	if cfg.Record == nil || cfg.Catalog == nil || cfg.Runner == nil {
		return nil, errors.New("viewer: record, catalog and runner are required")
	}
	c := &Controller{
		rec:     cfg.Record,
		catalog: cfg.Catalog,
		runner:  cfg.Runner,
		subs:    cfg.Submissions,
		store:   cfg.Store,
		session: cfg.SessionID,
		logger:  cfg.Logger,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.subs == nil {
		c.subs = submission.NewChannel(c.rec, submission.WithLogger(c.logger))
	}
	if c.store != nil && c.session != "" {
		c.subs.AddListener(submission.ListenerFunc(c.persistSubmission))
	}
	return c, nil
}

// Record returns the inspection record.
func (c *Controller) Record() *record.Record {
	return c.rec
}

// Catalog returns the task catalog.
func (c *Controller) Catalog() *harness.Catalog {
	return c.catalog
}

// Active returns the active task id, or 0 when none is open.
func (c *Controller) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// List returns every task in catalog order.
func (c *Controller) List() []Entry {
	all := c.catalog.All()
	out := make([]Entry, len(all))
	for i, d := range all {
		out[i] = Entry{ID: d.ID, Name: d.Name, URL: TaskURL(d.ID), Graded: d.Graded()}
	}
	return out
}

// Open makes id the active task and returns its page. Opening a task other
// than the active one switches the runner, which resets its memory and
// forces an evaluation. Reopening the active task changes nothing.
func (c *Controller) Open(id int, testMode bool) (Page, error) {
	desc, ok := c.catalog.Lookup(id)
	if !ok {
		return Page{}, fmt.Errorf("open task %d: %w", id, ErrUnknownTask)
	}

	c.mu.Lock()
	if c.active != id {
		c.logger.Info("switching task", "from", c.active, "to", id)
		c.active = id
		c.runner.Bind(desc)
	}
	c.mu.Unlock()

	return c.page(desc, testMode), nil
}

// Page returns the page for the active task without switching.
func (c *Controller) Page(testMode bool) (Page, error) {
	id := c.Active()
	desc, ok := c.catalog.Lookup(id)
	if !ok {
		return Page{}, fmt.Errorf("no active task: %w", ErrUnknownTask)
	}
	return c.page(desc, testMode), nil
}

func (c *Controller) page(desc *harness.Descriptor, testMode bool) Page {
	p := Page{
		Task:        *desc,
		ShowVerdict: desc.Graded(),
		ShowSubmit:  desc.RequiresSubmission,
		TestMode:    testMode,
		Total:       c.catalog.Len(),
	}
	for i, d := range c.catalog.All() {
		if d.ID == desc.ID {
			p.Position = i + 1
			break
		}
	}

	prev, next := c.catalog.Neighbors(desc.ID)
	if prev != nil {
		p.Prev = &Link{ID: prev.ID, Name: prev.Name, URL: TaskURL(prev.ID)}
	}
	if next != nil {
		p.Next = &Link{ID: next.ID, Name: next.Name, URL: TaskURL(next.ID)}
	}

	if desc.Graded() {
		if v, err := c.runner.Current(); err == nil {
			p.Verdict = &v
			p.Indicator = v.Indicator()
		}
	}
	return p
}

// Verdict returns the active task's current verdict.
func (c *Controller) Verdict() (int, harness.Verdict, error) {
	id := c.Active()
	v, err := c.runner.Current()
	return id, v, err
}

// Publish merges widget state into the record.
func (c *Controller) Publish(fields map[string]any) {
	c.rec.Publish(fields)
}

// Submit routes a free-form result through the submission channel.
func (c *Controller) Submit(text string) any {
	return c.subs.Submit(text)
}

func (c *Controller) persistSubmission(s submission.Submission) {
	id := c.Active()
	if _, err := c.store.WriteSubmission(context.Background(), c.session, id, s.Raw, s.Value, s.At); err != nil {
		c.logger.Error("persist submission failed", "task", id, "error", err)
	}
}
