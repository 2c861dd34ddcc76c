// Package submission implements the result submission channel: free-form
// text from the agent is parsed as JSON when possible and stored in the
// inspection record under the reserved "submission" key.
package submission

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/roach88/taskbench/internal/metrics"
	"github.com/roach88/taskbench/internal/record"
)

// Key is the reserved record key holding the latest submission.
const Key = "submission"

// Parse interprets text as JSON if it parses as any JSON value, and
// otherwise returns text unchanged. Surrounding whitespace is ignored for
// the JSON attempt only.
func Parse(text string) any {
	v, _ := parse(text)
	return v
}

func parse(text string) (any, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text, false
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return text, false
	}
	return v, true
}

// Submission is one accepted result.
type Submission struct {
	Raw   string
	Value any
	At    time.Time
}

// Listener observes accepted submissions.
type Listener interface {
	Submitted(Submission)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Submission)

// Submitted implements Listener.
func (f ListenerFunc) Submitted(s Submission) { f(s) }

// Channel writes submissions into a record.
type Channel struct {
	rec     *record.Record
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu        sync.RWMutex
	listeners []Listener
}

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the logger used for accepted submissions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) { c.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Channel) { c.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Channel) { c.now = now }
}

// NewChannel returns a channel writing into rec.
func NewChannel(rec *record.Record, opts ...Option) *Channel {
	c := &Channel{rec: rec, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddListener registers l to observe every accepted submission.
func (c *Channel) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Submit parses text and replaces the record's submission value with the
// result, which is also returned.
func (c *Channel) Submit(text string) any {
	v, isJSON := parse(text)
	c.rec.Set(Key, v)
	c.metrics.IncSubmission()
	c.logger.Info("submission received", "bytes", len(text), "json", isJSON)

	s := Submission{Raw: text, Value: v, At: c.now()}
	c.mu.RLock()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.RUnlock()
	for _, l := range listeners {
		l.Submitted(s)
	}
	return v
}
