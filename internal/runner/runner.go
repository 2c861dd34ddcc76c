package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/taskbench/internal/harness"
	"github.com/roach88/taskbench/internal/metrics"
	"github.com/roach88/taskbench/internal/record"
)

// DefaultInterval is the polling interval used when none is configured.
const DefaultInterval = 200 * time.Millisecond

// State is the runner lifecycle state.
type State int

const (
	// StateIdle means no graded task is bound.
	StateIdle State = iota
	// StateArmed means a predicate is bound but has not been evaluated.
	StateArmed
	// StateWatching means the predicate has been evaluated at least once.
	StateWatching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateWatching:
		return "watching"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome describes what one evaluation step did.
type Outcome struct {
	// Evaluated is true when the predicate was invoked.
	Evaluated bool

	// Skipped is true when the record was unchanged since the last
	// evaluation and the predicate was not invoked.
	Skipped bool

	// Reported is set when the step produced a transition.
	Reported *Transition

	// Verdict is the most recent verdict, evaluated or not.
	Verdict harness.Verdict
}

// Stats counts runner activity.
type Stats struct {
	Evaluations int
	Skipped     int
	Reports     int
}

// Runner evaluates the bound task's predicate against the record.
type Runner struct {
	rec *record.Record

	interval      time.Duration
	clearOnSwitch bool
	seq           Sequencer
	now           func() time.Time
	logger        *slog.Logger
	metrics       *metrics.Metrics
	reporters     []Reporter

	mu       sync.Mutex
	task     *harness.Descriptor
	state    State
	last     []byte
	hasLast  bool
	current  harness.Verdict
	reported *harness.Verdict
	stats    Stats
}

// Option configures a Runner.
type Option func(*Runner)

// WithInterval sets the polling interval. It must be positive.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) { r.interval = d }
}

// WithClearOnSwitch controls whether Bind empties the record before the
// forced evaluation of the new task. The default is true.
func WithClearOnSwitch(enabled bool) Option {
	return func(r *Runner) { r.clearOnSwitch = enabled }
}

// WithSequencer replaces the transition sequence source.
func WithSequencer(s Sequencer) Option {
	return func(r *Runner) { r.seq = s }
}

// WithNow replaces the wall clock used to stamp transitions.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithReporter appends a transition reporter.
func WithReporter(rep Reporter) Option {
	return func(r *Runner) { r.reporters = append(r.reporters, rep) }
}

// New creates an idle runner over rec.
func New(rec *record.Record, opts ...Option) (*Runner, error) {
	r := &Runner{
		rec:           rec,
		interval:      DefaultInterval,
		clearOnSwitch: true,
		seq:           NewClock(),
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.interval <= 0 {
		return nil, &RunnerError{
			Code:    ErrCodeInvalidInterval,
			Message: fmt.Sprintf("interval must be positive, got %s", r.interval),
		}
	}
	return r, nil
}

// Interval returns the polling interval.
func (r *Runner) Interval() time.Duration {
	return r.interval
}

// State returns the lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Stats returns activity counters since construction.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Task returns the bound task, or nil.
func (r *Runner) Task() *harness.Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.task
}

// Current returns the latest verdict for the bound task. It fails with
// NOT_BOUND while idle.
func (r *Runner) Current() (harness.Verdict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateIdle {
		return harness.Verdict{}, &RunnerError{Code: ErrCodeNotBound, Message: "no graded task is bound"}
	}
	return r.current, nil
}

// Bind switches to task, discarding the previous snapshot and verdict, and
// forces one evaluation. A nil task or one without a predicate leaves the
// runner idle.
func (r *Runner) Bind(task *harness.Descriptor) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.task = task
	r.last = nil
	r.hasLast = false
	r.reported = nil
	r.current = harness.Verdict{}

	if task == nil || !task.Graded() {
		r.state = StateIdle
		if task != nil {
			r.logger.Debug("task bound without predicate", "task", task.ID)
		}
		return Outcome{}
	}

	r.state = StateArmed
	if r.clearOnSwitch {
		r.rec.Reset()
	}
	r.logger.Debug("task bound", "task", task.ID, "clear_on_switch", r.clearOnSwitch)
	return r.evaluateLocked(true)
}

// Tick performs one poll step.
func (r *Runner) Tick() Outcome {
	return r.Evaluate(false)
}

// Evaluate snapshots the record and invokes the predicate if the snapshot
// changed since the last evaluation or force is set. It is a no-op while
// idle.
func (r *Runner) Evaluate(force bool) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evaluateLocked(force)
}

func (r *Runner) evaluateLocked(force bool) Outcome {
	if r.state == StateIdle {
		return Outcome{}
	}
	id := r.task.ID

	snap := r.rec.Snapshot()
	// Exact bytes: a change a predicate can observe must never be skipped,
	// including one that only differs by Unicode normalization.
	canonical, err := snap.Exact()
	if err != nil {
		// Unserializable content cannot be compared; always evaluate it.
		r.logger.Warn("record not serializable", "task", id, "error", err)
		canonical = nil
	}

	if !force && err == nil && r.hasLast && bytes.Equal(canonical, r.last) {
		r.stats.Skipped++
		r.metrics.IncSkipped(id)
		return Outcome{Skipped: true, Verdict: r.current}
	}

	r.last = canonical
	r.hasLast = err == nil
	r.state = StateWatching
	r.stats.Evaluations++
	r.metrics.IncEvaluation(id)

	v, perr := harness.SafeEvaluate(id, r.task.Predicate, snap)
	if perr != nil {
		r.metrics.IncPredicateError(id)
		r.logger.Warn("predicate failed", "task", id, "error", perr)
	}
	r.current = v

	out := Outcome{Evaluated: true, Verdict: v}
	if r.reported != nil && r.reported.Equal(v) {
		return out
	}

	reported := v
	r.reported = &reported
	r.stats.Reports++
	r.metrics.IncVerdictChange(id, v.Success)

	t := Transition{
		Seq:         r.seq.Next(),
		TaskID:      id,
		Verdict:     v,
		Fingerprint: fingerprint(snap),
		At:          r.now(),
	}
	for _, rep := range r.reporters {
		rep.Report(t)
	}
	out.Reported = &t
	return out
}

// fingerprint is empty for snapshots with no JSON form.
func fingerprint(snap record.Snapshot) string {
	fp, err := snap.Fingerprint()
	if err != nil {
		return ""
	}
	return fp
}

// Run evaluates until ctx is cancelled: once immediately (forced), then on
// every interval tick and every record change notification.
func (r *Runner) Run(ctx context.Context) error {
	changes, unsubscribe := r.rec.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("runner starting", "interval", r.interval)
	r.Evaluate(true)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner stopping: context cancelled")
			return ctx.Err()
		case <-ticker.C:
			r.Evaluate(false)
		case <-changes:
			r.Evaluate(false)
		}
	}
}
