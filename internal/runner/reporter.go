package runner

import (
	"log/slog"
	"time"

	"github.com/roach88/taskbench/internal/harness"
)

// Transition is one reported verdict change.
type Transition struct {
	// Seq orders transitions within a runner; it never repeats.
	Seq int64 `json:"seq"`

	TaskID  int             `json:"task_id"`
	Verdict harness.Verdict `json:"verdict"`

	// Fingerprint identifies the record content that produced Verdict.
	Fingerprint string `json:"fingerprint"`

	At time.Time `json:"at"`
}

// Reporter receives verdict transitions.
type Reporter interface {
	Report(Transition)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Transition)

// Report implements Reporter.
func (f ReporterFunc) Report(t Transition) { f(t) }

// LogReporter writes one diagnostic line per transition.
type LogReporter struct {
	Logger *slog.Logger
}

// Report implements Reporter.
func (l LogReporter) Report(t Transition) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("verdict changed",
		"task", t.TaskID,
		"seq", t.Seq,
		"success", t.Verdict.Success,
		"message", t.Verdict.Message,
		"indicator", t.Verdict.Indicator(),
	)
}
