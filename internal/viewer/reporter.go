package viewer

import (
	"context"
	"log/slog"

	"github.com/roach88/taskbench/internal/runner"
	"github.com/roach88/taskbench/internal/store"
)

// VerdictLog persists runner transitions into a store session.
type VerdictLog struct {
	Store     *store.Store
	SessionID string
	Logger    *slog.Logger
}

// Report implements runner.Reporter.
func (l *VerdictLog) Report(t runner.Transition) {
	err := l.Store.WriteVerdict(context.Background(), store.VerdictRow{
		SessionID:   l.SessionID,
		Seq:         t.Seq,
		TaskID:      t.TaskID,
		Success:     t.Verdict.Success,
		Message:     t.Verdict.Message,
		Fingerprint: t.Fingerprint,
		CreatedAt:   t.At,
	})
	if err != nil && l.Logger != nil {
		l.Logger.Error("persist verdict failed", "task", t.TaskID, "seq", t.Seq, "error", err)
	}
}
