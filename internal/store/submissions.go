package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/taskbench/internal/record"
)

// SubmissionRow is one persisted submission.
type SubmissionRow struct {
	SessionID string    `json:"session_id"`
	Seq       int64     `json:"seq"`
	TaskID    int       `json:"task_id"`
	Raw       string    `json:"raw"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// WriteSubmission appends a submission. The parsed value is stored as
// canonical JSON. The assigned seq is returned.
func (s *Store) WriteSubmission(ctx context.Context, sessionID string, taskID int, raw string, value any, at time.Time) (int64, error) {
	valueJSON, err := record.MarshalCanonical(value)
	if err != nil {
		return 0, fmt.Errorf("write submission: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write submission: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM submissions WHERE session_id = ?
	`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("write submission: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO submissions (session_id, seq, task_id, raw, value, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`, sessionID, seq, taskID, raw, string(valueJSON), at.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("write submission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write submission: commit: %w", err)
	}
	return seq, nil
}

// ReadSubmissions returns the session's submissions ordered by seq.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadSubmissions(ctx context.Context, sessionID string) ([]SubmissionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, task_id, raw, value, created_at
		FROM submissions
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	out := []SubmissionRow{}
	for rows.Next() {
		var (
			sub     SubmissionRow
			created int64
		)
		if err := rows.Scan(&sub.SessionID, &sub.Seq, &sub.TaskID, &sub.Raw, &sub.Value, &created); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.CreatedAt = fromNanos(created)
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}
