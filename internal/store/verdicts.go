package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoVerdict is returned by LatestVerdict when a task has no rows.
var ErrNoVerdict = errors.New("no verdict recorded")

// VerdictRow is one persisted verdict transition.
type VerdictRow struct {
	SessionID   string    `json:"session_id"`
	Seq         int64     `json:"seq"`
	TaskID      int       `json:"task_id"`
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

// WriteVerdict appends a verdict transition. Writing the same
// (session, seq) twice is a no-op.
func (s *Store) WriteVerdict(ctx context.Context, v VerdictRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verdicts
		(session_id, seq, task_id, success, message, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		v.SessionID,
		v.Seq,
		v.TaskID,
		v.Success,
		v.Message,
		v.Fingerprint,
		v.CreatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("write verdict: %w", err)
	}
	return nil
}

// ReadVerdicts returns the session's verdicts ordered by seq. A taskID of
// zero selects every task.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadVerdicts(ctx context.Context, sessionID string, taskID int) ([]VerdictRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, task_id, success, message, fingerprint, created_at
		FROM verdicts
		WHERE session_id = ? AND (? = 0 OR task_id = ?)
		ORDER BY seq ASC
	`, sessionID, taskID, taskID)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	out := []VerdictRow{}
	for rows.Next() {
		v, err := scanVerdict(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}
	return out, nil
}

// LatestVerdict returns the highest-seq verdict for a task in a session.
func (s *Store) LatestVerdict(ctx context.Context, sessionID string, taskID int) (VerdictRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, seq, task_id, success, message, fingerprint, created_at
		FROM verdicts
		WHERE session_id = ? AND task_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, sessionID, taskID)

	v, err := scanVerdict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return VerdictRow{}, fmt.Errorf("latest verdict for task %d: %w", taskID, ErrNoVerdict)
	}
	if err != nil {
		return VerdictRow{}, err
	}
	return v, nil
}

// MaxVerdictSeq returns the highest verdict seq in a session, or 0.
func (s *Store) MaxVerdictSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM verdicts WHERE session_id = ?
	`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max verdict seq: %w", err)
	}
	return seq.Int64, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVerdict(row scanner) (VerdictRow, error) {
	var (
		v       VerdictRow
		created int64
	)
	err := row.Scan(&v.SessionID, &v.Seq, &v.TaskID, &v.Success, &v.Message, &v.Fingerprint, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return VerdictRow{}, err
	}
	if err != nil {
		return VerdictRow{}, fmt.Errorf("scan verdict: %w", err)
	}
	v.CreatedAt = fromNanos(created)
	return v, nil
}
