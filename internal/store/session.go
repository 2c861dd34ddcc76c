package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("session not found")

// Session is one grading run over a catalog.
type Session struct {
	ID        string    `json:"id"`
	Catalog   string    `json:"catalog"`
	StartedAt time.Time `json:"started_at"`
}

// BeginSession records a new session and returns it.
func (s *Store) BeginSession(ctx context.Context, catalog string, at time.Time) (Session, error) {
	sess := Session{ID: s.ids.Generate(), Catalog: catalog, StartedAt: at.UTC()}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, catalog, started_at)
		VALUES (?, ?, ?)
	`, sess.ID, sess.Catalog, sess.StartedAt.UnixNano())
	if err != nil {
		return Session{}, fmt.Errorf("begin session: %w", err)
	}
	return sess, nil
}

// GetSession returns the session with id.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	var (
		sess    Session
		started int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, catalog, started_at FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Catalog, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("get session %q: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %q: %w", id, err)
	}
	sess.StartedAt = fromNanos(started)
	return sess, nil
}

// ListSessions returns every session, oldest first.
//
// Returns an empty slice (not nil) if no sessions exist.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, catalog, started_at
		FROM sessions
		ORDER BY started_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var (
			sess    Session
			started int64
		)
		if err := rows.Scan(&sess.ID, &sess.Catalog, &started); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt = fromNanos(started)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LatestSession returns the most recently started session.
func (s *Store) LatestSession(ctx context.Context) (Session, error) {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return Session{}, err
	}
	if len(sessions) == 0 {
		return Session{}, fmt.Errorf("latest session: %w", ErrSessionNotFound)
	}
	return sessions[len(sessions)-1], nil
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
