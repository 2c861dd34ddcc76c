// Package store provides SQLite-backed durable storage for grading
// sessions.
//
// A session is one run of the viewer over a catalog. Within a session the
// store appends:
//   - Verdicts: every transition reported by the runner
//   - Submissions: every result received on the submission channel
//
// # Ordering
//
// All ordering uses the seq column (a per-session logical clock), never
// wall time. Every multi-row query ends with ORDER BY seq ASC.
//
// # Idempotency
//
// Verdict writes are keyed by (session_id, seq) and use ON CONFLICT DO
// NOTHING, so replaying a transition is harmless.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
