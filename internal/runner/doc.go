// Package runner implements the change-detecting test runner.
//
// A Runner is bound to at most one task at a time. It snapshots the
// inspection record, serializes the snapshot to canonical JSON, and invokes
// the task predicate only when that serialization differs from the one it
// last evaluated. A verdict is reported only when its (success, message)
// pair differs from the last reported pair, so a steady record produces
// exactly one report.
//
// Evaluation is triggered three ways:
//   - Run forces one evaluation on start, then evaluates on every interval
//     tick and on every record change notification.
//   - Bind (task switch) resets all memory and forces one evaluation.
//   - Evaluate and Tick may be called directly, mostly by tests.
//
// Predicate errors and panics are contained and become the
// "Test execution error" verdict.
//
// Thread-safety: all methods are safe for concurrent use. Evaluations are
// serialized; reporters are invoked in sequence order from inside the
// evaluation and must not call back into the Runner.
package runner
