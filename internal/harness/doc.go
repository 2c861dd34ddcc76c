// Package harness defines the grading vocabulary shared by every benchmark
// task: verdicts, predicates, task descriptors and the ordered catalog.
//
// # Predicates
//
// A Predicate is a pure function of a record.Snapshot. It must not mutate
// state: the runner may call it repeatedly and speculatively. Returning an
// error, or panicking, is treated by the caller as an execution error and
// converted to the fixed verdict
//
//	{Success: false, Message: "Test execution error"}
//
// Predicates that find no published state are expected to return
// StateNotFound() themselves; the harness does not enforce this.
//
// # Catalog
//
// A Catalog is created once at startup and never mutated. Navigation
// between tasks uses ordinal adjacency in catalog order with no
// wraparound.
package harness
