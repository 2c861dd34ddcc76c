// Package record implements the shared inspection record.
//
// Widgets publish their externally relevant state into a Record by
// shallow-merging fields; task predicates read an immutable Snapshot of it.
// The record is the only channel between UI state and grading logic.
//
// # Change Detection
//
// Two snapshots are considered equal when their canonical serializations
// are byte-identical. Canonical form follows RFC 8785 key ordering (UTF-16
// code units), NFC-normalized strings and no HTML escaping. Unlike a strict
// RFC 8785 encoder, floats and null are accepted because widget state
// carries them; numbers with an integral value serialize identically
// whether they arrived as int or float64.
//
// # Concurrency
//
// A Record is safe for concurrent use. Writers are serialized by an
// internal lock and the last writer wins per key. Subscribers receive a
// coalesced signal after every mutation.
package record
