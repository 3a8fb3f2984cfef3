// Package store provides SQLite-backed storage for network traces.
//
// A trace is a named, typed sequence of delta events plus the state at its
// origin:
//   - traces: metadata (kind, bounds, max update interval) and initial state
//   - events: one row per event, payload stored as canonical JSON
//
// # Critical Patterns
//
// Deterministic Ordering:
//   - Events are read back ORDER BY time ASC, seq ASC
//   - seq is assigned at import in recording order, so ties keep the order
//     the trace was written in
//
// Atomic Import:
//   - ImportTraces writes a batch in one transaction
//   - A failed import leaves the store as it was
//
// Bounded Look-Ahead:
//   - Cursors read one page at a time and hold no open rows between calls,
//     so many readers can share the single SQLite connection
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Deleting a trace deletes its events
//
// Payloads are encoded with ir.Canonical.
package store
