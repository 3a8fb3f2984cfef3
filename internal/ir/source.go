package ir

import "context"

// Accumulator folds events of type E into a materialized state of type S.
// PresenceSet, LinkSet and GroupSet are the three implementations.
type Accumulator[E Timed, S Timed] interface {
	Apply(E)
	Snapshot(t Time) S
}

// Cursor is a forward-only read cursor over a trace's persisted events.
//
// Next returns events in non-decreasing timestamp order, ties in recording
// order. It returns ok=false once the trace is exhausted.
type Cursor[E Timed] interface {
	Next(ctx context.Context) (e E, ok bool, err error)
	Close() error
}

// Source is the read boundary of one persisted trace.
type Source[E Timed, S Timed] interface {
	// Info returns the trace metadata.
	Info() TraceInfo

	// Initial returns the state at the trace origin, before any event.
	Initial(ctx context.Context) (S, error)

	// Open returns a fresh cursor positioned before the first event.
	Open(ctx context.Context) (Cursor[E], error)
}

// Compile-time checks that the accumulators satisfy the interface.
var (
	_ Accumulator[PresenceEvent, PresenceSnapshot] = (*PresenceSet)(nil)
	_ Accumulator[LinkEvent, LinkSnapshot]         = (*LinkSet)(nil)
	_ Accumulator[GroupEvent, GroupSnapshot]       = (*GroupSet)(nil)
)
