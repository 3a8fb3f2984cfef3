package engine

import (
	"context"
	"fmt"

	"github.com/roach88/netreplay/internal/bus"
	"github.com/roach88/netreplay/internal/ir"
)

// Generator is one stream the Runner steps in lockstep with the others.
// Reader is the only production implementation.
type Generator interface {
	// Name identifies the generator in logs and errors.
	Name() string

	// Step brings the generator up to time t, publishing everything due.
	Step(ctx context.Context, t ir.Time) error

	MinTime() ir.Bound
	MaxTime() ir.Bound
	MaxUpdateInterval() ir.Time

	Close() error
}

// Reader replays one persisted trace onto an event bus and a state bus.
//
// Each Step publishes every pending event with a timestamp at or before the
// step time, applying it to the accumulator as it goes, then publishes a
// materialized state when one is due. Events always precede the state of
// the same step, so a state listener sees the effect of every event already
// delivered.
//
// Either bus may be nil. A Reader with no event bus still applies events so
// its states stay correct.
//
// Reader is not safe for concurrent use.
type Reader[E ir.Timed, S ir.Timed] struct {
	info   ir.TraceInfo
	acc    ir.Accumulator[E, S]
	cursor ir.Cursor[E]
	events *bus.Bus[E]
	states *bus.Bus[S]

	// One-event look-ahead: pending is the next unpublished event.
	pending    E
	hasPending bool
	exhausted  bool
	lastEvent  ir.Time
	sawEvent   bool

	pos     ir.Time
	stepped bool

	lastState      ir.Time
	statePublished bool

	applied int
	onApply func()
	closed  bool
}

// NewReader loads the trace's initial state, seeds the accumulator with it
// and opens a cursor positioned before the first event.
func NewReader[E ir.Timed, S ir.Timed](
	ctx context.Context,
	src ir.Source[E, S],
	events *bus.Bus[E],
	states *bus.Bus[S],
	newAcc func(S) ir.Accumulator[E, S],
) (*Reader[E, S], error) {
	info := src.Info()
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("new reader: %w", err)
	}

	initial, err := src.Initial(ctx)
	if err != nil {
		return nil, fmt.Errorf("trace %s: load initial state: %w", info.Name, err)
	}

	cursor, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("trace %s: open cursor: %w", info.Name, err)
	}

	return &Reader[E, S]{
		info:   info,
		acc:    newAcc(initial),
		cursor: cursor,
		events: events,
		states: states,
	}, nil
}

// NewPresenceReader creates a Reader over a presence trace.
func NewPresenceReader(
	ctx context.Context,
	src ir.Source[ir.PresenceEvent, ir.PresenceSnapshot],
	events *bus.Bus[ir.PresenceEvent],
	states *bus.Bus[ir.PresenceSnapshot],
) (*Reader[ir.PresenceEvent, ir.PresenceSnapshot], error) {
	return NewReader(ctx, src, events, states, func(s ir.PresenceSnapshot) ir.Accumulator[ir.PresenceEvent, ir.PresenceSnapshot] {
		return ir.NewPresenceSet(s)
	})
}

// NewLinkReader creates a Reader over a link trace.
func NewLinkReader(
	ctx context.Context,
	src ir.Source[ir.LinkEvent, ir.LinkSnapshot],
	events *bus.Bus[ir.LinkEvent],
	states *bus.Bus[ir.LinkSnapshot],
) (*Reader[ir.LinkEvent, ir.LinkSnapshot], error) {
	return NewReader(ctx, src, events, states, func(s ir.LinkSnapshot) ir.Accumulator[ir.LinkEvent, ir.LinkSnapshot] {
		return ir.NewLinkSet(s)
	})
}

// NewGroupReader creates a Reader over a group trace.
func NewGroupReader(
	ctx context.Context,
	src ir.Source[ir.GroupEvent, ir.GroupSnapshot],
	events *bus.Bus[ir.GroupEvent],
	states *bus.Bus[ir.GroupSnapshot],
) (*Reader[ir.GroupEvent, ir.GroupSnapshot], error) {
	return NewReader(ctx, src, events, states, func(s ir.GroupSnapshot) ir.Accumulator[ir.GroupEvent, ir.GroupSnapshot] {
		return ir.NewGroupSet(s)
	})
}

// Name returns the trace name.
func (r *Reader[E, S]) Name() string { return r.info.Name }

// Info returns the trace metadata.
func (r *Reader[E, S]) Info() ir.TraceInfo { return r.info }

// MinTime returns the trace's lower bound.
func (r *Reader[E, S]) MinTime() ir.Bound { return r.info.MinTime }

// MaxTime returns the trace's upper bound.
func (r *Reader[E, S]) MaxTime() ir.Bound { return r.info.MaxTime }

// MaxUpdateInterval returns the longest gap between two published states.
func (r *Reader[E, S]) MaxUpdateInterval() ir.Time { return r.info.MaxUpdateInterval }

// Applied returns the number of events folded into the state so far.
func (r *Reader[E, S]) Applied() int { return r.applied }

// OnApply registers fn to run after each applied event. Used for metrics.
func (r *Reader[E, S]) OnApply(fn func()) { r.onApply = fn }

// Step publishes every event with timestamp <= t, then the state if due.
// A t earlier than the previous step is a no-op.
func (r *Reader[E, S]) Step(ctx context.Context, t ir.Time) error {
	if r.closed {
		return &RuntimeError{Code: ErrCodeReaderClosed, Message: "step on closed reader", Trace: r.info.Name}
	}
	if r.stepped && t < r.pos {
		return nil
	}

	for {
		if !r.hasPending && !r.exhausted {
			e, ok, err := r.cursor.Next(ctx)
			if err != nil {
				return fmt.Errorf("trace %s: read event: %w", r.info.Name, err)
			}
			if !ok {
				r.exhausted = true
				break
			}
			if r.sawEvent && e.Timestamp() < r.lastEvent {
				return fmt.Errorf("trace %s: event at %d after event at %d", r.info.Name, e.Timestamp(), r.lastEvent)
			}
			r.pending, r.hasPending = e, true
		}
		if !r.hasPending || r.pending.Timestamp() > t {
			break
		}

		e := r.pending
		var zero E
		r.pending, r.hasPending = zero, false
		r.lastEvent, r.sawEvent = e.Timestamp(), true

		r.acc.Apply(e)
		r.applied++
		if r.onApply != nil {
			r.onApply()
		}
		if r.events != nil {
			if err := r.events.Publish(e); err != nil {
				return fmt.Errorf("trace %s: %w", r.info.Name, err)
			}
		}
	}

	r.pos, r.stepped = t, true

	if r.states != nil && (!r.statePublished || t-r.lastState >= r.info.MaxUpdateInterval) {
		r.lastState, r.statePublished = t, true
		if err := r.states.Publish(r.acc.Snapshot(t)); err != nil {
			return fmt.Errorf("trace %s: %w", r.info.Name, err)
		}
	}
	return nil
}

// Close releases the cursor. Calling Close more than once is a no-op.
func (r *Reader[E, S]) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.cursor.Close(); err != nil {
		return fmt.Errorf("trace %s: close cursor: %w", r.info.Name, err)
	}
	return nil
}
