package store

import (
	"context"
	"fmt"

	"github.com/roach88/netreplay/internal/ir"
)

// TraceSource exposes one stored trace through the ir.Source read boundary.
type TraceSource[E ir.Timed, S ir.Timed] struct {
	st   *Store
	info ir.TraceInfo
}

// Info implements ir.Source.
func (s *TraceSource[E, S]) Info() ir.TraceInfo { return s.info }

// Initial implements ir.Source.
func (s *TraceSource[E, S]) Initial(ctx context.Context) (S, error) {
	var zero S
	data, err := s.st.initialState(ctx, s.info.Name)
	if err != nil {
		return zero, err
	}
	snap, err := unmarshalPayload[S](data)
	if err != nil {
		return zero, fmt.Errorf("trace %s: initial state: %w", s.info.Name, err)
	}
	return snap, nil
}

// Open implements ir.Source.
func (s *TraceSource[E, S]) Open(ctx context.Context) (ir.Cursor[E], error) {
	if s.st.db == nil {
		return nil, fmt.Errorf("trace %s: store closed", s.info.Name)
	}
	return newEventCursor[E](s.st, s.info.Name), nil
}

func openSource[E ir.Timed, S ir.Timed](ctx context.Context, st *Store, name string, kind ir.Kind) (*TraceSource[E, S], error) {
	info, err := st.Trace(ctx, name)
	if err != nil {
		return nil, err
	}
	if info.Kind != kind {
		return nil, &KindMismatchError{Name: name, Want: kind, Got: info.Kind}
	}
	return &TraceSource[E, S]{st: st, info: info}, nil
}

// Presence returns the named presence trace.
func (s *Store) Presence(ctx context.Context, name string) (*TraceSource[ir.PresenceEvent, ir.PresenceSnapshot], error) {
	return openSource[ir.PresenceEvent, ir.PresenceSnapshot](ctx, s, name, ir.KindPresence)
}

// Links returns the named link trace.
func (s *Store) Links(ctx context.Context, name string) (*TraceSource[ir.LinkEvent, ir.LinkSnapshot], error) {
	return openSource[ir.LinkEvent, ir.LinkSnapshot](ctx, s, name, ir.KindLinks)
}

// Groups returns the named group trace.
func (s *Store) Groups(ctx context.Context, name string) (*TraceSource[ir.GroupEvent, ir.GroupSnapshot], error) {
	return openSource[ir.GroupEvent, ir.GroupSnapshot](ctx, s, name, ir.KindGroups)
}

var (
	_ ir.Source[ir.PresenceEvent, ir.PresenceSnapshot] = (*TraceSource[ir.PresenceEvent, ir.PresenceSnapshot])(nil)
	_ ir.Source[ir.LinkEvent, ir.LinkSnapshot]         = (*TraceSource[ir.LinkEvent, ir.LinkSnapshot])(nil)
	_ ir.Source[ir.GroupEvent, ir.GroupSnapshot]       = (*TraceSource[ir.GroupEvent, ir.GroupSnapshot])(nil)
)
