package testutil

import (
	"context"
	"errors"

	"github.com/roach88/netreplay/internal/ir"
)

// ErrInjected is the default error returned by injected failures.
var ErrInjected = errors.New("injected failure")

// MemorySource is an in-memory ir.Source for engine tests.
type MemorySource[E ir.Timed, S ir.Timed] struct {
	TraceInfo ir.TraceInfo
	Init      S
	Events    []E

	// InitialErr and OpenErr fail the corresponding call when set.
	InitialErr error
	OpenErr    error

	// FailAt makes Next fail on the event at that index. Negative disables.
	FailAt  int
	FailErr error

	// Opened and Closed count cursor lifecycle calls.
	Opened int
	Closed int
}

// NewMemorySource creates a source with no injected failures.
func NewMemorySource[E ir.Timed, S ir.Timed](info ir.TraceInfo, init S, events ...E) *MemorySource[E, S] {
	return &MemorySource[E, S]{TraceInfo: info, Init: init, Events: events, FailAt: -1}
}

// Info implements ir.Source.
func (s *MemorySource[E, S]) Info() ir.TraceInfo { return s.TraceInfo }

// Initial implements ir.Source.
func (s *MemorySource[E, S]) Initial(ctx context.Context) (S, error) {
	if s.InitialErr != nil {
		var zero S
		return zero, s.InitialErr
	}
	return s.Init, nil
}

// Open implements ir.Source.
func (s *MemorySource[E, S]) Open(ctx context.Context) (ir.Cursor[E], error) {
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	s.Opened++
	return &memoryCursor[E, S]{src: s}, nil
}

type memoryCursor[E ir.Timed, S ir.Timed] struct {
	src *MemorySource[E, S]
	idx int
}

func (c *memoryCursor[E, S]) Next(ctx context.Context) (E, bool, error) {
	var zero E
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if c.src.FailAt >= 0 && c.idx == c.src.FailAt {
		err := c.src.FailErr
		if err == nil {
			err = ErrInjected
		}
		return zero, false, err
	}
	if c.idx >= len(c.src.Events) {
		return zero, false, nil
	}
	e := c.src.Events[c.idx]
	c.idx++
	return e, true, nil
}

func (c *memoryCursor[E, S]) Close() error {
	c.src.Closed++
	return nil
}
