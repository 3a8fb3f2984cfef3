package report

import (
	"errors"
	"strings"

	"github.com/roach88/netreplay/internal/bus"
)

// Multi fans one run out to several reports. Its capabilities are the union
// of theirs and each stream reaches only the reports that declared it, in
// the order the reports were given.
type Multi struct {
	reports []Report
}

// NewMulti combines reports.
func NewMulti(reports ...Report) *Multi {
	return &Multi{reports: reports}
}

func (m *Multi) Name() string {
	names := make([]string, len(m.reports))
	for i, r := range m.reports {
		names[i] = r.Name()
	}
	return strings.Join(names, "+")
}

func (m *Multi) Capabilities() Capabilities {
	var caps Capabilities
	for _, r := range m.reports {
		caps = caps.Union(r.Capabilities())
	}
	return caps
}

func (m *Multi) Listeners() Listeners {
	var out Listeners
	for _, r := range m.reports {
		l := r.Listeners()
		out.PresenceEvents = chain(out.PresenceEvents, l.PresenceEvents)
		out.PresenceStates = chain(out.PresenceStates, l.PresenceStates)
		out.LinkEvents = chain(out.LinkEvents, l.LinkEvents)
		out.LinkStates = chain(out.LinkStates, l.LinkStates)
		out.GroupEvents = chain(out.GroupEvents, l.GroupEvents)
		out.GroupStates = chain(out.GroupStates, l.GroupStates)
	}
	return out
}

// chain runs a then b, stopping at the first error. Either may be nil.
func chain[T any](a, b bus.Listener[T]) bus.Listener[T] {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(v T) error {
		if err := a(v); err != nil {
			return err
		}
		return b(v)
	}
}

// Finish finishes every report, even after one fails, and returns the
// joined errors.
func (m *Multi) Finish() error {
	var errs []error
	for _, r := range m.reports {
		if err := r.Finish(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
