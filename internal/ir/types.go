package ir

import (
	"fmt"
	"strconv"
)

// Time is a trace timestamp in integer ticks.
type Time int64

// NodeID identifies a node of the network graph.
type NodeID int64

// Kind is the domain a trace records.
type Kind string

const (
	// KindPresence traces record nodes entering and leaving the network.
	KindPresence Kind = "presence"
	// KindLinks traces record links going up and down.
	KindLinks Kind = "links"
	// KindGroups traces record group (connected component) membership.
	KindGroups Kind = "groups"
)

// Kinds lists every trace kind in canonical order.
var Kinds = []Kind{KindPresence, KindLinks, KindGroups}

// Valid reports whether k is one of the known trace kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPresence, KindLinks, KindGroups:
		return true
	}
	return false
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown trace kind %q", s)
	}
	return k, nil
}

// Bound is a trace time bound that may be unknown.
//
// The zero value is Unknown.
type Bound struct {
	T     Time
	Known bool
}

// Unknown is the bound of a trace whose extent was never recorded.
var Unknown = Bound{}

// Known returns a known bound at t.
func Known(t Time) Bound {
	return Bound{T: t, Known: true}
}

// Or returns b when known, otherwise other.
func (b Bound) Or(other Bound) Bound {
	if b.Known {
		return b
	}
	return other
}

// Ptr returns a pointer to the bound's time, or nil when unknown.
func (b Bound) Ptr() *Time {
	if !b.Known {
		return nil
	}
	t := b.T
	return &t
}

// BoundFrom converts an optional time into a Bound.
func BoundFrom(t *Time) Bound {
	if t == nil {
		return Unknown
	}
	return Known(*t)
}

// String renders the bound, using "?" for unknown.
func (b Bound) String() string {
	if !b.Known {
		return "?"
	}
	return strconv.FormatInt(int64(b.T), 10)
}

// TraceInfo is the immutable metadata of a persisted trace.
type TraceInfo struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	Description string `json:"description,omitempty"`

	// MinTime and MaxTime bound the recorded period; either may be unknown.
	MinTime Bound `json:"-"`
	MaxTime Bound `json:"-"`

	// MaxUpdateInterval is the longest gap between two consecutive
	// materialized snapshots the trace guarantees. Always positive.
	MaxUpdateInterval Time `json:"max_update_interval"`
}

// Validate checks the metadata invariants.
func (i TraceInfo) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("trace name is empty")
	}
	if !i.Kind.Valid() {
		return fmt.Errorf("trace %s: unknown kind %q", i.Name, i.Kind)
	}
	if i.MaxUpdateInterval <= 0 {
		return fmt.Errorf("trace %s: max update interval must be positive, got %d", i.Name, i.MaxUpdateInterval)
	}
	if i.MinTime.Known && i.MaxTime.Known && i.MinTime.T > i.MaxTime.T {
		return fmt.Errorf("trace %s: min time %d after max time %d", i.Name, i.MinTime.T, i.MaxTime.T)
	}
	return nil
}

// Origin is the time of the trace's initial snapshot: MinTime when known,
// zero otherwise.
func (i TraceInfo) Origin() Time {
	if i.MinTime.Known {
		return i.MinTime.T
	}
	return 0
}

// Timed is implemented by every event and snapshot.
type Timed interface {
	Timestamp() Time
}
