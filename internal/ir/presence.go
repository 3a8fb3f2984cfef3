package ir

import (
	"fmt"
	"slices"
)

// PresenceEventType says whether a node entered or left the network.
type PresenceEventType int

const (
	// PresenceIn marks a node joining the network.
	PresenceIn PresenceEventType = iota + 1
	// PresenceOut marks a node leaving the network.
	PresenceOut
)

func (t PresenceEventType) String() string {
	switch t {
	case PresenceIn:
		return "in"
	case PresenceOut:
		return "out"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t PresenceEventType) MarshalText() ([]byte, error) {
	if t != PresenceIn && t != PresenceOut {
		return nil, fmt.Errorf("invalid presence event type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PresenceEventType) UnmarshalText(b []byte) error {
	v, err := ParsePresenceEventType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParsePresenceEventType converts "in" or "out".
func ParsePresenceEventType(s string) (PresenceEventType, error) {
	switch s {
	case "in":
		return PresenceIn, nil
	case "out":
		return PresenceOut, nil
	}
	return 0, fmt.Errorf("unknown presence event type %q", s)
}

// PresenceEvent records one node entering or leaving.
type PresenceEvent struct {
	Time Time              `json:"time"`
	Node NodeID            `json:"node"`
	Type PresenceEventType `json:"type"`
}

// Timestamp implements Timed.
func (e PresenceEvent) Timestamp() Time { return e.Time }

func (e PresenceEvent) String() string {
	return fmt.Sprintf("%d %d %s", e.Time, e.Node, e.Type)
}

// PresenceSnapshot is the set of present nodes at a point in time.
// Nodes is sorted ascending.
type PresenceSnapshot struct {
	Time  Time     `json:"time"`
	Nodes []NodeID `json:"nodes"`
}

// Timestamp implements Timed.
func (s PresenceSnapshot) Timestamp() Time { return s.Time }

// PresenceSet accumulates presence events into the set of present nodes.
type PresenceSet struct {
	nodes map[NodeID]struct{}
}

// NewPresenceSet seeds a set from a snapshot.
func NewPresenceSet(init PresenceSnapshot) *PresenceSet {
	s := &PresenceSet{}
	s.Reset(init)
	return s
}

// Reset replaces the set's content with a snapshot.
func (s *PresenceSet) Reset(snap PresenceSnapshot) {
	s.nodes = make(map[NodeID]struct{}, len(snap.Nodes))
	for _, n := range snap.Nodes {
		s.nodes[n] = struct{}{}
	}
}

// Apply folds one event into the set. Redundant events are ignored.
func (s *PresenceSet) Apply(e PresenceEvent) {
	switch e.Type {
	case PresenceIn:
		s.nodes[e.Node] = struct{}{}
	case PresenceOut:
		delete(s.nodes, e.Node)
	}
}

// Has reports whether n is present.
func (s *PresenceSet) Has(n NodeID) bool {
	_, ok := s.nodes[n]
	return ok
}

// Len returns the number of present nodes.
func (s *PresenceSet) Len() int { return len(s.nodes) }

// Nodes returns the present nodes in ascending order.
func (s *PresenceSet) Nodes() []NodeID {
	out := make([]NodeID, 0, len(s.nodes))
	for n := range s.nodes {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Snapshot materializes the set at time t.
func (s *PresenceSet) Snapshot(t Time) PresenceSnapshot {
	return PresenceSnapshot{Time: t, Nodes: s.Nodes()}
}
