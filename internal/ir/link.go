package ir

import (
	"cmp"
	"fmt"
	"slices"
)

// Link is an undirected edge between two nodes, normalized so ID1 < ID2.
type Link struct {
	ID1 NodeID `json:"id1"`
	ID2 NodeID `json:"id2"`
}

// NewLink returns the normalized link between a and b.
func NewLink(a, b NodeID) Link {
	if b < a {
		a, b = b, a
	}
	return Link{ID1: a, ID2: b}
}

// Has reports whether n is an endpoint.
func (l Link) Has(n NodeID) bool { return l.ID1 == n || l.ID2 == n }

// Other returns the endpoint that is not n.
func (l Link) Other(n NodeID) NodeID {
	if l.ID1 == n {
		return l.ID2
	}
	return l.ID1
}

// Compare orders links by ID1 then ID2.
func (l Link) Compare(o Link) int {
	if c := cmp.Compare(l.ID1, o.ID1); c != 0 {
		return c
	}
	return cmp.Compare(l.ID2, o.ID2)
}

func (l Link) String() string { return fmt.Sprintf("%d %d", l.ID1, l.ID2) }

// LinkEventType says whether a link came up or went down.
type LinkEventType int

const (
	// LinkUp marks a link appearing.
	LinkUp LinkEventType = iota + 1
	// LinkDown marks a link disappearing.
	LinkDown
)

func (t LinkEventType) String() string {
	switch t {
	case LinkUp:
		return "up"
	case LinkDown:
		return "down"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t LinkEventType) MarshalText() ([]byte, error) {
	if t != LinkUp && t != LinkDown {
		return nil, fmt.Errorf("invalid link event type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LinkEventType) UnmarshalText(b []byte) error {
	v, err := ParseLinkEventType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseLinkEventType converts "up" or "down".
func ParseLinkEventType(s string) (LinkEventType, error) {
	switch s {
	case "up":
		return LinkUp, nil
	case "down":
		return LinkDown, nil
	}
	return 0, fmt.Errorf("unknown link event type %q", s)
}

// LinkEvent records one link transition. The embedded Link flattens into
// id1/id2 in JSON.
type LinkEvent struct {
	Time Time `json:"time"`
	Link
	Type LinkEventType `json:"type"`
}

// Timestamp implements Timed.
func (e LinkEvent) Timestamp() Time { return e.Time }

func (e LinkEvent) String() string {
	return fmt.Sprintf("%d %s %s", e.Time, e.Link, e.Type)
}

// LinkSnapshot is the set of active links at a point in time, sorted.
type LinkSnapshot struct {
	Time  Time   `json:"time"`
	Links []Link `json:"links"`
}

// Timestamp implements Timed.
func (s LinkSnapshot) Timestamp() Time { return s.Time }

// LinkSet accumulates link events into the set of active links.
type LinkSet struct {
	links map[Link]struct{}
}

// NewLinkSet seeds a set from a snapshot.
func NewLinkSet(init LinkSnapshot) *LinkSet {
	s := &LinkSet{}
	s.Reset(init)
	return s
}

// Reset replaces the set's content with a snapshot.
func (s *LinkSet) Reset(snap LinkSnapshot) {
	s.links = make(map[Link]struct{}, len(snap.Links))
	for _, l := range snap.Links {
		s.links[NewLink(l.ID1, l.ID2)] = struct{}{}
	}
}

// Apply folds one event into the set. Redundant events are ignored.
func (s *LinkSet) Apply(e LinkEvent) {
	l := NewLink(e.ID1, e.ID2)
	switch e.Type {
	case LinkUp:
		s.links[l] = struct{}{}
	case LinkDown:
		delete(s.links, l)
	}
}

// Has reports whether l is active.
func (s *LinkSet) Has(l Link) bool {
	_, ok := s.links[NewLink(l.ID1, l.ID2)]
	return ok
}

// Len returns the number of active links.
func (s *LinkSet) Len() int { return len(s.links) }

// Links returns the active links in canonical order.
func (s *LinkSet) Links() []Link {
	out := make([]Link, 0, len(s.links))
	for l := range s.links {
		out = append(out, l)
	}
	slices.SortFunc(out, Link.Compare)
	return out
}

// Adjacency returns each node's sorted neighbour list.
func (s *LinkSet) Adjacency() map[NodeID][]NodeID {
	adj := make(map[NodeID][]NodeID)
	for _, l := range s.Links() {
		adj[l.ID1] = append(adj[l.ID1], l.ID2)
		adj[l.ID2] = append(adj[l.ID2], l.ID1)
	}
	for n := range adj {
		slices.Sort(adj[n])
	}
	return adj
}

// Snapshot materializes the set at time t.
func (s *LinkSet) Snapshot(t Time) LinkSnapshot {
	return LinkSnapshot{Time: t, Links: s.Links()}
}
