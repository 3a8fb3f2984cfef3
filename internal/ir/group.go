package ir

import (
	"fmt"
	"slices"
)

// GroupEventType is the kind of group membership change.
type GroupEventType int

const (
	// GroupNew creates an empty group.
	GroupNew GroupEventType = iota + 1
	// GroupJoin adds members to a group.
	GroupJoin
	// GroupLeave removes members from a group.
	GroupLeave
	// GroupDelete removes a group.
	GroupDelete
)

func (t GroupEventType) String() string {
	switch t {
	case GroupNew:
		return "new"
	case GroupJoin:
		return "join"
	case GroupLeave:
		return "leave"
	case GroupDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t GroupEventType) MarshalText() ([]byte, error) {
	if t < GroupNew || t > GroupDelete {
		return nil, fmt.Errorf("invalid group event type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *GroupEventType) UnmarshalText(b []byte) error {
	v, err := ParseGroupEventType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseGroupEventType converts "new", "join", "leave" or "delete".
func ParseGroupEventType(s string) (GroupEventType, error) {
	switch s {
	case "new":
		return GroupNew, nil
	case "join":
		return GroupJoin, nil
	case "leave":
		return GroupLeave, nil
	case "delete":
		return GroupDelete, nil
	}
	return 0, fmt.Errorf("unknown group event type %q", s)
}

// GroupEvent records one membership change of group GID.
type GroupEvent struct {
	Time    Time           `json:"time"`
	GID     int64          `json:"gid"`
	Type    GroupEventType `json:"type"`
	Members []NodeID       `json:"members,omitempty"`
}

// Timestamp implements Timed.
func (e GroupEvent) Timestamp() Time { return e.Time }

func (e GroupEvent) String() string {
	return fmt.Sprintf("%d %d %s %v", e.Time, e.GID, e.Type, e.Members)
}

// Group is one group and its sorted members.
type Group struct {
	GID     int64    `json:"gid"`
	Members []NodeID `json:"members"`
}

// GroupSnapshot is the group partition at a point in time, sorted by GID.
type GroupSnapshot struct {
	Time   Time    `json:"time"`
	Groups []Group `json:"groups"`
}

// Timestamp implements Timed.
func (s GroupSnapshot) Timestamp() Time { return s.Time }

// GroupSet accumulates group events into the current partition.
type GroupSet struct {
	groups map[int64]map[NodeID]struct{}
}

// NewGroupSet seeds a set from a snapshot.
func NewGroupSet(init GroupSnapshot) *GroupSet {
	s := &GroupSet{}
	s.Reset(init)
	return s
}

// Reset replaces the set's content with a snapshot.
func (s *GroupSet) Reset(snap GroupSnapshot) {
	s.groups = make(map[int64]map[NodeID]struct{}, len(snap.Groups))
	for _, g := range snap.Groups {
		members := make(map[NodeID]struct{}, len(g.Members))
		for _, n := range g.Members {
			members[n] = struct{}{}
		}
		s.groups[g.GID] = members
	}
}

// Apply folds one event into the partition. Joining an unknown group
// creates it; leaving or deleting an unknown group is ignored.
func (s *GroupSet) Apply(e GroupEvent) {
	switch e.Type {
	case GroupNew:
		if _, ok := s.groups[e.GID]; !ok {
			s.groups[e.GID] = make(map[NodeID]struct{})
		}
		for _, n := range e.Members {
			s.groups[e.GID][n] = struct{}{}
		}
	case GroupJoin:
		members, ok := s.groups[e.GID]
		if !ok {
			members = make(map[NodeID]struct{})
			s.groups[e.GID] = members
		}
		for _, n := range e.Members {
			members[n] = struct{}{}
		}
	case GroupLeave:
		if members, ok := s.groups[e.GID]; ok {
			for _, n := range e.Members {
				delete(members, n)
			}
		}
	case GroupDelete:
		delete(s.groups, e.GID)
	}
}

// Len returns the number of groups.
func (s *GroupSet) Len() int { return len(s.groups) }

// Sizes returns the group sizes in ascending order.
func (s *GroupSet) Sizes() []int {
	out := make([]int, 0, len(s.groups))
	for _, members := range s.groups {
		out = append(out, len(members))
	}
	slices.Sort(out)
	return out
}

// Groups returns the partition sorted by GID with sorted members.
func (s *GroupSet) Groups() []Group {
	gids := make([]int64, 0, len(s.groups))
	for gid := range s.groups {
		gids = append(gids, gid)
	}
	slices.Sort(gids)

	out := make([]Group, 0, len(gids))
	for _, gid := range gids {
		members := make([]NodeID, 0, len(s.groups[gid]))
		for n := range s.groups[gid] {
			members = append(members, n)
		}
		slices.Sort(members)
		out = append(out, Group{GID: gid, Members: members})
	}
	return out
}

// Snapshot materializes the partition at time t.
func (s *GroupSet) Snapshot(t Time) GroupSnapshot {
	return GroupSnapshot{Time: t, Groups: s.Groups()}
}
