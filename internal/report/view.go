package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/netreplay/internal/ir"
)

// View keeps the latest state of each replayed domain for hosts that
// display the run as it progresses. It produces no output of its own.
type View struct {
	base
	events  map[ir.Kind]int
	entries map[ir.Kind]int
}

// NewView creates a view over the given trace kinds.
func NewView(kinds ...ir.Kind) *View {
	var caps []Capability
	for _, k := range kinds {
		switch k {
		case ir.KindPresence:
			caps = append(caps, PresenceEvents, PresenceStates)
		case ir.KindLinks:
			caps = append(caps, LinkEvents, LinkStates)
		case ir.KindGroups:
			caps = append(caps, GroupEvents, GroupStates)
		}
	}
	return &View{
		base:    newBase("view", io.Discard, caps...),
		events:  make(map[ir.Kind]int),
		entries: make(map[ir.Kind]int),
	}
}

func (v *View) Listeners() Listeners {
	var l Listeners
	if v.caps.Has(PresenceEvents) {
		l.PresenceEvents = func(ir.PresenceEvent) error { v.events[ir.KindPresence]++; return nil }
		l.PresenceStates = func(s ir.PresenceSnapshot) error {
			v.entries[ir.KindPresence] = len(s.Nodes)
			return nil
		}
	}
	if v.caps.Has(LinkEvents) {
		l.LinkEvents = func(ir.LinkEvent) error { v.events[ir.KindLinks]++; return nil }
		l.LinkStates = func(s ir.LinkSnapshot) error {
			v.entries[ir.KindLinks] = len(s.Links)
			return nil
		}
	}
	if v.caps.Has(GroupEvents) {
		l.GroupEvents = func(ir.GroupEvent) error { v.events[ir.KindGroups]++; return nil }
		l.GroupStates = func(s ir.GroupSnapshot) error {
			v.entries[ir.KindGroups] = len(s.Groups)
			return nil
		}
	}
	return l
}

// Entries returns the size of the latest state of kind k: present nodes,
// active links or groups.
func (v *View) Entries(k ir.Kind) int { return v.entries[k] }

// Events returns how many events of kind k have been delivered.
func (v *View) Events(k ir.Kind) int { return v.events[k] }

// Line renders a one-line status for time t.
func (v *View) Line(t ir.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "t=%d", t)
	for _, k := range v.caps.Kinds() {
		fmt.Fprintf(&b, " %s=%d/%d", k, v.entries[k], v.events[k])
	}
	return b.String()
}

func (v *View) Finish() error {
	v.finished = true
	return nil
}
