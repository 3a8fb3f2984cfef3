package report

import (
	"strings"

	"github.com/roach88/netreplay/internal/ir"
)

// Capability is one stream a report can consume.
type Capability uint8

const (
	PresenceEvents Capability = 1 << iota
	PresenceStates
	LinkEvents
	LinkStates
	GroupEvents
	GroupStates
)

// AllCapabilities lists every capability in wiring order.
var AllCapabilities = []Capability{
	PresenceEvents, PresenceStates,
	LinkEvents, LinkStates,
	GroupEvents, GroupStates,
}

func (c Capability) String() string {
	switch c {
	case PresenceEvents:
		return "presence.events"
	case PresenceStates:
		return "presence.states"
	case LinkEvents:
		return "links.events"
	case LinkStates:
		return "links.states"
	case GroupEvents:
		return "groups.events"
	case GroupStates:
		return "groups.states"
	default:
		return "unknown"
	}
}

// Kind returns the trace kind the capability reads from.
func (c Capability) Kind() ir.Kind {
	switch c {
	case LinkEvents, LinkStates:
		return ir.KindLinks
	case GroupEvents, GroupStates:
		return ir.KindGroups
	default:
		return ir.KindPresence
	}
}

// Capabilities is a set of capabilities.
type Capabilities uint8

// Of builds a set.
func Of(caps ...Capability) Capabilities {
	var s Capabilities
	for _, c := range caps {
		s |= Capabilities(c)
	}
	return s
}

// All is the set of every capability.
func All() Capabilities { return Of(AllCapabilities...) }

// Has reports whether c is in the set.
func (s Capabilities) Has(c Capability) bool { return s&Capabilities(c) != 0 }

// Union returns the set of capabilities in s or o.
func (s Capabilities) Union(o Capabilities) Capabilities { return s | o }

// List returns the members in wiring order.
func (s Capabilities) List() []Capability {
	var out []Capability
	for _, c := range AllCapabilities {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Needs reports whether the set reads anything from traces of kind k.
func (s Capabilities) Needs(k ir.Kind) bool {
	for _, c := range s.List() {
		if c.Kind() == k {
			return true
		}
	}
	return false
}

// Kinds returns the trace kinds the set reads from, in canonical order.
func (s Capabilities) Kinds() []ir.Kind {
	var out []ir.Kind
	for _, k := range ir.Kinds {
		if s.Needs(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s Capabilities) String() string {
	list := s.List()
	if len(list) == 0 {
		return "none"
	}
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}
