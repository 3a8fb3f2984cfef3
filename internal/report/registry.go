package report

import (
	"fmt"
	"io"
	"slices"
)

// Factory creates a report writing to w.
type Factory func(w io.Writer) Report

// Descriptor describes a registered report.
type Descriptor struct {
	Name        string
	Description string
	Factory     Factory
}

// UnknownReportError is returned by Lookup for an unregistered name.
type UnknownReportError struct {
	Name string
}

func (e *UnknownReportError) Error() string {
	return fmt.Sprintf("unknown report %q", e.Name)
}

var registry = []Descriptor{
	{"node-count", "node count report", func(w io.Writer) Report { return NewNodeCount(w) }},
	{"transit-times", "transit times report", func(w io.Writer) Report { return NewTransitTimes(w) }},
	{"first-contact-time", "time to first contact report", func(w io.Writer) Report { return NewFirstContact(w) }},
	{"num-contacts", "number of contacts distribution", func(w io.Writer) Report { return NewNumContacts(w) }},
	{"node-degree", "node degree distribution over time", func(w io.Writer) Report { return NewNodeDegree(w) }},
	{"contacts", "contact time distribution", func(w io.Writer) Report { return NewContacts(w) }},
	{"inter-contacts", "inter-contact time distribution", func(w io.Writer) Report { return NewInterContacts(w) }},
	{"any-contacts", "any-contact time distribution", func(w io.Writer) Report { return NewAnyContacts(w) }},
	{"inter-any-contacts", "inter-any-contact time distribution", func(w io.Writer) Report { return NewInterAnyContacts(w) }},
	{"clustering", "clustering coefficient distribution over time", func(w io.Writer) Report { return NewClustering(w) }},
	{"ccs", "distribution of connected component sizes over time", func(w io.Writer) Report { return NewComponentSizes(w) }},
	{"digest", "delivery fingerprint of every stream", func(w io.Writer) Report { return NewDigest(w, All()) }},
}

// Registered returns every report descriptor in registration order.
func Registered() []Descriptor {
	return slices.Clone(registry)
}

// Names returns the registered report names in registration order.
func Names() []string {
	names := make([]string, len(registry))
	for i, d := range registry {
		names[i] = d.Name
	}
	return names
}

// Lookup finds a report by name.
func Lookup(name string) (Descriptor, error) {
	for _, d := range registry {
		if d.Name == name {
			return d, nil
		}
	}
	return Descriptor{}, &UnknownReportError{Name: name}
}
