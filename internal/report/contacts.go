package report

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/roach88/netreplay/internal/ir"
)

// linkTracker follows the set of active links from the first state on.
type linkTracker struct {
	active   map[ir.Link]bool
	degree   map[ir.NodeID]int
	baseline bool
}

func (l *linkTracker) state(s ir.LinkSnapshot) {
	l.baseline = true
	l.active = make(map[ir.Link]bool, len(s.Links))
	l.degree = make(map[ir.NodeID]int)
	for _, link := range s.Links {
		link = ir.NewLink(link.ID1, link.ID2)
		if l.active[link] {
			continue
		}
		l.active[link] = true
		l.degree[link.ID1]++
		l.degree[link.ID2]++
	}
}

// event applies e and reports whether it changed the set.
func (l *linkTracker) event(e ir.LinkEvent) bool {
	if !l.baseline {
		return false
	}
	link := ir.NewLink(e.ID1, e.ID2)
	switch e.Type {
	case ir.LinkUp:
		if l.active[link] {
			return false
		}
		l.active[link] = true
		l.degree[link.ID1]++
		l.degree[link.ID2]++
		return true
	case ir.LinkDown:
		if !l.active[link] {
			return false
		}
		delete(l.active, link)
		l.decrement(link.ID1)
		l.decrement(link.ID2)
		return true
	}
	return false
}

func (l *linkTracker) decrement(n ir.NodeID) {
	if l.degree[n] <= 1 {
		delete(l.degree, n)
		return
	}
	l.degree[n]--
}

// NumContacts counts how many times each link came up, as sorted
// "id1 id2 count" lines.
type NumContacts struct {
	base
	counts map[ir.Link]int
}

// NewNumContacts creates a num-contacts report writing to w.
func NewNumContacts(w io.Writer) *NumContacts {
	return &NumContacts{
		base:   newBase("num-contacts", w, LinkEvents),
		counts: make(map[ir.Link]int),
	}
}

func (r *NumContacts) Listeners() Listeners {
	return Listeners{
		LinkEvents: func(e ir.LinkEvent) error {
			if e.Type == ir.LinkUp {
				r.counts[ir.NewLink(e.ID1, e.ID2)]++
			}
			return nil
		},
	}
}

func (r *NumContacts) Finish() error {
	return r.finish(func(buf *bytes.Buffer) {
		links := slices.SortedFunc(maps.Keys(r.counts), ir.Link.Compare)
		for _, l := range links {
			fmt.Fprintf(buf, "%s %d\n", l, r.counts[l])
		}
	})
}

// Contacts builds a histogram of link contact durations, or of the gaps
// between consecutive contacts of the same link.
type Contacts struct {
	base
	inter bool
	links linkTracker
	since map[ir.Link]ir.Time
	hist  histogram
}

// NewContacts creates a contacts report writing to w.
func NewContacts(w io.Writer) *Contacts {
	return newContacts("contacts", w, false)
}

// NewInterContacts creates an inter-contacts report writing to w.
func NewInterContacts(w io.Writer) *Contacts {
	return newContacts("inter-contacts", w, true)
}

func newContacts(name string, w io.Writer, inter bool) *Contacts {
	return &Contacts{
		base:  newBase(name, w, LinkEvents, LinkStates),
		inter: inter,
		since: make(map[ir.Link]ir.Time),
		hist:  make(histogram),
	}
}

func (r *Contacts) Listeners() Listeners {
	return Listeners{
		LinkEvents: func(e ir.LinkEvent) error {
			if !r.links.event(e) {
				return nil
			}
			link := ir.NewLink(e.ID1, e.ID2)
			// opens is the transition that starts a measured interval.
			opens := (e.Type == ir.LinkUp) != r.inter
			if opens {
				r.since[link] = e.Time
				return nil
			}
			if t0, ok := r.since[link]; ok {
				r.hist.add(e.Time - t0)
				delete(r.since, link)
			}
			return nil
		},
		LinkStates: func(s ir.LinkSnapshot) error {
			r.links.state(s)
			return nil
		},
	}
}

func (r *Contacts) Finish() error {
	return r.finish(func(buf *bytes.Buffer) { r.hist.render(buf) })
}

// AnyContacts builds a histogram, per node, of how long the node had at
// least one active link, or of how long it had none.
type AnyContacts struct {
	base
	inter bool
	links linkTracker
	since map[ir.NodeID]ir.Time
	hist  histogram
}

// NewAnyContacts creates an any-contacts report writing to w.
func NewAnyContacts(w io.Writer) *AnyContacts {
	return newAnyContacts("any-contacts", w, false)
}

// NewInterAnyContacts creates an inter-any-contacts report writing to w.
func NewInterAnyContacts(w io.Writer) *AnyContacts {
	return newAnyContacts("inter-any-contacts", w, true)
}

func newAnyContacts(name string, w io.Writer, inter bool) *AnyContacts {
	return &AnyContacts{
		base:  newBase(name, w, LinkEvents, LinkStates),
		inter: inter,
		since: make(map[ir.NodeID]ir.Time),
		hist:  make(histogram),
	}
}

func (r *AnyContacts) Listeners() Listeners {
	return Listeners{
		LinkEvents: func(e ir.LinkEvent) error {
			if !r.links.event(e) {
				return nil
			}
			for _, n := range []ir.NodeID{e.ID1, e.ID2} {
				r.transition(n, r.links.degree[n], e)
			}
			return nil
		},
		LinkStates: func(s ir.LinkSnapshot) error {
			r.links.state(s)
			return nil
		},
	}
}

// transition handles a node whose degree just moved by one.
func (r *AnyContacts) transition(n ir.NodeID, degree int, e ir.LinkEvent) {
	var opened, closed bool
	switch {
	case e.Type == ir.LinkUp && degree == 1:
		opened, closed = !r.inter, r.inter
	case e.Type == ir.LinkDown && degree == 0:
		opened, closed = r.inter, !r.inter
	}
	switch {
	case opened:
		r.since[n] = e.Time
	case closed:
		if t0, ok := r.since[n]; ok {
			r.hist.add(e.Time - t0)
			delete(r.since, n)
		}
	}
}

func (r *AnyContacts) Finish() error {
	return r.finish(func(buf *bytes.Buffer) { r.hist.render(buf) })
}
