package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/roach88/netreplay/internal/ir"
)

// FirstContact reports, for every node that enters the network, the delay
// until its first link comes up, as "node delay" lines in the order the
// contacts happen. Nodes present in the first state and nodes that leave
// before any contact are not reported. A link-up timestamped before the
// node's arrival is not a contact; the node keeps waiting.
type FirstContact struct {
	base
	nodes   presenceTracker
	links   linkTracker
	waiting map[ir.NodeID]ir.Time
	lines   []string
}

// NewFirstContact creates a first-contact-time report writing to w.
func NewFirstContact(w io.Writer) *FirstContact {
	return &FirstContact{
		base:    newBase("first-contact-time", w, PresenceEvents, PresenceStates, LinkEvents, LinkStates),
		waiting: make(map[ir.NodeID]ir.Time),
	}
}

func (r *FirstContact) Listeners() Listeners {
	return Listeners{
		PresenceEvents: func(e ir.PresenceEvent) error {
			if !r.nodes.event(e) {
				return nil
			}
			switch e.Type {
			case ir.PresenceIn:
				r.waiting[e.Node] = e.Time
			case ir.PresenceOut:
				delete(r.waiting, e.Node)
			}
			return nil
		},
		PresenceStates: func(s ir.PresenceSnapshot) error {
			r.nodes.state(s)
			return nil
		},
		LinkEvents: func(e ir.LinkEvent) error {
			if !r.links.event(e) || e.Type != ir.LinkUp {
				return nil
			}
			for _, n := range []ir.NodeID{e.ID1, e.ID2} {
				if t0, ok := r.waiting[n]; ok && e.Time >= t0 {
					r.lines = append(r.lines, fmt.Sprintf("%d %d", n, e.Time-t0))
					delete(r.waiting, n)
				}
			}
			return nil
		},
		LinkStates: func(s ir.LinkSnapshot) error {
			r.links.state(s)
			return nil
		},
	}
}

func (r *FirstContact) Finish() error {
	return r.finish(func(buf *bytes.Buffer) {
		for _, l := range r.lines {
			buf.WriteString(l)
			buf.WriteByte('\n')
		}
	})
}
