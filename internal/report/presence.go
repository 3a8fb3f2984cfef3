package report

import (
	"bytes"
	"io"
	"strconv"

	"github.com/roach88/netreplay/internal/ir"
)

// presenceTracker follows the set of present nodes. Events delivered before
// the first state are folded into that state by the reader, so they are
// ignored here; the first state is the baseline.
type presenceTracker struct {
	present  map[ir.NodeID]bool
	baseline bool
}

func (p *presenceTracker) state(s ir.PresenceSnapshot) (first bool) {
	first = !p.baseline
	p.baseline = true
	p.present = make(map[ir.NodeID]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		p.present[n] = true
	}
	return first
}

// event applies e and reports whether it changed the set.
func (p *presenceTracker) event(e ir.PresenceEvent) bool {
	if !p.baseline {
		return false
	}
	switch e.Type {
	case ir.PresenceIn:
		if p.present[e.Node] {
			return false
		}
		p.present[e.Node] = true
		return true
	case ir.PresenceOut:
		if !p.present[e.Node] {
			return false
		}
		delete(p.present, e.Node)
		return true
	}
	return false
}

// NodeCount reports the number of present nodes over time as "t count"
// lines, one per change.
type NodeCount struct {
	base
	nodes  presenceTracker
	series series
}

// NewNodeCount creates a node-count report writing to w.
func NewNodeCount(w io.Writer) *NodeCount {
	return &NodeCount{base: newBase("node-count", w, PresenceEvents, PresenceStates)}
}

func (r *NodeCount) Listeners() Listeners {
	return Listeners{
		PresenceEvents: func(e ir.PresenceEvent) error {
			if r.nodes.event(e) {
				r.record(e.Time)
			}
			return nil
		},
		PresenceStates: func(s ir.PresenceSnapshot) error {
			r.nodes.state(s)
			r.record(s.Time)
			return nil
		},
	}
}

func (r *NodeCount) record(t ir.Time) {
	r.series.record(t, strconv.Itoa(len(r.nodes.present)))
}

func (r *NodeCount) Finish() error {
	return r.finish(r.series.render)
}

// TransitTimes reports how long nodes stay in the network as a histogram
// of "duration count" lines. Nodes present in the baseline state and nodes
// still present at the end are not counted.
type TransitTimes struct {
	base
	nodes   presenceTracker
	arrival map[ir.NodeID]ir.Time
	hist    histogram
}

// NewTransitTimes creates a transit-times report writing to w.
func NewTransitTimes(w io.Writer) *TransitTimes {
	return &TransitTimes{
		base:    newBase("transit-times", w, PresenceEvents, PresenceStates),
		arrival: make(map[ir.NodeID]ir.Time),
		hist:    make(histogram),
	}
}

func (r *TransitTimes) Listeners() Listeners {
	return Listeners{
		PresenceEvents: func(e ir.PresenceEvent) error {
			if !r.nodes.event(e) {
				return nil
			}
			switch e.Type {
			case ir.PresenceIn:
				r.arrival[e.Node] = e.Time
			case ir.PresenceOut:
				if t0, ok := r.arrival[e.Node]; ok {
					r.hist.add(e.Time - t0)
					delete(r.arrival, e.Node)
				}
			}
			return nil
		},
		PresenceStates: func(s ir.PresenceSnapshot) error {
			r.nodes.state(s)
			return nil
		},
	}
}

func (r *TransitTimes) Finish() error {
	return r.finish(func(buf *bytes.Buffer) { r.hist.render(buf) })
}
