package report

import (
	"fmt"
	"io"
	"slices"

	"github.com/roach88/netreplay/internal/ir"
)

// NodeDegree reports the degree distribution over time as "t n0 n1 ..."
// lines, where nk is the number of nodes with degree k. Every node that
// has appeared on a link counts, including nodes now isolated.
type NodeDegree struct {
	base
	links  linkTracker
	known  map[ir.NodeID]bool
	series series
}

// NewNodeDegree creates a node-degree report writing to w.
func NewNodeDegree(w io.Writer) *NodeDegree {
	return &NodeDegree{
		base:  newBase("node-degree", w, LinkEvents, LinkStates),
		known: make(map[ir.NodeID]bool),
	}
}

func (r *NodeDegree) Listeners() Listeners {
	return Listeners{
		LinkEvents: func(e ir.LinkEvent) error {
			if r.links.event(e) {
				r.known[e.ID1] = true
				r.known[e.ID2] = true
				r.record(e.Time)
			}
			return nil
		},
		LinkStates: func(s ir.LinkSnapshot) error {
			r.links.state(s)
			for _, l := range s.Links {
				r.known[l.ID1] = true
				r.known[l.ID2] = true
			}
			r.record(s.Time)
			return nil
		},
	}
}

func (r *NodeDegree) record(t ir.Time) {
	var dist []int
	for n := range r.known {
		d := r.links.degree[n]
		for len(dist) <= d {
			dist = append(dist, 0)
		}
		dist[d]++
	}
	r.series.record(t, joinInts(dist))
}

func (r *NodeDegree) Finish() error {
	return r.finish(r.series.render)
}

// Clustering reports the average local clustering coefficient over time
// as "t avg" lines. Only nodes with at least two neighbours contribute; the
// average is 0 when there are none.
type Clustering struct {
	base
	links  linkTracker
	series series
}

// NewClustering creates a clustering report writing to w.
func NewClustering(w io.Writer) *Clustering {
	return &Clustering{base: newBase("clustering", w, LinkEvents, LinkStates)}
}

func (r *Clustering) Listeners() Listeners {
	return Listeners{
		LinkEvents: func(e ir.LinkEvent) error {
			if r.links.event(e) {
				r.record(e.Time)
			}
			return nil
		},
		LinkStates: func(s ir.LinkSnapshot) error {
			r.links.state(s)
			r.record(s.Time)
			return nil
		},
	}
}

func (r *Clustering) record(t ir.Time) {
	r.series.record(t, fmt.Sprintf("%.6f", averageClustering(r.links.active)))
}

func (r *Clustering) Finish() error {
	return r.finish(r.series.render)
}

// averageClustering computes the mean local clustering coefficient of the
// undirected graph formed by active.
func averageClustering(active map[ir.Link]bool) float64 {
	adj := make(map[ir.NodeID][]ir.NodeID)
	for l := range active {
		adj[l.ID1] = append(adj[l.ID1], l.ID2)
		adj[l.ID2] = append(adj[l.ID2], l.ID1)
	}
	nodes := make([]ir.NodeID, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}
	// Fixed summation order keeps the float result reproducible.
	slices.Sort(nodes)

	var sum float64
	var counted int
	for _, n := range nodes {
		nb := adj[n]
		k := len(nb)
		if k < 2 {
			continue
		}
		var closed int
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				if active[ir.NewLink(nb[i], nb[j])] {
					closed++
				}
			}
		}
		sum += float64(2*closed) / float64(k*(k-1))
		counted++
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}
