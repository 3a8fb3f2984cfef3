package report

import (
	"io"

	"github.com/roach88/netreplay/internal/ir"
)

// ComponentSizes reports the connected component sizes over time as
// "t s1 s2 ..." lines with sizes ascending. Empty groups are not listed.
type ComponentSizes struct {
	base
	groups *ir.GroupSet
	series series
}

// NewComponentSizes creates a ccs report writing to w.
func NewComponentSizes(w io.Writer) *ComponentSizes {
	return &ComponentSizes{base: newBase("ccs", w, GroupEvents, GroupStates)}
}

func (r *ComponentSizes) Listeners() Listeners {
	return Listeners{
		GroupEvents: func(e ir.GroupEvent) error {
			if r.groups == nil {
				return nil
			}
			r.groups.Apply(e)
			r.record(e.Time)
			return nil
		},
		GroupStates: func(s ir.GroupSnapshot) error {
			if r.groups == nil {
				r.groups = ir.NewGroupSet(s)
			} else {
				r.groups.Reset(s)
			}
			r.record(s.Time)
			return nil
		},
	}
}

func (r *ComponentSizes) record(t ir.Time) {
	var sizes []int
	for _, n := range r.groups.Sizes() {
		if n > 0 {
			sizes = append(sizes, n)
		}
	}
	r.series.record(t, joinInts(sizes))
}

func (r *ComponentSizes) Finish() error {
	return r.finish(r.series.render)
}
