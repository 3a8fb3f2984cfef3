// Package report defines the statistical consumers of a replay and the
// built-in analyses.
//
// A Report declares the streams it consumes as a Capabilities set and
// exposes one typed listener per declared capability. Wiring subscribes
// exactly those listeners; nothing inspects the concrete report type.
//
// Reports buffer their output in memory. Finish renders it and writes it to
// the sink once, so a run that fails midway never emits partial results.
package report

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/netreplay/internal/bus"
	"github.com/roach88/netreplay/internal/ir"
)

// Report is a statistical consumer of replayed traces.
type Report interface {
	// Name is the registry name of the report.
	Name() string

	// Capabilities is the set of streams the report consumes.
	Capabilities() Capabilities

	// Listeners returns one listener per declared capability.
	Listeners() Listeners

	// Finish writes the report's output. Only the first call writes.
	Finish() error
}

// Listeners holds a report's typed bus listeners. A field is non-nil
// exactly when the matching capability is declared.
type Listeners struct {
	PresenceEvents bus.Listener[ir.PresenceEvent]
	PresenceStates bus.Listener[ir.PresenceSnapshot]
	LinkEvents     bus.Listener[ir.LinkEvent]
	LinkStates     bus.Listener[ir.LinkSnapshot]
	GroupEvents    bus.Listener[ir.GroupEvent]
	GroupStates    bus.Listener[ir.GroupSnapshot]
}

// set returns the capabilities that have a listener.
func (l Listeners) set() Capabilities {
	var s Capabilities
	present := []bool{
		l.PresenceEvents != nil, l.PresenceStates != nil,
		l.LinkEvents != nil, l.LinkStates != nil,
		l.GroupEvents != nil, l.GroupStates != nil,
	}
	for i, ok := range present {
		if ok {
			s |= Capabilities(AllCapabilities[i])
		}
	}
	return s
}

// Validate checks that the listeners match caps exactly.
func (l Listeners) Validate(caps Capabilities) error {
	have := l.set()
	for _, c := range AllCapabilities {
		switch {
		case caps.Has(c) && !have.Has(c):
			return fmt.Errorf("capability %s declared without a listener", c)
		case !caps.Has(c) && have.Has(c):
			return fmt.Errorf("listener for undeclared capability %s", c)
		}
	}
	return nil
}

// base carries what every report shares: identity and buffered output.
type base struct {
	name     string
	caps     Capabilities
	w        io.Writer
	finished bool
}

func newBase(name string, w io.Writer, caps ...Capability) base {
	return base{name: name, caps: Of(caps...), w: w}
}

func (b *base) Name() string               { return b.name }
func (b *base) Capabilities() Capabilities { return b.caps }

// finish renders into a buffer and writes it once.
func (b *base) finish(render func(*bytes.Buffer)) error {
	if b.finished {
		return nil
	}
	b.finished = true

	var buf bytes.Buffer
	render(&buf)
	if _, err := b.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("report %s: write output: %w", b.name, err)
	}
	return nil
}

// series is a time series of "t value" lines that records only changes.
// A second value at the same time replaces the first.
type series struct {
	times  []ir.Time
	values []string
}

func (s *series) record(t ir.Time, value string) {
	n := len(s.times)
	if n > 0 && s.times[n-1] == t {
		s.values[n-1] = value
		if n > 1 && s.values[n-2] == value {
			s.times, s.values = s.times[:n-1], s.values[:n-1]
		}
		return
	}
	if n > 0 && s.values[n-1] == value {
		return
	}
	s.times = append(s.times, t)
	s.values = append(s.values, value)
}

func (s *series) render(buf *bytes.Buffer) {
	for i, t := range s.times {
		if s.values[i] == "" {
			fmt.Fprintf(buf, "%d\n", t)
			continue
		}
		fmt.Fprintf(buf, "%d %s\n", t, s.values[i])
	}
}

// histogram counts durations.
type histogram map[ir.Time]int

func (h histogram) add(d ir.Time) { h[d]++ }

func (h histogram) render(buf *bytes.Buffer) {
	keys := make([]ir.Time, 0, len(h))
	for d := range h {
		keys = append(keys, d)
	}
	slices.Sort(keys)
	for _, d := range keys {
		fmt.Fprintf(buf, "%d %d\n", d, h[d])
	}
}

// joinInts renders integers separated by single spaces.
func joinInts[T ~int | ~int64](vs []T) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}
	return strings.Join(parts, " ")
}
