// Package analysis connects stored traces to a report and runs the replay.
//
// Wire resolves the traces a report needs, creates one reader per trace
// and only the buses the report declared, then builds a Runner over the
// readers. Session drives the run and finishes the report exactly once
// after the loop ends. Analyze wraps both for one-shot use.
package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/netreplay/internal/bus"
	"github.com/roach88/netreplay/internal/engine"
	"github.com/roach88/netreplay/internal/ir"
	"github.com/roach88/netreplay/internal/metrics"
	"github.com/roach88/netreplay/internal/report"
	"github.com/roach88/netreplay/internal/store"
)

// TraceNames selects the stored trace read for each kind.
type TraceNames struct {
	Presence string
	Links    string
	Groups   string
}

// DefaultTraceNames returns the conventional names.
func DefaultTraceNames() TraceNames {
	return TraceNames{Presence: "presence", Links: "links", Groups: "groups"}
}

// For returns the trace name configured for kind k.
func (n TraceNames) For(k ir.Kind) string {
	switch k {
	case ir.KindPresence:
		return n.Presence
	case ir.KindLinks:
		return n.Links
	case ir.KindGroups:
		return n.Groups
	}
	return ""
}

// Options configures a run. The zero value uses the default trace names,
// the derived window and no metrics.
type Options struct {
	Traces TraceNames

	// Overrides of the derived run window; nil keeps the derived value.
	MinTime   *ir.Time
	MaxTime   *ir.Time
	Increment *ir.Time

	Logger  *slog.Logger
	Metrics *metrics.Metrics
	RunIDs  engine.RunIDGenerator
}

func (o Options) withDefaults() Options {
	def := DefaultTraceNames()
	if o.Traces.Presence == "" {
		o.Traces.Presence = def.Presence
	}
	if o.Traces.Links == "" {
		o.Traces.Links = def.Links
	}
	if o.Traces.Groups == "" {
		o.Traces.Groups = def.Groups
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.RunIDs == nil {
		o.RunIDs = engine.UUIDv7Generator{}
	}
	return o
}

// sources holds the resolved traces; a nil field is a kind the report
// does not read.
type sources struct {
	presence *store.TraceSource[ir.PresenceEvent, ir.PresenceSnapshot]
	links    *store.TraceSource[ir.LinkEvent, ir.LinkSnapshot]
	groups   *store.TraceSource[ir.GroupEvent, ir.GroupSnapshot]
}

// resolve looks up every trace caps needs. It touches nothing but the
// store, so a missing trace fails before any bus or reader exists.
func resolve(ctx context.Context, st *store.Store, caps report.Capabilities, names TraceNames) (sources, error) {
	var src sources
	var err error
	if caps.Needs(ir.KindPresence) {
		if src.presence, err = st.Presence(ctx, names.Presence); err != nil {
			return sources{}, err
		}
	}
	if caps.Needs(ir.KindLinks) {
		if src.links, err = st.Links(ctx, names.Links); err != nil {
			return sources{}, err
		}
	}
	if caps.Needs(ir.KindGroups) {
		if src.groups, err = st.Groups(ctx, names.Groups); err != nil {
			return sources{}, err
		}
	}
	return src, nil
}

type readerFactory[E ir.Timed, S ir.Timed] func(
	context.Context, ir.Source[E, S], *bus.Bus[E], *bus.Bus[S],
) (*engine.Reader[E, S], error)

// wireKind creates the buses a report declared for one kind, subscribes
// its listeners and then the delivery counters, and opens the reader.
func wireKind[E ir.Timed, S ir.Timed](
	ctx context.Context,
	src ir.Source[E, S],
	caps report.Capabilities,
	eventCap, stateCap report.Capability,
	onEvent bus.Listener[E],
	onState bus.Listener[S],
	m *metrics.Metrics,
	newReader readerFactory[E, S],
) (*engine.Reader[E, S], error) {
	var events *bus.Bus[E]
	var states *bus.Bus[S]

	if caps.Has(eventCap) {
		events = bus.New[E](eventCap.String())
		if err := subscribe(events, onEvent, m); err != nil {
			return nil, err
		}
	}
	if caps.Has(stateCap) {
		states = bus.New[S](stateCap.String())
		if err := subscribe(states, onState, m); err != nil {
			return nil, err
		}
	}

	r, err := newReader(ctx, src, events, states)
	if err != nil {
		return nil, err
	}
	if m != nil {
		r.OnApply(m.ReaderApplied(r.Name()))
	}
	return r, nil
}

func subscribe[T any](b *bus.Bus[T], l bus.Listener[T], m *metrics.Metrics) error {
	if err := b.AddListener(l); err != nil {
		return err
	}
	if m != nil {
		return metrics.Observe(m, b)
	}
	return nil
}

// Wire builds a session that replays the traces rep needs into rep.
// On error everything created so far is closed.
func Wire(ctx context.Context, st *store.Store, rep report.Report, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	caps := rep.Capabilities()
	listeners := rep.Listeners()
	if err := listeners.Validate(caps); err != nil {
		return nil, fmt.Errorf("report %s: %w", rep.Name(), err)
	}

	src, err := resolve(ctx, st, caps, opts.Traces)
	if err != nil {
		return nil, err
	}

	var gens []engine.Generator
	teardown := func() {
		for _, g := range gens {
			_ = g.Close()
		}
	}

	if src.presence != nil {
		r, err := wireKind[ir.PresenceEvent, ir.PresenceSnapshot](ctx, src.presence, caps,
			report.PresenceEvents, report.PresenceStates,
			listeners.PresenceEvents, listeners.PresenceStates,
			opts.Metrics, engine.NewPresenceReader)
		if err != nil {
			teardown()
			return nil, err
		}
		gens = append(gens, r)
	}
	if src.links != nil {
		r, err := wireKind[ir.LinkEvent, ir.LinkSnapshot](ctx, src.links, caps,
			report.LinkEvents, report.LinkStates,
			listeners.LinkEvents, listeners.LinkStates,
			opts.Metrics, engine.NewLinkReader)
		if err != nil {
			teardown()
			return nil, err
		}
		gens = append(gens, r)
	}
	if src.groups != nil {
		r, err := wireKind[ir.GroupEvent, ir.GroupSnapshot](ctx, src.groups, caps,
			report.GroupEvents, report.GroupStates,
			listeners.GroupEvents, listeners.GroupStates,
			opts.Metrics, engine.NewGroupReader)
		if err != nil {
			teardown()
			return nil, err
		}
		gens = append(gens, r)
	}

	cfg, err := runConfig(gens, opts)
	if err != nil {
		teardown()
		return nil, err
	}

	runnerOpts := []engine.RunnerOption{engine.WithLogger(opts.Logger)}
	if opts.Metrics != nil {
		runnerOpts = append(runnerOpts, engine.WithStepObserver(opts.Metrics.Step))
	}
	runner, err := engine.NewRunner(cfg, runnerOpts...)
	if err != nil {
		teardown()
		return nil, err
	}
	for _, g := range gens {
		if err := runner.AddGenerator(g); err != nil {
			teardown()
			return nil, err
		}
	}

	return &Session{
		runID:   opts.RunIDs.Generate(),
		report:  rep,
		runner:  runner,
		traces:  traceNames(gens),
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}, nil
}

// runConfig derives the window from the readers and applies overrides.
// Explicit min and max overrides stand in for bounds no trace knows.
func runConfig(gens []engine.Generator, opts Options) (engine.Config, error) {
	cfg, err := engine.DeriveConfig(gens)
	if err != nil {
		if !engine.IsNoBounds(err) || opts.MinTime == nil || opts.MaxTime == nil {
			return engine.Config{}, err
		}
		cfg = engine.Config{Increment: minInterval(gens)}
	}
	cfg = cfg.WithOverrides(opts.MinTime, opts.MaxTime, opts.Increment)
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

func minInterval(gens []engine.Generator) ir.Time {
	var iv ir.Time
	for _, g := range gens {
		if m := g.MaxUpdateInterval(); iv == 0 || m < iv {
			iv = m
		}
	}
	return iv
}

func traceNames(gens []engine.Generator) []string {
	names := make([]string, len(gens))
	for i, g := range gens {
		names[i] = g.Name()
	}
	return names
}
