package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/netreplay/internal/bus"
	"github.com/roach88/netreplay/internal/ir"
	"github.com/roach88/netreplay/internal/testutil"
)

// stubGenerator records the times it was stepped at.
type stubGenerator struct {
	name     string
	min, max ir.Bound
	interval ir.Time
	steps    []ir.Time
	log      *[]string
	failAt   ir.Time
	failErr  error
	closed   int
}

func (g *stubGenerator) Name() string               { return g.name }
func (g *stubGenerator) MinTime() ir.Bound          { return g.min }
func (g *stubGenerator) MaxTime() ir.Bound          { return g.max }
func (g *stubGenerator) MaxUpdateInterval() ir.Time { return g.interval }

func (g *stubGenerator) Step(ctx context.Context, t ir.Time) error {
	if g.failErr != nil && t == g.failAt {
		return g.failErr
	}
	g.steps = append(g.steps, t)
	if g.log != nil {
		*g.log = append(*g.log, g.name)
	}
	return nil
}

func (g *stubGenerator) Close() error {
	g.closed++
	return nil
}

func TestDeriveConfig_FirstKnownBoundsWin(t *testing.T) {
	a := &stubGenerator{name: "a", min: ir.Known(5), max: ir.Known(100), interval: 10}
	b := &stubGenerator{name: "b", min: ir.Unknown, max: ir.Known(80), interval: 10}

	cfg, err := DeriveConfig([]Generator{a, b})
	require.NoError(t, err)
	assert.Equal(t, ir.Time(5), cfg.MinTime)
	assert.Equal(t, ir.Time(100), cfg.MaxTime)
}

func TestDeriveConfig_UnknownFirstBoundIsSkipped(t *testing.T) {
	a := &stubGenerator{name: "a", interval: 10}
	b := &stubGenerator{name: "b", min: ir.Known(3), max: ir.Known(50), interval: 10}

	cfg, err := DeriveConfig([]Generator{a, b})
	require.NoError(t, err)
	assert.Equal(t, Config{Increment: 10, MinTime: 3, MaxTime: 50}, cfg)
}

func TestDeriveConfig_IncrementIsSmallestInterval(t *testing.T) {
	gens := []Generator{
		&stubGenerator{name: "a", min: ir.Known(0), max: ir.Known(100), interval: 10},
		&stubGenerator{name: "b", interval: 5},
		&stubGenerator{name: "c", interval: 20},
	}

	cfg, err := DeriveConfig(gens)
	require.NoError(t, err)
	assert.Equal(t, ir.Time(5), cfg.Increment)
	assert.Equal(t, int64(21), cfg.Steps())
}

func TestDeriveConfig_Errors(t *testing.T) {
	_, err := DeriveConfig(nil)
	assert.True(t, IsInvalidConfig(err))

	_, err = DeriveConfig([]Generator{&stubGenerator{name: "a", interval: 1}})
	assert.True(t, IsNoBounds(err))

	_, err = DeriveConfig([]Generator{&stubGenerator{name: "a", min: ir.Known(0), interval: 1}})
	assert.True(t, IsNoBounds(err), "a known min without a known max cannot run")

	_, err = DeriveConfig([]Generator{&stubGenerator{name: "a", min: ir.Known(0), max: ir.Known(1)}})
	require.Error(t, err)
	assert.True(t, IsInvalidConfig(err))
	assert.Contains(t, err.Error(), "trace=a")
}

func TestConfig_WithOverrides(t *testing.T) {
	cfg := Config{Increment: 5, MinTime: 0, MaxTime: 100}
	lo, incr := ir.Time(20), ir.Time(1)

	got := cfg.WithOverrides(&lo, nil, &incr)
	assert.Equal(t, Config{Increment: 1, MinTime: 20, MaxTime: 100}, got)
	assert.Equal(t, cfg, cfg.WithOverrides(nil, nil, nil))
}

func TestNewRunner_ValidatesConfig(t *testing.T) {
	_, err := NewRunner(Config{Increment: 0, MinTime: 0, MaxTime: 10})
	assert.True(t, IsInvalidConfig(err))

	_, err = NewRunner(Config{Increment: 1, MinTime: 10, MaxTime: 0})
	assert.True(t, IsInvalidConfig(err))
}

func TestConfig_RejectsWindowEndingNearMaxTime(t *testing.T) {
	err := Config{Increment: 5, MinTime: 0, MaxTime: math.MaxInt64}.Validate()
	assert.True(t, IsInvalidConfig(err))

	err = Config{Increment: 5, MinTime: 0, MaxTime: math.MaxInt64 - 4}.Validate()
	assert.True(t, IsInvalidConfig(err))

	assert.NoError(t, Config{Increment: 5, MinTime: 0, MaxTime: math.MaxInt64 - 5}.Validate())
}

func TestConfig_StepsAcrossFullRange(t *testing.T) {
	cfg := Config{Increment: 1, MinTime: math.MinInt64, MaxTime: math.MaxInt64 - 1}
	assert.Equal(t, int64(math.MaxInt64), cfg.Steps())

	cfg = Config{Increment: math.MaxInt64 / 2, MinTime: math.MinInt64 / 2, MaxTime: math.MaxInt64 / 2}
	assert.Equal(t, int64(3), cfg.Steps())
}

func TestRunner_LastIncrementBeforeLimitTerminates(t *testing.T) {
	const maxTime = ir.Time(math.MaxInt64 - 10)
	g := &stubGenerator{name: "g", interval: 10}

	var observed []ir.Time
	r, err := NewRunner(Config{Increment: 10, MinTime: maxTime - 20, MaxTime: maxTime},
		WithLogger(testLogger()),
		WithStepObserver(func(t ir.Time) { observed = append(observed, t) }))
	require.NoError(t, err)
	require.NoError(t, r.AddGenerator(g))

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []ir.Time{maxTime - 20, maxTime - 10, maxTime}, observed)
	assert.True(t, r.Done())
}

func TestRunner_StepsEveryGeneratorOverWindow(t *testing.T) {
	var order []string
	a := &stubGenerator{name: "a", min: ir.Known(0), max: ir.Known(100), interval: 10, log: &order}
	b := &stubGenerator{name: "b", interval: 5, log: &order}

	cfg, err := DeriveConfig([]Generator{a, b})
	require.NoError(t, err)

	var observed []ir.Time
	r, err := NewRunner(cfg, WithLogger(testLogger()), WithStepObserver(func(t ir.Time) {
		observed = append(observed, t)
	}))
	require.NoError(t, err)
	require.NoError(t, r.AddGenerator(a))
	require.NoError(t, r.AddGenerator(b))

	require.NoError(t, r.Run(context.Background()))

	assert.Len(t, a.steps, 21)
	assert.Equal(t, a.steps, b.steps)
	assert.Equal(t, ir.Time(0), a.steps[0])
	assert.Equal(t, ir.Time(100), a.steps[20])
	assert.Equal(t, a.steps, observed)
	assert.Equal(t, 21, r.Steps())
	assert.True(t, r.Done())

	for i := 0; i < len(order); i += 2 {
		assert.Equal(t, []string{"a", "b"}, order[i:i+2], "generators step in registration order")
	}
}

func TestRunner_SingleStepWindow(t *testing.T) {
	g := &stubGenerator{name: "a"}
	r, err := NewRunner(Config{Increment: 7, MinTime: 4, MaxTime: 4}, WithLogger(testLogger()))
	require.NoError(t, err)
	require.NoError(t, r.AddGenerator(g))

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []ir.Time{4}, g.steps)
}

func TestRunner_IncrementNotDividingWindow(t *testing.T) {
	g := &stubGenerator{name: "a"}
	r, err := NewRunner(Config{Increment: 3, MinTime: 0, MaxTime: 10}, WithLogger(testLogger()))
	require.NoError(t, err)
	require.NoError(t, r.AddGenerator(g))

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []ir.Time{0, 3, 6, 9}, g.steps)
}

func TestRunner_IsOneShot(t *testing.T) {
	r, err := NewRunner(Config{Increment: 1, MinTime: 0, MaxTime: 2}, WithLogger(testLogger()))
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))
	err = r.Run(context.Background())
	assert.True(t, IsAlreadyRun(err))
}

func TestRunner_FailureStopsRun(t *testing.T) {
	boom := errors.New("boom")
	a := &stubGenerator{name: "a", failAt: 2, failErr: boom}
	b := &stubGenerator{name: "b"}

	r, err := NewRunner(Config{Increment: 1, MinTime: 0, MaxTime: 5}, WithLogger(testLogger()))
	require.NoError(t, err)
	require.NoError(t, r.AddGenerator(a))
	require.NoError(t, r.AddGenerator(b))

	err = r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []ir.Time{0, 1}, a.steps)
	assert.Equal(t, []ir.Time{0, 1}, b.steps, "later generators do not step once one fails")
	assert.Equal(t, 2, r.Steps())

	assert.True(t, IsAlreadyRun(r.Run(context.Background())))
}

func TestRunner_TickThenRun(t *testing.T) {
	g := &stubGenerator{name: "a"}
	r, err := NewRunner(Config{Increment: 5, MinTime: 0, MaxTime: 100}, WithLogger(testLogger()))
	require.NoError(t, err)
	require.NoError(t, r.AddGenerator(g))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		done, err := r.Tick(ctx)
		require.NoError(t, err)
		assert.False(t, done)
	}
	assert.Equal(t, ir.Time(15), r.Now())

	err = r.AddGenerator(&stubGenerator{name: "late"})
	assert.True(t, IsLateRegistration(err))

	require.NoError(t, r.Run(ctx))
	assert.Len(t, g.steps, 21)
}

func TestRunner_TickReportsDoneOnLastStep(t *testing.T) {
	r, err := NewRunner(Config{Increment: 1, MinTime: 0, MaxTime: 1}, WithLogger(testLogger()))
	require.NoError(t, err)

	ctx := context.Background()
	done, err := r.Tick(ctx)
	require.NoError(t, err)
	assert.False(t, done)

	done, err = r.Tick(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	_, err = r.Tick(ctx)
	assert.True(t, IsAlreadyRun(err))
}

func TestRunner_CloseClosesGenerators(t *testing.T) {
	a := &stubGenerator{name: "a"}
	r, err := NewRunner(Config{Increment: 1, MinTime: 0, MaxTime: 0}, WithLogger(testLogger()))
	require.NoError(t, err)
	require.NoError(t, r.AddGenerator(a))

	require.NoError(t, r.Close())
	assert.Equal(t, 1, a.closed)
}

// Replaying the same traces twice yields byte-identical delivery sequences.
func TestRunner_ReplayIsDeterministic(t *testing.T) {
	first := replayDigest(t)
	second := replayDigest(t)
	assert.Equal(t, first, second)
}

func replayDigest(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	linkInfo := ir.TraceInfo{Name: "links", Kind: ir.KindLinks, MinTime: ir.Known(0), MaxTime: ir.Known(20), MaxUpdateInterval: 4}
	links := testutil.NewMemorySource[ir.LinkEvent, ir.LinkSnapshot](linkInfo,
		ir.LinkSnapshot{Links: []ir.Link{ir.NewLink(1, 2)}},
		ir.LinkEvent{Time: 3, Link: ir.NewLink(2, 3), Type: ir.LinkUp},
		ir.LinkEvent{Time: 3, Link: ir.NewLink(1, 3), Type: ir.LinkUp},
		ir.LinkEvent{Time: 9, Link: ir.NewLink(1, 2), Type: ir.LinkDown},
		ir.LinkEvent{Time: 18, Link: ir.NewLink(2, 3), Type: ir.LinkDown},
	)
	presInfo := ir.TraceInfo{Name: "presence", Kind: ir.KindPresence, MaxUpdateInterval: 6}
	presence := testutil.NewMemorySource[ir.PresenceEvent, ir.PresenceSnapshot](presInfo,
		ir.PresenceSnapshot{Nodes: []ir.NodeID{1, 2}},
		ir.PresenceEvent{Time: 2, Node: 3, Type: ir.PresenceIn},
		ir.PresenceEvent{Time: 15, Node: 1, Type: ir.PresenceOut},
	)

	digest := ir.NewDigest(ir.DomainDelivery)
	add := func(v any) error { return digest.Add(v) }

	linkEvents := bus.New[ir.LinkEvent]("links.events")
	linkStates := bus.New[ir.LinkSnapshot]("links.states")
	presEvents := bus.New[ir.PresenceEvent]("presence.events")
	linkRec := testutil.NewRecorder[ir.LinkEvent](nil)
	require.NoError(t, linkEvents.AddListener(func(e ir.LinkEvent) error { return add(e) }))
	require.NoError(t, linkEvents.AddListener(linkRec.Listener()))
	require.NoError(t, linkStates.AddListener(func(s ir.LinkSnapshot) error { return add(s) }))
	require.NoError(t, presEvents.AddListener(func(e ir.PresenceEvent) error { return add(e) }))

	lr, err := NewLinkReader(ctx, links, linkEvents, linkStates)
	require.NoError(t, err)
	pr, err := NewPresenceReader(ctx, presence, presEvents, nil)
	require.NoError(t, err)

	gens := []Generator{lr, pr}
	cfg, err := DeriveConfig(gens)
	require.NoError(t, err)
	assert.Equal(t, Config{Increment: 4, MinTime: 0, MaxTime: 20}, cfg)

	r, err := NewRunner(cfg, WithLogger(testLogger()))
	require.NoError(t, err)
	for _, g := range gens {
		require.NoError(t, r.AddGenerator(g))
	}
	require.NoError(t, r.Run(ctx))
	require.NoError(t, r.Close())

	testutil.AssertMonotonic(t, linkRec.Values())
	assert.Equal(t, 4, linkRec.Len())
	// 2 presence events, 4 link events, link states at 0,4,...,20.
	assert.Equal(t, 2+4+6, digest.Count())
	return digest.Sum()
}
