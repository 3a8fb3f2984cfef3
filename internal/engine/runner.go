package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/netreplay/internal/ir"
)

type runState int

const (
	stateIdle runState = iota
	stateRunning
	stateDone
	stateFailed
)

// Runner steps every registered generator in lockstep over the configured
// window:
//
//	t = MinTime
//	while t <= MaxTime { step every generator at t, in registration order; t += Increment }
//
// Runner is one-shot. It never steps generators in parallel, and it does
// not check ctx between steps: cancellation reaches the run only through
// the generators' storage reads.
type Runner struct {
	cfg      Config
	gens     []Generator
	clock    *Clock
	state    runState
	steps    int
	logger   *slog.Logger
	observer func(ir.Time)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithStepObserver registers fn to run after every completed step.
func WithStepObserver(fn func(ir.Time)) RunnerOption {
	return func(r *Runner) {
		r.observer = fn
	}
}

// NewRunner validates cfg and returns an idle runner.
func NewRunner(cfg Config, opts ...RunnerOption) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:    cfg,
		clock:  NewClock(cfg.MinTime, cfg.Increment),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// AddGenerator registers g. Generators may only be added before the first step.
func (r *Runner) AddGenerator(g Generator) error {
	if r.state != stateIdle {
		return &RuntimeError{
			Code:    ErrCodeLateRegistration,
			Message: "generator added after run started",
			Trace:   g.Name(),
		}
	}
	r.gens = append(r.gens, g)
	return nil
}

// Config returns the run configuration.
func (r *Runner) Config() Config { return r.cfg }

// Now returns the time of the next step.
func (r *Runner) Now() ir.Time { return r.clock.Now() }

// Steps returns the number of completed steps.
func (r *Runner) Steps() int { return r.steps }

// Done reports whether the run completed successfully.
func (r *Runner) Done() bool { return r.state == stateDone }

// Run executes every remaining step. After some Tick calls, Run finishes
// the rest of the window. Calling Run on a completed or failed runner
// returns an ALREADY_RUN error.
func (r *Runner) Run(ctx context.Context) error {
	if r.state == stateDone || r.state == stateFailed {
		return newRuntimeError(ErrCodeAlreadyRun, "runner already used")
	}

	r.logger.Debug("run started",
		"min_time", r.cfg.MinTime,
		"max_time", r.cfg.MaxTime,
		"increment", r.cfg.Increment,
		"remaining_steps", r.cfg.Steps()-int64(r.steps),
		"generators", len(r.gens),
	)

	for {
		done, err := r.Tick(ctx)
		if err != nil {
			return err
		}
		if done {
			break
		}
	}

	r.logger.Debug("run finished", "steps", r.steps)
	return nil
}

// Tick executes one step and reports whether the window is exhausted.
// It lets an interactively paced host drive the run one step at a time.
func (r *Runner) Tick(ctx context.Context) (bool, error) {
	switch r.state {
	case stateDone, stateFailed:
		return false, newRuntimeError(ErrCodeAlreadyRun, "runner already used")
	case stateIdle:
		r.state = stateRunning
	}

	t := r.clock.Now()
	if t > r.cfg.MaxTime {
		r.state = stateDone
		return true, nil
	}

	for _, g := range r.gens {
		if err := g.Step(ctx, t); err != nil {
			r.state = stateFailed
			r.logger.Error("step failed", "time", t, "generator", g.Name(), "error", err)
			return false, fmt.Errorf("step at %d: %w", t, err)
		}
	}
	r.steps++
	if r.observer != nil {
		r.observer(t)
	}

	if r.clock.Advance() > r.cfg.MaxTime {
		r.state = stateDone
		return true, nil
	}
	return false, nil
}

// Close closes every generator, returning the first error.
func (r *Runner) Close() error {
	var first error
	for _, g := range r.gens {
		if err := g.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
