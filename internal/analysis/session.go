package analysis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/netreplay/internal/engine"
	"github.com/roach88/netreplay/internal/ir"
	"github.com/roach88/netreplay/internal/metrics"
	"github.com/roach88/netreplay/internal/report"
)

// ErrSessionClosed is returned by Run and Tick after Close.
var ErrSessionClosed = errors.New("analysis: session closed")

// Session is one wired run of a report.
//
// The report is finished exactly once, after the runner has stepped past
// the end of the window. A failed run closes its readers and never
// finishes the report, so no partial output is written.
type Session struct {
	runID   string
	report  report.Report
	runner  *engine.Runner
	traces  []string
	logger  *slog.Logger
	metrics *metrics.Metrics

	finished bool
	failed   bool
	closed   bool
}

// RunID identifies the run in logs and spans.
func (s *Session) RunID() string { return s.runID }

// Report returns the wired report.
func (s *Session) Report() report.Report { return s.report }

// Config returns the run window.
func (s *Session) Config() engine.Config { return s.runner.Config() }

// Traces returns the names of the traces being replayed, in stepping order.
func (s *Session) Traces() []string { return s.traces }

// Now returns the time of the next step.
func (s *Session) Now() ir.Time { return s.runner.Now() }

// Steps returns the number of completed steps.
func (s *Session) Steps() int { return s.runner.Steps() }

// Finished reports whether the report has been finished.
func (s *Session) Finished() bool { return s.finished }

// Run steps through the rest of the window and then finishes the report.
func (s *Session) Run(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if err := s.runner.Run(ctx); err != nil {
		s.fail()
		return err
	}
	return s.finish()
}

// Tick performs one step. When the window is exhausted it finishes the
// report and reports done.
func (s *Session) Tick(ctx context.Context) (bool, error) {
	if s.closed {
		return false, ErrSessionClosed
	}
	done, err := s.runner.Tick(ctx)
	if err != nil {
		s.fail()
		return false, err
	}
	if !done {
		return false, nil
	}
	return true, s.finish()
}

func (s *Session) finish() error {
	if s.finished {
		return nil
	}
	s.finished = true
	s.logger.Debug("finishing report", "run_id", s.runID, "report", s.report.Name())
	return s.report.Finish()
}

func (s *Session) fail() {
	if s.failed {
		return
	}
	s.failed = true
	if err := s.runner.Close(); err != nil {
		s.logger.Warn("close readers after failure", "run_id", s.runID, "error", err)
	}
}

// Close releases the readers. Calling Close more than once is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.runner.Close()
}

// Metrics returns the run's counters, or nil when none were attached.
func (s *Session) Metrics() *metrics.Metrics { return s.metrics }
