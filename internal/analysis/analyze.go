package analysis

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/netreplay/internal/engine"
	"github.com/roach88/netreplay/internal/report"
	"github.com/roach88/netreplay/internal/store"
	"github.com/roach88/netreplay/internal/telemetry"
)

// Summary describes a completed run.
type Summary struct {
	RunID  string
	Report string
	Traces []string
	Config engine.Config
	Steps  int
}

// Analyze wires rep, runs it to completion and releases the readers.
func Analyze(ctx context.Context, st *store.Store, rep report.Report, opts Options) (*Summary, error) {
	opts = opts.withDefaults()

	ctx, span := telemetry.Tracer().Start(ctx, "netreplay.analyze",
		trace.WithAttributes(attribute.String("report.name", rep.Name())),
	)
	defer span.End()

	sess, err := Wire(ctx, st, rep, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "wire failed")
		return nil, err
	}
	defer sess.Close()

	cfg := sess.Config()
	span.SetAttributes(
		attribute.String("run.id", sess.RunID()),
		attribute.Int64("run.min_time", int64(cfg.MinTime)),
		attribute.Int64("run.max_time", int64(cfg.MaxTime)),
		attribute.Int64("run.increment", int64(cfg.Increment)),
		attribute.StringSlice("run.traces", sess.Traces()),
	)

	log := opts.Logger.With("run_id", sess.RunID(), "report", rep.Name())
	log.Info("analysis started",
		"traces", sess.Traces(),
		"min_time", cfg.MinTime,
		"max_time", cfg.MaxTime,
		"increment", cfg.Increment,
	)

	start := time.Now()
	if err := sess.Run(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run failed")
		log.Error("analysis failed", "steps", sess.Steps(), "error", err)
		return nil, err
	}

	log.Info("analysis finished", "steps", sess.Steps(), "duration", time.Since(start))
	span.SetAttributes(attribute.Int("run.steps", sess.Steps()))

	return &Summary{
		RunID:  sess.RunID(),
		Report: rep.Name(),
		Traces: sess.Traces(),
		Config: cfg,
		Steps:  sess.Steps(),
	}, nil
}
