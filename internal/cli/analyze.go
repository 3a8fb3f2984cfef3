package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/netreplay/internal/analysis"
	"github.com/roach88/netreplay/internal/engine"
	"github.com/roach88/netreplay/internal/metrics"
	"github.com/roach88/netreplay/internal/telemetry"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	reports reportFlags
	window  windowFlags

	Out         string
	MetricsFile string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// AnalyzeResult is the JSON payload of a successful analysis.
type AnalyzeResult struct {
	RunID     string   `json:"run_id"`
	Report    string   `json:"report"`
	Traces    []string `json:"traces"`
	MinTime   int64    `json:"min_time"`
	MaxTime   int64    `json:"max_time"`
	Increment int64    `json:"increment"`
	Steps     int      `json:"steps"`
	Out       string   `json:"out,omitempty"`
	Output    string   `json:"output,omitempty"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	return newAnalyzeCommand(&AnalyzeOptions{RootOptions: rootOpts})
}

func newAnalyzeCommand(opts *AnalyzeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze --<report>",
		Short: "Run one report over stored traces",
		Long: `Replay the stored traces a report needs and print its output.

Exactly one report flag selects the analysis. Only the traces the report
consumes are read. The run window is derived from the traces and can be
overridden with --min-time, --max-time and --incr.

The report output is written only after the run completes; a failed run
produces no partial output.

Exit codes:
  0 - Report completed
  1 - Report or replay failure
  2 - Command error (missing trace, bad window, database error)

Examples:
  netreplay analyze --node-count
  netreplay analyze --contacts --links campus-links --out contacts.txt
  netreplay analyze --ccs --incr 60 --metrics-file run.prom`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, cmd)
		},
	}

	opts.reports.register(cmd)
	opts.window.register(cmd)
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write report output to file instead of stdout")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics for the run to file")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.logger()

	desc, err := opts.reports.descriptor()
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, opts.Env.OTelEndpoint, opts.Env.OTelEnabled)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up tracing", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("tracing shutdown", "error", err)
		}
	}()

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	aopts := opts.window.options(cmd, opts.RootOptions)
	aopts.RunIDs = opts.RunIDs
	if opts.MetricsFile != "" {
		aopts.Metrics = metrics.New()
	}

	var out bytes.Buffer
	summary, err := analysis.Analyze(ctx, st, desc.Factory(&out), aopts)
	if err != nil {
		return runError(fmt.Sprintf("report %s failed", desc.Name), err)
	}

	if aopts.Metrics != nil {
		if err := aopts.Metrics.WriteFile(opts.MetricsFile); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		log.Debug("metrics written", "path", opts.MetricsFile)
	}

	result := AnalyzeResult{
		RunID:     summary.RunID,
		Report:    summary.Report,
		Traces:    summary.Traces,
		MinTime:   int64(summary.Config.MinTime),
		MaxTime:   int64(summary.Config.MaxTime),
		Increment: int64(summary.Config.Increment),
		Steps:     summary.Steps,
	}

	if opts.Out != "" {
		if err := os.WriteFile(opts.Out, out.Bytes(), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		result.Out = opts.Out
	}

	f := newFormatter(opts.RootOptions, cmd)
	if f.JSON() {
		if opts.Out == "" {
			result.Output = out.String()
		}
		return f.Respond(result, "", nil)
	}

	if opts.Out == "" {
		if _, err := cmd.OutOrStdout().Write(out.Bytes()); err != nil {
			return err
		}
	}
	f.VerboseLog("run %s: %d step(s) over [%d, %d] by %d", result.RunID, result.Steps,
		result.MinTime, result.MaxTime, result.Increment)
	return nil
}
