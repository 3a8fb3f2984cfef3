package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/netreplay/internal/analysis"
	"github.com/roach88/netreplay/internal/engine"
	"github.com/roach88/netreplay/internal/report"
	"github.com/roach88/netreplay/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	reports reportFlags
	window  windowFlags

	// RunIDs allows overriding the run ID generator (for testing).
	RunIDs engine.RunIDGenerator

	// wrap lets tests substitute the report of a given run (0 or 1).
	wrap func(run int, w io.Writer, r report.Report) report.Report
}

// ReplayRun describes one of the two runs.
type ReplayRun struct {
	RunID  string   `json:"run_id"`
	Steps  int      `json:"steps"`
	Digest []string `json:"digest"`
}

// ReplayResult holds the determinism verification result.
type ReplayResult struct {
	Report        string      `json:"report"`
	Traces        []string    `json:"traces"`
	Runs          []ReplayRun `json:"runs"`
	SameDigest    bool        `json:"same_digest"`
	SameOutput    bool        `json:"same_output"`
	Deterministic bool        `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return newReplayCommand(&ReplayOptions{RootOptions: rootOpts})
}

func newReplayCommand(opts *ReplayOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay --<report>",
		Short: "Replay traces twice and verify determinism",
		Long: `Run a report twice over the same stored traces and verify that both
runs delivered identical events and states and produced identical output.

Each run feeds a delivery digest alongside the report: one running hash
per stream the report consumes.

Exit codes:
  0 - Both runs are identical
  1 - Determinism verification failed (differences detected) or a run failed
  2 - Command error (missing trace, bad window, database error)

Examples:
  netreplay replay --node-degree
  netreplay replay --first-contact-time --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	opts.reports.register(cmd)
	opts.window.register(cmd)

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	desc, err := opts.reports.descriptor()
	if err != nil {
		return err
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	aopts := opts.window.options(cmd, opts.RootOptions)
	aopts.RunIDs = opts.RunIDs

	result := ReplayResult{Report: desc.Name}
	var outputs [2]string
	for i := range 2 {
		run, output, traces, err := replayOnce(ctx, st, desc, aopts, opts.wrapper(i))
		if err != nil {
			return runError(fmt.Sprintf("replay run %d failed", i+1), err)
		}
		opts.logger().Debug("replay run finished", "run", i+1, "run_id", run.RunID, "steps", run.Steps)
		result.Runs = append(result.Runs, run)
		result.Traces = traces
		outputs[i] = output
	}

	result.SameDigest = slices.Equal(result.Runs[0].Digest, result.Runs[1].Digest)
	result.SameOutput = outputs[0] == outputs[1]
	result.Deterministic = result.SameDigest && result.SameOutput &&
		result.Runs[0].Steps == result.Runs[1].Steps

	f := newFormatter(opts.RootOptions, cmd)
	var failure *ExitError
	if !result.Deterministic {
		failure = NewExitError(ExitFailure, "determinism verification failed")
	}
	if f.JSON() {
		return f.Respond(result, CodeDeterminism, failure)
	}
	return outputReplayText(cmd, result, opts.Verbose, failure)
}

func (o *ReplayOptions) wrapper(run int) func(io.Writer, report.Report) report.Report {
	return func(w io.Writer, r report.Report) report.Report {
		if o.wrap == nil {
			return r
		}
		return o.wrap(run, w, r)
	}
}

// replayOnce runs desc alongside a delivery digest over the same streams.
func replayOnce(
	ctx context.Context,
	st *store.Store,
	desc report.Descriptor,
	aopts analysis.Options,
	wrap func(io.Writer, report.Report) report.Report,
) (ReplayRun, string, []string, error) {
	var out, sums bytes.Buffer
	inner := wrap(&out, desc.Factory(&out))
	rep := report.NewMulti(inner, report.NewDigest(&sums, inner.Capabilities()))

	summary, err := analysis.Analyze(ctx, st, rep, aopts)
	if err != nil {
		return ReplayRun{}, "", nil, err
	}
	return ReplayRun{
		RunID:  summary.RunID,
		Steps:  summary.Steps,
		Digest: strings.Split(strings.TrimSuffix(sums.String(), "\n"), "\n"),
	}, out.String(), summary.Traces, nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool, failure *ExitError) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %s over %s\n", result.Report, strings.Join(result.Traces, ", "))
	fmt.Fprintln(w)

	for i, run := range result.Runs {
		fmt.Fprintf(w, "Run %d: %s (%d steps)\n", i+1, run.RunID, run.Steps)
		if verbose {
			for _, line := range run.Digest {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}
	fmt.Fprintln(w)

	if !result.SameDigest {
		fmt.Fprintln(w, "  Warning: deliveries differ between runs!")
	}
	if !result.SameOutput {
		fmt.Fprintln(w, "  Warning: report output differs between runs!")
	}

	if failure == nil {
		fmt.Fprintln(w, "✓ Replay verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return failure
}
