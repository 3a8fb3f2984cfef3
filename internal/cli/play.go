package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/netreplay/internal/analysis"
	"github.com/roach88/netreplay/internal/archive"
	"github.com/roach88/netreplay/internal/ir"
	"github.com/roach88/netreplay/internal/report"
	"github.com/roach88/netreplay/internal/store"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	window windowFlags
	Delay  time.Duration
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <archive>...",
		Short: "Step through archives and print the state at each tick",
		Long: `Load archives into a scratch in-memory store and replay them one step
at a time, printing one status line per step:

  t=<time> <kind>=<entries>/<events> ...

where entries is the size of the latest state (present nodes, active
links or groups) and events counts the events delivered so far.

Archives that fail to load are skipped with a notice. The stored
database is not touched. Press Ctrl-C to stop early.

Examples:
  netreplay play campus.yaml
  netreplay play --delay 200ms --links campus-links campus.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args, cmd)
		},
	}

	opts.window.register(cmd)
	cmd.Flags().DurationVar(&opts.Delay, "delay", 0, "pause between steps")

	return cmd
}

func runPlay(opts *PlayOptions, paths []string, cmd *cobra.Command) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := opts.logger()
	w := cmd.OutOrStdout()

	st, err := store.Open(":memory:")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create in-memory store", err)
	}
	defer st.Close()

	results, loadErrs := archive.LoadAll(ctx, st, paths, archive.LoadModeCollectAll)
	for _, err := range loadErrs {
		log.Warn("archive skipped", "error", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "skipping %v\n", err)
	}
	if len(results) == 0 {
		return NewExitError(ExitCommandError, "no archive could be loaded")
	}

	aopts := opts.window.options(cmd, opts.RootOptions)
	kinds, err := playableKinds(ctx, st, aopts.Traces)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to inspect traces", err)
	}
	if len(kinds) == 0 {
		return NewExitError(ExitCommandError, "no trace matches the selected trace names")
	}

	view := report.NewView(kinds...)
	sess, err := analysis.Wire(ctx, st, view, aopts)
	if err != nil {
		return runError("failed to start playback", err)
	}
	defer sess.Close()

	log.Info("playback started", "run_id", sess.RunID(), "traces", sess.Traces())
	for {
		t, before := sess.Now(), sess.Steps()
		done, err := sess.Tick(ctx)
		if errors.Is(err, context.Canceled) {
			log.Info("playback interrupted", "t", t, "steps", sess.Steps())
			return nil
		}
		if err != nil {
			return runError(fmt.Sprintf("playback failed at t=%d", t), err)
		}
		// The tick that runs the last step also reports done.
		if sess.Steps() > before {
			fmt.Fprintln(w, view.Line(t))
		}
		if done {
			break
		}

		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
				log.Info("playback interrupted", "t", t, "steps", sess.Steps())
				return nil
			case <-time.After(opts.Delay):
			}
		}
	}

	log.Info("playback finished", "steps", sess.Steps())
	return nil
}

// playableKinds returns the kinds whose selected trace is loaded with the
// right kind.
func playableKinds(ctx context.Context, st *store.Store, names analysis.TraceNames) ([]ir.Kind, error) {
	var kinds []ir.Kind
	for _, k := range []ir.Kind{ir.KindPresence, ir.KindLinks, ir.KindGroups} {
		name := names.For(k)
		if name == "" {
			name = analysis.DefaultTraceNames().For(k)
		}
		info, err := st.Trace(ctx, name)
		if store.IsNoSuchTrace(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if info.Kind == k {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}
