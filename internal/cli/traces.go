package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/netreplay/internal/store"
)

// TracesOptions holds flags for the traces command.
type TracesOptions struct {
	*RootOptions
	Digest bool
}

// TraceRow is one stored trace in the listing.
type TraceRow struct {
	Name              string `json:"name"`
	Kind              string `json:"kind"`
	Description       string `json:"description,omitempty"`
	MinTime           *int64 `json:"min_time"`
	MaxTime           *int64 `json:"max_time"`
	MaxUpdateInterval int64  `json:"max_update_interval"`
	Events            int64  `json:"events"`
	Digest            string `json:"digest,omitempty"`
}

// NewTracesCommand creates the traces command.
func NewTracesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TracesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "traces",
		Short: "List stored traces",
		Long: `List every trace in the store with its kind, time bounds, maximum
update interval and event count. Unknown bounds are shown as "?".

With --digest each trace's content hash is shown; two stores holding the
same trace report the same digest.

Examples:
  netreplay traces
  netreplay traces --digest --format json
  netreplay traces delete campus-links`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraces(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Digest, "digest", false, "show each trace's content digest")
	cmd.AddCommand(newTracesDeleteCommand(rootOpts))

	return cmd
}

func runTraces(opts *TracesOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	summaries, err := st.ListTraces(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list traces", err)
	}

	rows := make([]TraceRow, 0, len(summaries))
	for _, s := range summaries {
		row := TraceRow{
			Name:              s.Info.Name,
			Kind:              string(s.Info.Kind),
			Description:       s.Info.Description,
			MinTime:           boundPtr(s.Info.MinTime.Ptr()),
			MaxTime:           boundPtr(s.Info.MaxTime.Ptr()),
			MaxUpdateInterval: int64(s.Info.MaxUpdateInterval),
			Events:            s.Events,
		}
		if opts.Digest {
			row.Digest, err = st.TraceDigest(ctx, s.Info.Name)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to digest trace", err)
			}
		}
		rows = append(rows, row)
	}

	f := newFormatter(opts.RootOptions, cmd)
	if f.JSON() {
		return f.Success(rows)
	}

	w := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(w, "No traces found in database.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "NAME\tKIND\tMIN\tMAX\tINTERVAL\tEVENTS"
	if opts.Digest {
		header += "\tDIGEST"
	}
	fmt.Fprintln(tw, header)
	for i, row := range rows {
		info := summaries[i].Info
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d", row.Name, row.Kind, info.MinTime, info.MaxTime,
			row.MaxUpdateInterval, row.Events)
		if opts.Digest {
			fmt.Fprintf(tw, "\t%s", row.Digest)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func newTracesDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a stored trace and its events",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTracesDelete(rootOpts, args[0], cmd)
		},
	}
}

func runTracesDelete(opts *RootOptions, name string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteTrace(ctx, name); err != nil {
		if store.IsNoSuchTrace(err) {
			return WrapExitError(ExitCommandError, "cannot delete trace", err)
		}
		return WrapExitError(ExitFailure, "failed to delete trace", err)
	}
	opts.logger().Info("trace deleted", "trace", name)

	f := newFormatter(opts, cmd)
	if f.JSON() {
		return f.Success(map[string]string{"deleted": name})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted trace %s\n", name)
	return nil
}

func boundPtr[T ~int64](p *T) *int64 {
	if p == nil {
		return nil
	}
	v := int64(*p)
	return &v
}
