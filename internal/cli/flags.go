package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/netreplay/internal/analysis"
	"github.com/roach88/netreplay/internal/ir"
	"github.com/roach88/netreplay/internal/report"
)

// reportFlags registers one boolean flag per registered report. Exactly
// one must be set.
type reportFlags struct {
	selected map[string]*bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	f.selected = make(map[string]*bool)
	names := report.Names()
	for _, d := range report.Registered() {
		f.selected[d.Name] = cmd.Flags().Bool(d.Name, false, d.Description)
	}
	cmd.MarkFlagsMutuallyExclusive(names...)
	cmd.MarkFlagsOneRequired(names...)
}

// descriptor returns the selected report.
func (f *reportFlags) descriptor() (report.Descriptor, error) {
	for _, name := range report.Names() {
		if p := f.selected[name]; p != nil && *p {
			return report.Lookup(name)
		}
	}
	return report.Descriptor{}, NewExitError(ExitCommandError, "no report selected")
}

// windowFlags selects the traces and overrides the run window.
type windowFlags struct {
	Presence  string
	Links     string
	Groups    string
	MinTime   int64
	MaxTime   int64
	Increment int64
}

func (f *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Presence, "presence", "", "presence trace name (default $NETREPLAY_PRESENCE_TRACE or presence)")
	cmd.Flags().StringVar(&f.Links, "links", "", "links trace name (default $NETREPLAY_LINKS_TRACE or links)")
	cmd.Flags().StringVar(&f.Groups, "groups", "", "groups trace name (default $NETREPLAY_GROUPS_TRACE or groups)")
	cmd.Flags().Int64Var(&f.MinTime, "min-time", 0, "first step time (default: derived from the traces)")
	cmd.Flags().Int64Var(&f.MaxTime, "max-time", 0, "last step time (default: derived from the traces)")
	cmd.Flags().Int64Var(&f.Increment, "incr", 0, "step increment (default: smallest max update interval)")
}

// options builds analysis options; only flags set on the command line
// override the derived window.
func (f *windowFlags) options(cmd *cobra.Command, root *RootOptions) analysis.Options {
	override := func(name string, v int64) *ir.Time {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		t := ir.Time(v)
		return &t
	}
	return analysis.Options{
		Traces:    root.traceNames(f.Presence, f.Links, f.Groups),
		MinTime:   override("min-time", f.MinTime),
		MaxTime:   override("max-time", f.MaxTime),
		Increment: override("incr", f.Increment),
		Logger:    root.logger(),
	}
}
