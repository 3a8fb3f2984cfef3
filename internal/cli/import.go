package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/netreplay/internal/archive"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	KeepGoing bool
}

// ImportFile describes one archive file's outcome.
type ImportFile struct {
	Path   string   `json:"path"`
	Traces []string `json:"traces,omitempty"`
	Events int      `json:"events"`
	Error  string   `json:"error,omitempty"`
	Code   string   `json:"code,omitempty"`
}

// ImportResult holds the overall import result.
type ImportResult struct {
	Files    []ImportFile `json:"files"`
	Imported int          `json:"imported"`
	Failed   int          `json:"failed"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <archive>...",
		Short: "Import YAML trace archives into the store",
		Long: `Import one or more YAML trace archives into the SQLite store.

Each archive is validated against the archive schema and imported in one
transaction: a file either loads completely or leaves the store untouched.
Traces replace stored traces of the same name.

By default import stops at the first failing archive. With --keep-going
every archive is attempted and all failures are reported.

Exit codes:
  0 - All archives imported
  2 - One or more archives could not be imported

Examples:
  netreplay import campus.yaml
  netreplay import --keep-going archives/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.KeepGoing, "keep-going", false, "import the remaining archives after a failure")

	return cmd
}

func runImport(opts *ImportOptions, paths []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	mode := archive.LoadModeFailFast
	if opts.KeepGoing {
		mode = archive.LoadModeCollectAll
	}

	results, loadErrs := archive.LoadAll(ctx, st, paths, mode)

	var result ImportResult
	for _, r := range results {
		opts.logger().Info("archive imported", "path", r.Path, "traces", len(r.Traces), "events", r.Events)
		result.Files = append(result.Files, ImportFile{Path: r.Path, Traces: r.Traces, Events: r.Events})
		result.Imported++
	}
	for _, err := range loadErrs {
		file := ImportFile{Error: err.Error()}
		var le *archive.LoadError
		if errors.As(err, &le) {
			file.Path = le.Path
			file.Code = le.Code
		}
		opts.logger().Warn("archive skipped", "path", file.Path, "error", err)
		result.Files = append(result.Files, file)
		result.Failed++
	}

	var failure *ExitError
	if result.Failed > 0 {
		failure = NewExitError(ExitCommandError, fmt.Sprintf("%d archive(s) failed to import", result.Failed))
	}

	f := newFormatter(opts.RootOptions, cmd)
	if f.JSON() {
		return f.Respond(result, CodeImport, failure)
	}

	w := cmd.OutOrStdout()
	for _, file := range result.Files {
		if file.Error != "" {
			fmt.Fprintf(w, "✗ %s\n", file.Error)
			continue
		}
		fmt.Fprintf(w, "✓ %s: %d trace(s), %d event(s)\n", file.Path, len(file.Traces), file.Events)
	}
	fmt.Fprintf(w, "\nImport Summary: %d imported, %d failed\n", result.Imported, result.Failed)

	if failure != nil {
		return failure
	}
	return nil
}
