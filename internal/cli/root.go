package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/netreplay/internal/analysis"
	"github.com/roach88/netreplay/internal/config"
	"github.com/roach88/netreplay/internal/logging"
	"github.com/roach88/netreplay/internal/store"
)

// RootOptions holds global flags and the environment shared by all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string

	// Env is loaded from NETREPLAY_* variables before any command runs.
	// Flags override it.
	Env config.Config

	// Logger is built from Env and --verbose. Nil means slog.Default().
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// defaultDatabase is used when neither --db nor NETREPLAY_DB is set.
const defaultDatabase = "netreplay.db"

// NewRootCommand creates the root command for the netreplay CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "netreplay",
		Short: "netreplay - replay and analyze network traces",
		Long: `Replay time-evolving network traces (node presence, links, groups)
through pluggable analysis reports.

Traces are imported from YAML archives into a SQLite store and replayed
in lockstep, one increment at a time.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $NETREPLAY_DB or netreplay.db)")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewTracesCommand(opts))
	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the CLI with os.Args and returns the process exit code.
// Errors raised by cobra itself (unknown flags, bad arguments, flag group
// violations) are command errors.
func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		err = WrapExitError(ExitCommandError, "usage", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "netreplay: %v\n", err)
	return GetExitCode(err)
}

// load reads the environment and configures logging.
func (o *RootOptions) load(cmd *cobra.Command) error {
	env, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid environment", err)
	}
	o.Env = env

	level, err := logging.ParseLevel(env.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid environment", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = logging.NewWithWriter(cmd.ErrOrStderr(), level)
	slog.SetDefault(o.Logger)
	return nil
}

// logger returns the configured logger.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// databasePath resolves --db, then NETREPLAY_DB, then the default.
func (o *RootOptions) databasePath() string {
	switch {
	case o.Database != "":
		return o.Database
	case o.Env.DB != "":
		return o.Env.DB
	}
	return defaultDatabase
}

// openStore opens the resolved database with the configured page size.
func (o *RootOptions) openStore() (*store.Store, error) {
	path := o.databasePath()
	o.logger().Debug("opening database", "path", path)
	st, err := store.Open(path, store.WithPageSize(o.Env.PageSize))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// traceNames resolves per-stream trace names: flag, then environment, then
// the analysis defaults.
func (o *RootOptions) traceNames(presence, links, groups string) analysis.TraceNames {
	pick := func(flag, env string) string {
		if flag != "" {
			return flag
		}
		return env
	}
	return analysis.TraceNames{
		Presence: pick(presence, o.Env.PresenceTrace),
		Links:    pick(links, o.Env.LinksTrace),
		Groups:   pick(groups, o.Env.GroupsTrace),
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
