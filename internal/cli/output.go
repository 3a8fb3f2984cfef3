package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/netreplay/internal/archive"
	"github.com/roach88/netreplay/internal/bus"
	"github.com/roach88/netreplay/internal/engine"
	"github.com/roach88/netreplay/internal/report"
	"github.com/roach88/netreplay/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Run failure (report error, non-deterministic replay, failed scenarios)
	ExitCommandError = 2 // Command error (bad flags, missing trace, unreadable archive)
)

// Error codes in JSON responses.
const (
	CodeLookup      = "E_LOOKUP"      // Trace missing or of the wrong kind
	CodeConfig      = "E_CONFIG"      // Run window cannot be derived or is invalid
	CodeDispatch    = "E_DISPATCH"    // A report listener failed
	CodeDeterminism = "E_DETERMINISM" // Two replays differed
	CodeImport      = "E_IMPORT"      // Archive could not be imported
	CodeTestFailed  = "E_TEST_FAILED" // Scenario assertions or goldens failed
	CodeInternal    = "E_INTERNAL"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// classify maps a run error to a response code and exit code. Problems
// the user can fix by changing arguments are command errors.
func classify(err error) (string, int) {
	var unknown *report.UnknownReportError
	var de *bus.DispatchError
	switch {
	case store.IsLookupFailure(err):
		return CodeLookup, ExitCommandError
	case engine.IsInvalidConfig(err):
		return CodeConfig, ExitCommandError
	case errors.As(err, &unknown):
		return CodeLookup, ExitCommandError
	case archive.IsIOError(err), archive.IsContentError(err):
		return CodeImport, ExitCommandError
	case errors.As(err, &de):
		return CodeDispatch, ExitFailure
	}
	return CodeInternal, ExitFailure
}

// runError wraps err with the exit code classify assigns.
func runError(message string, err error) *ExitError {
	_, code := classify(err)
	return WrapExitError(code, message, err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// newFormatter builds a formatter over the command's writers.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON reports whether the formatter writes JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Respond writes data in a JSON envelope. A non-nil failure marks the
// response as an error and is returned so the command exits non-zero.
func (f *OutputFormatter) Respond(data any, code string, failure *ExitError) error {
	resp := CLIResponse{Status: "ok", Data: data}
	if failure != nil {
		resp.Status = "error"
		resp.Error = &CLIError{Code: code, Message: failure.Error()}
	}
	if err := f.encode(resp); err != nil {
		return err
	}
	if failure != nil {
		return failure
	}
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// It always goes to ErrWriter when set so JSON output stays clean.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
