package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents misuse of the replay engine.
//
// Runtime errors include:
//   - Running a runner twice
//   - Registering a generator after the run started
//   - Invalid run configuration (no known bounds, non-positive increment)
//   - Stepping a reader after Close
//
// Listener failures are not RuntimeErrors; they surface as *bus.DispatchError.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Trace names the affected trace, when there is one.
	Trace string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeAlreadyRun indicates Run was called on a finished or failed runner.
	ErrCodeAlreadyRun RuntimeErrorCode = "ALREADY_RUN"

	// ErrCodeLateRegistration indicates a generator was added after the run started.
	ErrCodeLateRegistration RuntimeErrorCode = "LATE_REGISTRATION"

	// ErrCodeInvalidConfig indicates a non-positive increment or inverted bounds.
	ErrCodeInvalidConfig RuntimeErrorCode = "INVALID_CONFIG"

	// ErrCodeNoBounds indicates no generator exposes a known min or max time.
	ErrCodeNoBounds RuntimeErrorCode = "NO_BOUNDS"

	// ErrCodeReaderClosed indicates Step on a closed reader.
	ErrCodeReaderClosed RuntimeErrorCode = "READER_CLOSED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Trace != "" {
		return fmt.Sprintf("%s: %s (trace=%s)", e.Code, e.Message, e.Trace)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func isCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsAlreadyRun returns true if the runner was already used.
// Uses errors.As to handle wrapped errors.
func IsAlreadyRun(err error) bool { return isCode(err, ErrCodeAlreadyRun) }

// IsLateRegistration returns true if a generator was added too late.
func IsLateRegistration(err error) bool { return isCode(err, ErrCodeLateRegistration) }

// IsInvalidConfig returns true for configuration errors, including missing bounds.
func IsInvalidConfig(err error) bool {
	return isCode(err, ErrCodeInvalidConfig) || isCode(err, ErrCodeNoBounds)
}

// IsNoBounds returns true if no bound could be derived.
func IsNoBounds(err error) bool { return isCode(err, ErrCodeNoBounds) }

// IsReaderClosed returns true if a closed reader was stepped.
func IsReaderClosed(err error) bool { return isCode(err, ErrCodeReaderClosed) }

func newRuntimeError(code RuntimeErrorCode, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}
