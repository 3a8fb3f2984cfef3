package store

import (
	"errors"
	"fmt"

	"github.com/roach88/netreplay/internal/ir"
)

// NoSuchTraceError is returned when a trace name is not in the store.
type NoSuchTraceError struct {
	Name string
}

func (e *NoSuchTraceError) Error() string {
	return fmt.Sprintf("no such trace: %s", e.Name)
}

// KindMismatchError is returned when a trace exists but records a
// different domain than the caller asked for.
type KindMismatchError struct {
	Name string
	Want ir.Kind
	Got  ir.Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("trace %s is a %s trace, want %s", e.Name, e.Got, e.Want)
}

// IsNoSuchTrace returns true if err is a missing trace.
// Uses errors.As to handle wrapped errors.
func IsNoSuchTrace(err error) bool {
	var nst *NoSuchTraceError
	return errors.As(err, &nst)
}

// IsKindMismatch returns true if err is a kind mismatch.
func IsKindMismatch(err error) bool {
	var km *KindMismatchError
	return errors.As(err, &km)
}

// IsLookupFailure returns true for any error that means the requested
// trace cannot be used: missing or of the wrong kind.
func IsLookupFailure(err error) bool {
	return IsNoSuchTrace(err) || IsKindMismatch(err)
}
