package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/netreplay/internal/store"
)

// AssertionError is returned when an assertion fails.
// It carries the full report output for debugging.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Output   []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull output:\n")
	for i, line := range e.Output {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, line)
	}

	return buf.String()
}

// AssertionContext gives assertions access to the run's store.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result and
// returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	lines := result.Lines()

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOutputContains:
			err = assertOutputContains(lines, assertion)
		case AssertOutputOrder:
			err = assertOutputOrder(lines, assertion)
		case AssertOutputCount:
			err = assertCount(AssertOutputCount, "output lines", len(lines), lines, assertion)
		case AssertSteps:
			err = assertCount(AssertSteps, "steps", result.Steps, lines, assertion)
		case AssertTraceEvents:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: trace_events requires store context", i)
			} else {
				err = assertTraceEvents(actx, lines, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

// assertOutputContains checks that an exact line appears in the output.
func assertOutputContains(lines []string, a Assertion) error {
	if slices.Contains(lines, a.Line) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputContains,
		Expected: fmt.Sprintf("line %q", a.Line),
		Actual:   "not found in output",
		Output:   lines,
	}
}

// assertOutputOrder checks that lines appear in the given order. They need
// not be consecutive.
func assertOutputOrder(lines []string, a Assertion) error {
	pos := 0
	for _, want := range a.Lines {
		i := slices.Index(lines[pos:], want)
		if i < 0 {
			actual := "not found in output"
			if slices.Contains(lines, want) {
				actual = "found out of order"
			}
			return &AssertionError{
				Type:     AssertOutputOrder,
				Expected: fmt.Sprintf("%q in order %v", want, a.Lines),
				Actual:   actual,
				Output:   lines,
			}
		}
		pos += i + 1
	}
	return nil
}

func assertCount(typ, what string, got int, lines []string, a Assertion) error {
	if got == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%d %s", *a.Count, what),
		Actual:   fmt.Sprintf("%d %s", got, what),
		Output:   lines,
	}
}

func assertTraceEvents(actx *AssertionContext, lines []string, a Assertion) error {
	n, err := actx.Store.EventCount(actx.Ctx, a.Trace)
	if err != nil {
		return fmt.Errorf("trace_events: %w", err)
	}
	return assertCount(AssertTraceEvents, "events in trace "+a.Trace, int(n), lines, a)
}
