package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/netreplay/internal/testutil"
)

func count(n int) *int { return &n }

func sampleResult() *Result {
	r := NewResult()
	r.Output = "0 2\n3 3\n8 2\n"
	r.Steps = 5
	return r
}

func TestResultLines(t *testing.T) {
	assert.Equal(t, []string{"0 2", "3 3", "8 2"}, sampleResult().Lines())
	assert.Nil(t, NewResult().Lines())
}

func TestResultAddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

func TestAssertOutputContains(t *testing.T) {
	r := sampleResult()

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertOutputContains, Line: "3 3"}}, nil)
	assert.Empty(t, errs)

	errs = EvaluateAssertions(r, []Assertion{{Type: AssertOutputContains, Line: "3"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Assertion failed: output_contains")
	assert.Contains(t, errs[0], "[2] 3 3")
}

func TestAssertOutputOrder(t *testing.T) {
	r := sampleResult()

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertOutputOrder, Lines: []string{"0 2", "8 2"}}}, nil)
	assert.Empty(t, errs)

	errs = EvaluateAssertions(r, []Assertion{{Type: AssertOutputOrder, Lines: []string{"8 2", "0 2"}}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "found out of order")

	errs = EvaluateAssertions(r, []Assertion{{Type: AssertOutputOrder, Lines: []string{"0 2", "9 9"}}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "not found in output")
}

func TestAssertCounts(t *testing.T) {
	r := sampleResult()

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertOutputCount, Count: count(3)},
		{Type: AssertSteps, Count: count(5)},
	}, nil)
	assert.Empty(t, errs)

	errs = EvaluateAssertions(r, []Assertion{
		{Type: AssertOutputCount, Count: count(4)},
		{Type: AssertSteps, Count: count(2)},
	}, nil)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Expected: 4 output lines")
	assert.Contains(t, errs[0], "Actual: 3 output lines")
	assert.Contains(t, errs[1], "Actual: 5 steps")
}

func TestAssertTraceEvents(t *testing.T) {
	st := testutil.OpenStore(t)
	testutil.Seed(t, st, testutil.LinkFixture("links"))
	actx := &AssertionContext{Store: st, Ctx: context.Background()}
	r := sampleResult()

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertTraceEvents, Trace: "links", Count: count(5)}}, actx)
	assert.Empty(t, errs)

	errs = EvaluateAssertions(r, []Assertion{{Type: AssertTraceEvents, Trace: "links", Count: count(1)}}, actx)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "events in trace links")

	errs = EvaluateAssertions(r, []Assertion{{Type: AssertTraceEvents, Trace: "nope", Count: count(0)}}, actx)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "trace_events")
}

func TestAssertTraceEventsNeedsStore(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{{Type: AssertTraceEvents, Trace: "links", Count: count(5)}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires store context")
}

func TestUnknownAssertionType(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{{Type: "final_state"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "final_state"`)
}

func TestAssertionErrorIsError(t *testing.T) {
	var err error = &AssertionError{Type: AssertSteps, Expected: "1", Actual: "2", Output: []string{"0 1"}}
	var ae *AssertionError
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, err.Error(), "Full output:\n  [1] 0 1\n")
}
