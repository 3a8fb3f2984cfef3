package harness

import (
	"bytes"
	"context"
	"fmt"

	"github.com/roach88/netreplay/internal/analysis"
	"github.com/roach88/netreplay/internal/archive"
	"github.com/roach88/netreplay/internal/engine"
	"github.com/roach88/netreplay/internal/logging"
	"github.com/roach88/netreplay/internal/report"
	"github.com/roach88/netreplay/internal/store"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store holding only its
// archive. The run ID is fixed so repeated runs are identical.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Import the scenario archive
// 3. Run the report over the selected traces
// 4. Evaluate assertions against the output
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if _, err := archive.Load(ctx, st, scenario.Archive); err != nil {
		return nil, fmt.Errorf("failed to load archive: %w", err)
	}

	desc, err := report.Lookup(scenario.Report)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	runID := scenario.RunID
	if runID == "" {
		runID = scenario.Name
	}
	summary, err := analysis.Analyze(ctx, st, desc.Factory(&out), analysis.Options{
		Traces: analysis.TraceNames{
			Presence: scenario.Traces.Presence,
			Links:    scenario.Traces.Links,
			Groups:   scenario.Traces.Groups,
		},
		MinTime:   timePtr(scenario.MinTime),
		MaxTime:   timePtr(scenario.MaxTime),
		Increment: timePtr(scenario.Increment),
		Logger:    logging.NewNop(),
		RunIDs:    engine.NewFixedGenerator(runID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run report %s: %w", scenario.Report, err)
	}

	result := NewResult()
	result.RunID = summary.RunID
	result.Steps = summary.Steps
	result.Output = out.String()

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}
