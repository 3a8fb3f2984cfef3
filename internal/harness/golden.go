package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir holds one <scenario>.golden file per scenario, relative to the
// test's package directory.
const GoldenDir = "testdata/golden"

// RunWithGolden runs scenario and checks the report output against its
// golden file. Regenerate with:
//
//	go test ./internal/harness -update
//
// A scenario that cannot run is returned as an error; an output mismatch
// fails t.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden checks an existing result against GoldenDir/<name>.golden.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
		goldie.WithDiffEngine(goldie.ClassicDiff),
	)
	g.Assert(t, name, []byte(result.Output))
}
