package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/netreplay/internal/engine"
	"github.com/roach88/netreplay/internal/testutil"
)

func fullDB(t *testing.T) string {
	t.Helper()
	return testutil.SeedFile(t,
		testutil.PresenceFixture("presence"),
		testutil.LinkFixture("links"),
		testutil.GroupFixture("groups"),
	)
}

func runAnalyzeCmd(t *testing.T, rootOpts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewAnalyzeCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestAnalyzeNodeCount(t *testing.T) {
	out, err := runAnalyzeCmd(t, &RootOptions{Format: "text", Database: fullDB(t)}, "--node-count")
	require.NoError(t, err)
	assert.Equal(t, "0 2\n3 3\n8 2\n12 3\n15 2\n", out)
}

func TestAnalyzeSelectsTraceByFlag(t *testing.T) {
	path := testutil.SeedFile(t, testutil.GroupFixture("campus-groups"))

	out, err := runAnalyzeCmd(t, &RootOptions{Format: "text", Database: path}, "--ccs", "--groups", "campus-groups")
	require.NoError(t, err)
	assert.Equal(t, "0 2\n5 3\n11 1 3\n16 1 2\n", out)
}

func TestAnalyzeOutFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "contacts.txt")

	out, err := runAnalyzeCmd(t, &RootOptions{Format: "text", Database: fullDB(t)}, "--contacts", "--out", outPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "10 1\n", string(data))
}

func TestAnalyzeJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := newAnalyzeCommand(&AnalyzeOptions{
		RootOptions: &RootOptions{Format: "json", Database: fullDB(t)},
		RunIDs:      engine.NewFixedGenerator("run-json"),
	})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--first-contact-time"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string        `json:"status"`
		Data   AnalyzeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-json", resp.Data.RunID)
	assert.Equal(t, "first-contact-time", resp.Data.Report)
	assert.Equal(t, []string{"presence", "links"}, resp.Data.Traces)
	assert.Equal(t, int64(5), resp.Data.Increment)
	assert.Equal(t, 5, resp.Data.Steps)
	assert.Equal(t, "3 1\n4 5\n", resp.Data.Output)
}

func TestAnalyzeWindowOverrides(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewAnalyzeCommand(&RootOptions{Format: "json", Database: fullDB(t)})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--node-count", "--min-time", "5", "--incr", "10"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data AnalyzeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, int64(5), resp.Data.MinTime)
	assert.Equal(t, int64(20), resp.Data.MaxTime)
	assert.Equal(t, int64(10), resp.Data.Increment)
	assert.Equal(t, 2, resp.Data.Steps)
}

func TestAnalyzeMetricsFile(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "run.prom")

	_, err := runAnalyzeCmd(t, &RootOptions{Format: "text", Database: fullDB(t)},
		"--node-degree", "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "netreplay_runner_steps_total 5")
	assert.Contains(t, string(data), `netreplay_reader_events_total{trace="links"} 5`)
}

func TestAnalyzeMissingTraceIsCommandError(t *testing.T) {
	path := testutil.SeedFile(t, testutil.LinkFixture("links"))

	out, err := runAnalyzeCmd(t, &RootOptions{Format: "text", Database: path}, "--node-count")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no such trace: presence")
	assert.Empty(t, out)
}

func TestAnalyzeInvalidIncrementIsCommandError(t *testing.T) {
	_, err := runAnalyzeCmd(t, &RootOptions{Format: "text", Database: fullDB(t)}, "--node-count", "--incr", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAnalyzeReportFlagsAreExclusive(t *testing.T) {
	_, err := runAnalyzeCmd(t, &RootOptions{Format: "text", Database: fullDB(t)}, "--node-count", "--ccs")
	require.Error(t, err)

	_, err = runAnalyzeCmd(t, &RootOptions{Format: "text", Database: fullDB(t)})
	require.Error(t, err)
}

func TestAnalyzeRegistersEveryReport(t *testing.T) {
	cmd := NewAnalyzeCommand(&RootOptions{})
	for _, name := range []string{
		"node-count", "transit-times", "first-contact-time", "num-contacts", "node-degree",
		"contacts", "inter-contacts", "any-contacts", "inter-any-contacts", "clustering", "ccs", "digest",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestAnalyzeMaxTimeAtLimitIsCommandError(t *testing.T) {
	out, err := runAnalyzeCmd(t, &RootOptions{Format: "text", Database: fullDB(t)},
		"--node-count", "--max-time", "9223372036854775807")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, out)
}
