package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	scenarioDir = "../harness/testdata/scenarios"
	goldenDir   = "../harness/testdata/golden"
)

func runTestCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandPasses(t *testing.T) {
	out, err := runTestCmd(t, "text", scenarioDir, "--golden-dir", goldenDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ node_count")
	assert.Contains(t, out, "✓ ccs_fine_steps")
	assert.Contains(t, out, "Test Summary: 6 passed, 0 failed, 6 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := runTestCmd(t, "json", scenarioDir, "--golden-dir", goldenDir, "--filter", "ccs")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	for _, s := range resp.Data.Scenarios {
		assert.Equal(t, "match", s.Golden, s.Name)
	}
}

func TestTestCommandUpdate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "golden")

	out, err := runTestCmd(t, "text", filepath.Join(scenarioDir, "node_count.yaml"), "--golden-dir", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ node_count (golden updated)")

	data, err := os.ReadFile(filepath.Join(dir, "node_count.golden"))
	require.NoError(t, err)
	assert.Equal(t, "0 2\n3 3\n8 2\n12 3\n15 2\n", string(data))

	_, err = runTestCmd(t, "text", filepath.Join(scenarioDir, "node_count.yaml"), "--golden-dir", dir)
	require.NoError(t, err)
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contacts.golden"), []byte("stale\n"), 0o644))

	out, err := runTestCmd(t, "text", filepath.Join(scenarioDir, "contacts.yaml"), "--golden-dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ contacts")
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandMissingGoldenPasses(t *testing.T) {
	out, err := runTestCmd(t, "json", filepath.Join(scenarioDir, "contacts.yaml"), "--golden-dir", t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "missing", resp.Data.Scenarios[0].Golden)
}

func TestTestCommandMissingPath(t *testing.T) {
	_, err := runTestCmd(t, "text", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
