package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayCampus(t *testing.T) {
	buf, errBuf := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewPlayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{
		"--presence", "campus-presence",
		"--links", "campus-links",
		"--groups", "campus-groups",
		campusArchive,
	})

	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "t=0 presence=2/0 links=1/0 groups=1/0", lines[0])
	assert.Equal(t, "t=20 presence=2/4 links=2/5 groups=2/4", lines[4])
	assert.Empty(t, errBuf.String())
}

func TestPlaySkipsBrokenArchive(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	buf, errBuf := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewPlayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"--links", "campus-links", "--incr", "10", missing, campusArchive})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errBuf.String(), "skipping")
	assert.Contains(t, errBuf.String(), missing)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "t=0 links=1/0", lines[0])
}

func TestPlayNothingLoaded(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	cmd := NewPlayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{missing})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPlayNoMatchingTrace(t *testing.T) {
	cmd := NewPlayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{campusArchive})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no trace matches")
}
