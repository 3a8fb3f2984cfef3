package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/netreplay/internal/ir"
	"github.com/roach88/netreplay/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func writeArchive(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ImportsEveryTrace(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	res, err := Load(ctx, st, "testdata/small.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"presence", "links", "groups"}, res.Traces)
	assert.Equal(t, 7, res.Events)

	info, err := st.Trace(ctx, "presence")
	require.NoError(t, err)
	assert.Equal(t, ir.TraceInfo{
		Name:              "presence",
		Kind:              ir.KindPresence,
		Description:       "three nodes walking in and out",
		MinTime:           ir.Known(0),
		MaxTime:           ir.Known(20),
		MaxUpdateInterval: 10,
	}, info)

	links, err := st.Trace(ctx, "links")
	require.NoError(t, err)
	assert.False(t, links.MinTime.Known)
	assert.Equal(t, ir.Known(30), links.MaxTime)
}

func TestLoad_NormalizesInitialStateAndOrder(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	_, err := Load(ctx, st, "testdata/small.yaml")
	require.NoError(t, err)

	pres, err := st.Presence(ctx, "presence")
	require.NoError(t, err)
	initial, err := pres.Initial(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ir.NodeID{1, 2}, initial.Nodes)

	src, err := st.Links(ctx, "links")
	require.NoError(t, err)
	linkInit, err := src.Initial(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ir.Link{{ID1: 1, ID2: 2}}, linkInit.Links)

	cur, err := src.Open(ctx)
	require.NoError(t, err)
	defer cur.Close()

	first, ok, err := cur.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ir.LinkEvent{Time: 2, Link: ir.NewLink(1, 2), Type: ir.LinkDown}, first)

	second, ok, err := cur.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ir.LinkEvent{Time: 6, Link: ir.NewLink(2, 3), Type: ir.LinkUp}, second)
}

func TestParse_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown trace field", `
traces:
  - name: x
    kind: links
    max_update_interval: 1
    colour: red
`},
		{"event of wrong kind", `
traces:
  - name: x
    kind: presence
    max_update_interval: 1
    events:
      - {time: 1, id1: 1, id2: 2, type: up}
`},
		{"bad event type", `
traces:
  - name: x
    kind: links
    max_update_interval: 1
    events:
      - {time: 1, id1: 1, id2: 2, type: sideways}
`},
		{"zero interval", `
traces:
  - name: x
    kind: groups
    max_update_interval: 0
`},
		{"unknown kind", `
traces:
  - name: x
    kind: edges
    max_update_interval: 1
`},
		{"no traces", `traces: []`},
		{"float time", `
traces:
  - name: x
    kind: presence
    max_update_interval: 1
    events:
      - {time: 1.5, node: 1, type: in}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.yaml", []byte(tt.content))
			require.Error(t, err)
			assert.True(t, IsContentError(err), "got %v", err)
			assert.False(t, IsIOError(err))

			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, ErrCodeSchema, le.Code)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse("bad.yaml", []byte("traces: [\n"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeParseFailed, le.Code)
	assert.Equal(t, "bad.yaml", le.Path)
}

func TestParse_InconsistentTrace(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"min after max", `
traces:
  - name: x
    kind: links
    min_time: 10
    max_time: 5
    max_update_interval: 1
`},
		{"self link", `
traces:
  - name: x
    kind: links
    max_update_interval: 1
    events:
      - {time: 1, id1: 4, id2: 4, type: up}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.yaml", []byte(tt.content))
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, ErrCodeInvalidTrace, le.Code)
		})
	}
}

func TestLoad_MissingFileIsIOError(t *testing.T) {
	st := openStore(t)
	_, err := Load(context.Background(), st, filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, IsIOError(err))

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestLoad_FailedFileLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	path := writeArchive(t, `
traces:
  - name: good
    kind: presence
    max_update_interval: 1
  - name: bad
    kind: links
    min_time: 9
    max_time: 1
    max_update_interval: 1
`)
	_, err := Load(ctx, st, path)
	require.Error(t, err)

	traces, err := st.ListTraces(ctx)
	require.NoError(t, err)
	assert.Empty(t, traces)
}

func TestLoadAll_Modes(t *testing.T) {
	ctx := context.Background()
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	paths := []string{missing, "testdata/small.yaml"}

	st := openStore(t)
	results, errs := LoadAll(ctx, st, paths, LoadModeFailFast)
	assert.Empty(t, results)
	require.Len(t, errs, 1)
	assert.True(t, IsIOError(errs[0]))
	traces, err := st.ListTraces(ctx)
	require.NoError(t, err)
	assert.Empty(t, traces, "fail-fast stops before later archives")

	st = openStore(t)
	results, errs = LoadAll(ctx, st, paths, LoadModeCollectAll)
	require.Len(t, results, 1)
	require.Len(t, errs, 1)
	traces, err = st.ListTraces(ctx)
	require.NoError(t, err)
	assert.Len(t, traces, 3, "collect-all skips the bad archive and loads the rest")
}
