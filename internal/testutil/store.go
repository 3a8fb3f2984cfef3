package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/netreplay/internal/ir"
	"github.com/roach88/netreplay/internal/store"
)

// OpenStore opens a store in a temp directory, closed on cleanup.
func OpenStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "traces.db"), opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// Seed imports traces into st, failing the test on error.
func Seed(t *testing.T, st *store.Store, traces ...store.TraceData) {
	t.Helper()
	if err := st.ImportTraces(context.Background(), traces); err != nil {
		t.Fatalf("seed store: %v", err)
	}
}

// SeedFile creates a database file holding traces and returns its path.
// The store is closed again so commands under test can open it.
func SeedFile(t *testing.T, traces ...store.TraceData) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traces.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	Seed(t, st, traces...)
	return path
}

// PresenceFixture is a presence trace over [0, 20] with states every 5.
//
//	t=0 {1 2}, t=3 +3, t=8 -1, t=12 +4, t=15 -3
func PresenceFixture(name string) store.TraceData {
	return store.TraceData{
		Info: ir.TraceInfo{
			Name:              name,
			Kind:              ir.KindPresence,
			MinTime:           ir.Known(0),
			MaxTime:           ir.Known(20),
			MaxUpdateInterval: 5,
		},
		Initial: ir.PresenceSnapshot{Time: 0, Nodes: []ir.NodeID{1, 2}},
		Events: []ir.Timed{
			ir.PresenceEvent{Time: 3, Node: 3, Type: ir.PresenceIn},
			ir.PresenceEvent{Time: 8, Node: 1, Type: ir.PresenceOut},
			ir.PresenceEvent{Time: 12, Node: 4, Type: ir.PresenceIn},
			ir.PresenceEvent{Time: 15, Node: 3, Type: ir.PresenceOut},
		},
	}
}

// LinkFixture is a link trace over [0, 20] with states every 5.
//
//	t=0 {1-2}, t=4 +2-3, t=6 -1-2, t=9 +1-3, t=14 -2-3, t=17 +3-4
func LinkFixture(name string) store.TraceData {
	return store.TraceData{
		Info: ir.TraceInfo{
			Name:              name,
			Kind:              ir.KindLinks,
			MinTime:           ir.Known(0),
			MaxTime:           ir.Known(20),
			MaxUpdateInterval: 5,
		},
		Initial: ir.LinkSnapshot{Time: 0, Links: []ir.Link{ir.NewLink(1, 2)}},
		Events: []ir.Timed{
			ir.LinkEvent{Time: 4, Link: ir.NewLink(2, 3), Type: ir.LinkUp},
			ir.LinkEvent{Time: 6, Link: ir.NewLink(1, 2), Type: ir.LinkDown},
			ir.LinkEvent{Time: 9, Link: ir.NewLink(1, 3), Type: ir.LinkUp},
			ir.LinkEvent{Time: 14, Link: ir.NewLink(2, 3), Type: ir.LinkDown},
			ir.LinkEvent{Time: 17, Link: ir.NewLink(3, 4), Type: ir.LinkUp},
		},
	}
}

// GroupFixture is a group trace over [0, 20] with states every 10.
//
//	t=0 {1:[1 2]}, t=5 1+3, t=11 new 2, t=11 2+4, t=16 1-1
func GroupFixture(name string) store.TraceData {
	return store.TraceData{
		Info: ir.TraceInfo{
			Name:              name,
			Kind:              ir.KindGroups,
			MinTime:           ir.Known(0),
			MaxTime:           ir.Known(20),
			MaxUpdateInterval: 10,
		},
		Initial: ir.GroupSnapshot{Time: 0, Groups: []ir.Group{{GID: 1, Members: []ir.NodeID{1, 2}}}},
		Events: []ir.Timed{
			ir.GroupEvent{Time: 5, GID: 1, Type: ir.GroupJoin, Members: []ir.NodeID{3}},
			ir.GroupEvent{Time: 11, GID: 2, Type: ir.GroupNew},
			ir.GroupEvent{Time: 11, GID: 2, Type: ir.GroupJoin, Members: []ir.NodeID{4}},
			ir.GroupEvent{Time: 16, GID: 1, Type: ir.GroupLeave, Members: []ir.NodeID{1}},
		},
	}
}
