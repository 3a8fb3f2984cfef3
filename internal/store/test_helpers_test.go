package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/netreplay/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// linkTrace builds a small link trace with a tie at time 3.
func linkTrace(name string) TraceData {
	return TraceData{
		Info: ir.TraceInfo{
			Name:              name,
			Kind:              ir.KindLinks,
			Description:       "test links",
			MinTime:           ir.Known(0),
			MaxTime:           ir.Known(10),
			MaxUpdateInterval: 5,
		},
		Initial: ir.LinkSnapshot{Time: 0, Links: []ir.Link{ir.NewLink(1, 2)}},
		Events: []ir.Timed{
			ir.LinkEvent{Time: 7, Link: ir.NewLink(1, 2), Type: ir.LinkDown},
			ir.LinkEvent{Time: 3, Link: ir.NewLink(3, 2), Type: ir.LinkUp},
			ir.LinkEvent{Time: 3, Link: ir.NewLink(1, 3), Type: ir.LinkUp},
			ir.LinkEvent{Time: 9, Link: ir.NewLink(2, 3), Type: ir.LinkDown},
		},
	}
}

// presenceTrace builds a presence trace with unknown bounds.
func presenceTrace(name string) TraceData {
	return TraceData{
		Info: ir.TraceInfo{
			Name:              name,
			Kind:              ir.KindPresence,
			MaxUpdateInterval: 2,
		},
		Events: []ir.Timed{
			ir.PresenceEvent{Time: 1, Node: 1, Type: ir.PresenceIn},
			ir.PresenceEvent{Time: 4, Node: 1, Type: ir.PresenceOut},
		},
	}
}
