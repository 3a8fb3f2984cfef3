package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/netreplay/internal/ir"
)

// marshalPayload converts an event or snapshot to canonical JSON TEXT.
// Canonical encoding makes the stored bytes, and thus trace digests,
// independent of how the value was built.
func marshalPayload(v any) (string, error) {
	data, err := ir.Canonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// unmarshalPayload decodes a stored payload into T.
func unmarshalPayload[T any](data string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return v, fmt.Errorf("unmarshal payload: %w", err)
	}
	return v, nil
}

// checkKind verifies that v is an event or snapshot of kind k.
func checkKind(k ir.Kind, v ir.Timed) error {
	var ok bool
	switch v.(type) {
	case ir.PresenceEvent, ir.PresenceSnapshot:
		ok = k == ir.KindPresence
	case ir.LinkEvent, ir.LinkSnapshot:
		ok = k == ir.KindLinks
	case ir.GroupEvent, ir.GroupSnapshot:
		ok = k == ir.KindGroups
	}
	if !ok {
		return fmt.Errorf("%T does not belong to a %s trace", v, k)
	}
	return nil
}

// emptySnapshot returns the empty initial state of a kind at t.
func emptySnapshot(k ir.Kind, t ir.Time) ir.Timed {
	switch k {
	case ir.KindLinks:
		return ir.LinkSnapshot{Time: t, Links: []ir.Link{}}
	case ir.KindGroups:
		return ir.GroupSnapshot{Time: t, Groups: []ir.Group{}}
	default:
		return ir.PresenceSnapshot{Time: t, Nodes: []ir.NodeID{}}
	}
}

func nullTime(b ir.Bound) any {
	if !b.Known {
		return nil
	}
	return int64(b.T)
}
