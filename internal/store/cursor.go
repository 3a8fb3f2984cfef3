package store

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/netreplay/internal/ir"
)

// EventCursor reads a trace's events in (time, seq) order, one page per
// query. No rows stay open between calls to Next, so several cursors can
// interleave on the store's single connection.
type EventCursor[E any] struct {
	st       *Store
	trace    string
	pageSize int

	buf []E
	idx int

	// Position of the last row fetched; the next page starts after it.
	lastTime int64
	lastSeq  int64

	exhausted bool
	closed    bool
}

func newEventCursor[E any](st *Store, trace string) *EventCursor[E] {
	return &EventCursor[E]{
		st:       st,
		trace:    trace,
		pageSize: st.pageSize,
		lastTime: math.MinInt64,
	}
}

// Next returns the next event, or ok=false once the trace is exhausted.
func (c *EventCursor[E]) Next(ctx context.Context) (E, bool, error) {
	var zero E
	if c.closed {
		return zero, false, fmt.Errorf("trace %s: cursor closed", c.trace)
	}
	if c.idx >= len(c.buf) {
		if c.exhausted {
			return zero, false, nil
		}
		if err := c.fetch(ctx); err != nil {
			return zero, false, err
		}
		if len(c.buf) == 0 {
			return zero, false, nil
		}
	}
	e := c.buf[c.idx]
	c.idx++
	return e, true, nil
}

func (c *EventCursor[E]) fetch(ctx context.Context) error {
	if c.st.db == nil {
		return fmt.Errorf("trace %s: store closed", c.trace)
	}

	// Deterministic ordering - ORDER BY time ASC, seq ASC
	rows, err := c.st.db.QueryContext(ctx, `
		SELECT seq, time, payload
		FROM events
		WHERE trace = ? AND (time, seq) > (?, ?)
		ORDER BY time ASC, seq ASC
		LIMIT ?
	`, c.trace, c.lastTime, c.lastSeq, c.pageSize)
	if err != nil {
		return fmt.Errorf("query events %s: %w", c.trace, err)
	}
	defer rows.Close()

	c.buf = c.buf[:0]
	c.idx = 0
	for rows.Next() {
		var (
			seq, t  int64
			payload string
		)
		if err := rows.Scan(&seq, &t, &payload); err != nil {
			return fmt.Errorf("scan event %s: %w", c.trace, err)
		}
		e, err := unmarshalPayload[E](payload)
		if err != nil {
			return fmt.Errorf("trace %s seq %d: %w", c.trace, seq, err)
		}
		c.buf = append(c.buf, e)
		c.lastTime, c.lastSeq = t, seq
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate events %s: %w", c.trace, err)
	}

	if len(c.buf) < c.pageSize {
		c.exhausted = true
	}
	return nil
}

// Close releases the cursor's buffer. Calling Close more than once is a no-op.
func (c *EventCursor[E]) Close() error {
	c.closed = true
	c.buf = nil
	return nil
}

var _ ir.Cursor[ir.LinkEvent] = (*EventCursor[ir.LinkEvent])(nil)
