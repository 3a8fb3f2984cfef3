package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/roach88/netreplay/internal/ir"
)

// TraceData is one trace to import.
type TraceData struct {
	Info ir.TraceInfo

	// Initial is the state at the trace origin. Nil means empty.
	Initial ir.Timed

	// Events in recording order. They are stably sorted by timestamp on
	// import, so equal timestamps keep this order.
	Events []ir.Timed
}

// Validate checks metadata and that every value matches the trace kind.
func (d TraceData) Validate() error {
	if err := d.Info.Validate(); err != nil {
		return err
	}
	if d.Initial != nil {
		if err := checkKind(d.Info.Kind, d.Initial); err != nil {
			return fmt.Errorf("trace %s: initial state: %w", d.Info.Name, err)
		}
	}
	for i, e := range d.Events {
		if err := checkKind(d.Info.Kind, e); err != nil {
			return fmt.Errorf("trace %s: event %d: %w", d.Info.Name, i, err)
		}
	}
	return nil
}

// ImportTraces writes a batch of traces in a single transaction. A trace
// whose name already exists is replaced. On error nothing is written.
func (s *Store) ImportTraces(ctx context.Context, traces []TraceData) error {
	seen := make(map[string]bool, len(traces))
	for _, td := range traces {
		if err := td.Validate(); err != nil {
			return fmt.Errorf("import traces: %w", err)
		}
		if seen[td.Info.Name] {
			return fmt.Errorf("import traces: duplicate trace %s", td.Info.Name)
		}
		seen[td.Info.Name] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import traces: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, td := range traces {
		info := td.Info

		initial := td.Initial
		if initial == nil {
			initial = emptySnapshot(info.Kind, info.Origin())
		}
		initialJSON, err := marshalPayload(initial)
		if err != nil {
			return fmt.Errorf("import trace %s: %w", info.Name, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM traces WHERE name = ?`, info.Name); err != nil {
			return fmt.Errorf("import trace %s: replace: %w", info.Name, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO traces
			(name, kind, description, min_time, max_time, max_update_interval, initial_state, format_version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			info.Name,
			string(info.Kind),
			info.Description,
			nullTime(info.MinTime),
			nullTime(info.MaxTime),
			int64(info.MaxUpdateInterval),
			initialJSON,
			ir.FormatVersion,
		)
		if err != nil {
			return fmt.Errorf("import trace %s: %w", info.Name, err)
		}

		events := slices.Clone(td.Events)
		slices.SortStableFunc(events, func(a, b ir.Timed) int {
			return cmp.Compare(a.Timestamp(), b.Timestamp())
		})

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO events (trace, seq, time, payload) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("import trace %s: prepare: %w", info.Name, err)
		}
		for i, e := range events {
			payload, err := marshalPayload(e)
			if err != nil {
				stmt.Close()
				return fmt.Errorf("import trace %s: event %d: %w", info.Name, i, err)
			}
			if _, err := stmt.ExecContext(ctx, info.Name, int64(i+1), int64(e.Timestamp()), payload); err != nil {
				stmt.Close()
				return fmt.Errorf("import trace %s: event %d: %w", info.Name, i, err)
			}
		}
		stmt.Close()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import traces: commit: %w", err)
	}
	return nil
}

// DeleteTrace removes a trace and its events.
func (s *Store) DeleteTrace(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM traces WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete trace %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete trace %s: %w", name, err)
	}
	if n == 0 {
		return &NoSuchTraceError{Name: name}
	}
	return nil
}
