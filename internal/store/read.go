package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/netreplay/internal/ir"
)

// TraceSummary is a trace's metadata with its event count.
type TraceSummary struct {
	Info   ir.TraceInfo
	Events int64
}

// Trace returns the metadata of the named trace.
// Returns *NoSuchTraceError if the trace does not exist.
func (s *Store) Trace(ctx context.Context, name string) (ir.TraceInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, kind, description, min_time, max_time, max_update_interval
		FROM traces
		WHERE name = ?
	`, name)

	info, err := scanTraceInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.TraceInfo{}, &NoSuchTraceError{Name: name}
	}
	if err != nil {
		return ir.TraceInfo{}, fmt.Errorf("read trace %s: %w", name, err)
	}
	return info, nil
}

// ListTraces returns every trace ordered by name.
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListTraces(ctx context.Context) ([]TraceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, t.kind, t.description, t.min_time, t.max_time, t.max_update_interval,
		       (SELECT COUNT(*) FROM events e WHERE e.trace = t.name)
		FROM traces t
		ORDER BY t.name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	defer rows.Close()

	summaries := []TraceSummary{}
	for rows.Next() {
		var (
			sum              TraceSummary
			kind             string
			minTime, maxTime sql.NullInt64
			interval         int64
		)
		if err := rows.Scan(&sum.Info.Name, &kind, &sum.Info.Description, &minTime, &maxTime, &interval, &sum.Events); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		fillInfo(&sum.Info, kind, minTime, maxTime, interval)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traces: %w", err)
	}
	return summaries, nil
}

// EventCount returns the number of events recorded for a trace.
func (s *Store) EventCount(ctx context.Context, name string) (int64, error) {
	if _, err := s.Trace(ctx, name); err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE trace = ?`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events %s: %w", name, err)
	}
	return n, nil
}

// initialState returns the raw canonical JSON of a trace's initial state.
func (s *Store) initialState(ctx context.Context, name string) (string, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT initial_state FROM traces WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &NoSuchTraceError{Name: name}
	}
	if err != nil {
		return "", fmt.Errorf("read initial state %s: %w", name, err)
	}
	return data, nil
}

// TraceDigest returns a content hash of a trace: its metadata, initial
// state and every event payload in replay order. Two stores holding the
// same trace report the same digest.
func (s *Store) TraceDigest(ctx context.Context, name string) (string, error) {
	info, err := s.Trace(ctx, name)
	if err != nil {
		return "", err
	}
	initial, err := s.initialState(ctx, name)
	if err != nil {
		return "", err
	}

	d := ir.NewDigest(ir.DomainTrace)
	header := map[string]any{
		"name":                info.Name,
		"kind":                string(info.Kind),
		"min_time":            info.MinTime.Ptr(),
		"max_time":            info.MaxTime.Ptr(),
		"max_update_interval": int64(info.MaxUpdateInterval),
	}
	if err := d.Add(header); err != nil {
		return "", err
	}
	if err := d.Add(json.RawMessage(initial)); err != nil {
		return "", err
	}

	cur := newEventCursor[json.RawMessage](s, name)
	defer cur.Close()
	for {
		raw, ok, err := cur.Next(ctx)
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		if err := d.Add(raw); err != nil {
			return "", err
		}
	}
	return d.Sum(), nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTraceInfo(row rowScanner) (ir.TraceInfo, error) {
	var (
		info             ir.TraceInfo
		kind             string
		minTime, maxTime sql.NullInt64
		interval         int64
	)
	if err := row.Scan(&info.Name, &kind, &info.Description, &minTime, &maxTime, &interval); err != nil {
		return ir.TraceInfo{}, err
	}
	fillInfo(&info, kind, minTime, maxTime, interval)
	return info, nil
}

func fillInfo(info *ir.TraceInfo, kind string, minTime, maxTime sql.NullInt64, interval int64) {
	info.Kind = ir.Kind(kind)
	info.MaxUpdateInterval = ir.Time(interval)
	if minTime.Valid {
		info.MinTime = ir.Known(ir.Time(minTime.Int64))
	}
	if maxTime.Valid {
		info.MaxTime = ir.Known(ir.Time(maxTime.Int64))
	}
}
