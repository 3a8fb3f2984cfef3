package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/netreplay/internal/bus"
	"github.com/roach88/netreplay/internal/ir"
)

// Delivery is one value a Recorder received, stamped with the shared
// sequence number at delivery time.
type Delivery[T any] struct {
	Seq   int64
	Value T
}

// Recorder collects everything published on a bus.
type Recorder[T any] struct {
	seq        *Sequence
	Deliveries []Delivery[T]
}

// NewRecorder creates a recorder. seq may be nil when ordering across
// buses does not matter.
func NewRecorder[T any](seq *Sequence) *Recorder[T] {
	if seq == nil {
		seq = NewSequence()
	}
	return &Recorder[T]{seq: seq}
}

// Listener returns the bus listener that records into r.
func (r *Recorder[T]) Listener() bus.Listener[T] {
	return func(v T) error {
		r.Deliveries = append(r.Deliveries, Delivery[T]{Seq: r.seq.Next(), Value: v})
		return nil
	}
}

// Values returns the recorded values in delivery order.
func (r *Recorder[T]) Values() []T {
	out := make([]T, len(r.Deliveries))
	for i, d := range r.Deliveries {
		out[i] = d.Value
	}
	return out
}

// Len returns the number of deliveries.
func (r *Recorder[T]) Len() int { return len(r.Deliveries) }

// FailAfter returns a listener that accepts n values and then fails with err.
func FailAfter[T any](n int, err error) bus.Listener[T] {
	seen := 0
	return func(T) error {
		if seen >= n {
			return err
		}
		seen++
		return nil
	}
}

// AssertMonotonic checks that timestamps never decrease.
func AssertMonotonic[T ir.Timed](t *testing.T, values []T) bool {
	t.Helper()
	for i := 1; i < len(values); i++ {
		if !assert.GreaterOrEqual(t, values[i].Timestamp(), values[i-1].Timestamp(),
			"timestamp decreased at delivery %d", i) {
			return false
		}
	}
	return true
}

// Times returns the timestamps of values.
func Times[T ir.Timed](values []T) []ir.Time {
	out := make([]ir.Time, len(values))
	for i, v := range values {
		out[i] = v.Timestamp()
	}
	return out
}
