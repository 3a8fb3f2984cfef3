// Package metrics counts what a replay delivers. Each run gets its own
// Prometheus registry so concurrent runs and tests never share counters.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/netreplay/internal/bus"
	"github.com/roach88/netreplay/internal/ir"
)

const namespace = "netreplay"

// Metrics holds the counters of one run.
type Metrics struct {
	reg *prometheus.Registry

	deliveries   *prometheus.CounterVec
	steps        prometheus.Counter
	readerEvents *prometheus.CounterVec
}

// New creates the counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "deliveries_total",
			Help:      "Values published on each bus",
		}, []string{"bus"}),
		steps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "steps_total",
			Help:      "Completed runner steps",
		}),
		readerEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reader",
			Name:      "events_total",
			Help:      "Events applied by each trace reader",
		}, []string{"trace"}),
	}
}

// Registry returns the run's registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Observe subscribes a counting listener to b. Subscribe it after the
// report listeners: a delivery a report rejected is not counted.
func Observe[T any](m *Metrics, b *bus.Bus[T]) error {
	c := m.deliveries.WithLabelValues(b.Name())
	return b.AddListener(func(T) error {
		c.Inc()
		return nil
	})
}

// Step records one completed runner step. It matches the runner's step
// observer signature.
func (m *Metrics) Step(ir.Time) { m.steps.Inc() }

// ReaderApplied returns a callback counting events applied by trace.
func (m *Metrics) ReaderApplied(trace string) func() {
	c := m.readerEvents.WithLabelValues(trace)
	return c.Inc
}

// WriteFile writes the registry in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
