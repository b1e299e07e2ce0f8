// Package prom provides a Prometheus-backed ports.MetricsSink.
//
// The observability hooks speak in free-form metric names and label maps;
// Prometheus wants vectors registered up front with a fixed label set. The
// sink therefore pre-registers one counter vector and one histogram vector
// and folds hook metrics into them, with the hook metric name as a label.
package prom

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vixgo/conduit/ports"
)

// Labels every series carries. Hook labels outside this set are dropped;
// unbounded label keys would blow up cardinality.
var labelNames = []string{"metric", "method", "path", "status", "code"}

// Sink implements ports.MetricsSink on top of a Prometheus registry.
// The vectors synchronize internally; the sink itself holds no state.
type Sink struct {
	counters  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// New creates a sink and registers its vectors with reg.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func New(namespace string, reg prometheus.Registerer) (*Sink, error) {
	if namespace == "" {
		namespace = "conduit"
	}

	s := &Sink{
		counters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_events_total",
				Help:      "Pipeline lifecycle counters, keyed by metric name",
			},
			labelNames,
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_duration_ms",
				Help:      "Pipeline duration observations in milliseconds",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
			labelNames,
		),
	}

	if err := reg.Register(s.counters); err != nil {
		return nil, err
	}
	if err := reg.Register(s.durations); err != nil {
		return nil, err
	}
	return s, nil
}

func promLabels(metric string, labels map[string]string) prometheus.Labels {
	out := prometheus.Labels{}
	for _, name := range labelNames {
		out[name] = labels[name]
	}
	out["metric"] = metric
	return out
}

// IncCounter implements ports.MetricsSink.
func (s *Sink) IncCounter(name string, labels map[string]string, value uint64) {
	s.counters.With(promLabels(name, labels)).Add(float64(value))
}

// ObserveDuration implements ports.MetricsSink.
func (s *Sink) ObserveDuration(name string, ms float64, labels map[string]string) {
	s.durations.With(promLabels(name, labels)).Observe(ms)
}

// KnownLabels returns the label keys the sink keeps, sorted.
func KnownLabels() []string {
	out := make([]string, len(labelNames))
	copy(out, labelNames)
	sort.Strings(out)
	return out
}

var _ ports.MetricsSink = (*Sink)(nil)
