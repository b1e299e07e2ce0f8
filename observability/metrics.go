package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/vixgo/conduit/domain/httperr"
	"github.com/vixgo/conduit/pipeline"
	"github.com/vixgo/conduit/ports"
)

// MetricsOptions configures MetricsHooks.
type MetricsOptions struct {
	// Prefix for metric names. Default "conduit_http".
	Prefix string

	// IncludeMethod adds a method label.
	IncludeMethod bool

	// IncludePath adds a path label. Off by default: raw paths are usually
	// too high-cardinality for a metrics backend.
	IncludePath bool

	// IncludeStatus adds a status label to end metrics.
	IncludeStatus bool

	// PathLabel overrides the path label value (e.g. a route template).
	PathLabel func(ports.Request) string
}

// DefaultMetricsOptions returns the labels turned on by default:
// method and status, but not path.
func DefaultMetricsOptions() MetricsOptions {
	return MetricsOptions{
		Prefix:        "conduit_http",
		IncludeMethod: true,
		IncludeStatus: true,
	}
}

func (o MetricsOptions) withDefaults() MetricsOptions {
	if o.Prefix == "" {
		o.Prefix = "conduit_http"
	}
	return o
}

// metricsStart marks the begin timestamp of a run (typed Context state).
type metricsStart struct {
	t0 time.Time
}

func baseLabels(req ports.Request, opt MetricsOptions) map[string]string {
	labels := make(map[string]string, 2)

	if opt.IncludeMethod {
		labels["method"] = req.Method()
	}
	if opt.IncludePath {
		if opt.PathLabel != nil {
			labels["path"] = opt.PathLabel(req)
		} else {
			labels["path"] = req.Path()
		}
	}
	return labels
}

func endLabels(c *pipeline.Context, opt MetricsOptions) map[string]string {
	labels := baseLabels(c.Req(), opt)
	if opt.IncludeStatus {
		labels["status"] = strconv.Itoa(c.Res().Status())
	}
	return labels
}

// MetricsHooks returns hooks that count requests, responses and escaped
// failures, and observe per-request duration, through a ports.MetricsSink.
//
// Metric names: <prefix>_requests_total, <prefix>_request_duration_ms,
// <prefix>_responses_total, <prefix>_exceptions_total.
func MetricsHooks(sink ports.MetricsSink, opt MetricsOptions) pipeline.Hooks {
	opt = opt.withDefaults()

	return pipeline.Hooks{
		OnBegin: func(c *pipeline.Context) {
			if sink == nil {
				return
			}
			pipeline.SetState(c, metricsStart{t0: time.Now()})
			sink.IncCounter(opt.Prefix+"_requests_total", baseLabels(c.Req(), opt), 1)
		},
		OnEnd: func(c *pipeline.Context) {
			if sink == nil {
				return
			}
			st, ok := pipeline.State[metricsStart](c)
			if !ok {
				return
			}

			ms := float64(time.Since(st.t0)) / float64(time.Millisecond)
			sink.ObserveDuration(opt.Prefix+"_request_duration_ms", ms, endLabels(c, opt))
			sink.IncCounter(opt.Prefix+"_responses_total", endLabels(c, opt), 1)
		},
		OnError: func(c *pipeline.Context, err httperr.Error) {
			if sink == nil {
				return
			}
			labels := baseLabels(c.Req(), opt)
			labels["code"] = err.Code
			labels["status"] = strconv.Itoa(err.Status)
			sink.IncCounter(opt.Prefix+"_exceptions_total", labels, 1)
		},
	}
}

// MetricsMiddleware is the middleware form of MetricsHooks.
func MetricsMiddleware(sink ports.MetricsSink, opt MetricsOptions) pipeline.Middleware {
	opt = opt.withDefaults()

	return func(c *pipeline.Context, next *pipeline.Next) {
		if sink == nil {
			next.Call()
			return
		}

		t0 := time.Now()
		sink.IncCounter(opt.Prefix+"_requests_total", baseLabels(c.Req(), opt), 1)

		next.Call()

		ms := float64(time.Since(t0)) / float64(time.Millisecond)
		sink.ObserveDuration(opt.Prefix+"_request_duration_ms", ms, endLabels(c, opt))
		sink.IncCounter(opt.Prefix+"_responses_total", endLabels(c, opt), 1)
	}
}

// -----------------------------------------------------------------------------
// In-memory sink
// -----------------------------------------------------------------------------

// Observation records the running state of one duration series.
type Observation struct {
	Count  uint64
	LastMS float64
	Labels map[string]string
}

// InMemoryMetrics is a MetricsSink for tests and dev observability.
// Counters are keyed by name plus sorted labels so label order never
// produces distinct series.
type InMemoryMetrics struct {
	mu           sync.Mutex
	counters     map[string]uint64
	observations map[string]Observation
}

// NewInMemoryMetrics creates an empty in-memory sink.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:     make(map[string]uint64),
		observations: make(map[string]Observation),
	}
}

func counterKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := name
	for _, k := range keys {
		key += "|" + k + "=" + labels[k]
	}
	return key
}

// IncCounter implements ports.MetricsSink.
func (m *InMemoryMetrics) IncCounter(name string, labels map[string]string, value uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[counterKey(name, labels)] += value
}

// ObserveDuration implements ports.MetricsSink.
func (m *InMemoryMetrics) ObserveDuration(name string, ms float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o := m.observations[name]
	o.Count++
	o.LastMS = ms
	o.Labels = labels
	m.observations[name] = o
}

// Counter sums every series of the named counter across label sets.
func (m *InMemoryMetrics) Counter(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sum uint64
	for key, v := range m.counters {
		if key == name || (len(key) > len(name) && key[:len(name)+1] == name+"|") {
			sum += v
		}
	}
	return sum
}

// LastObservation returns the most recent observation for a duration series,
// or ok == false when nothing was observed.
func (m *InMemoryMetrics) LastObservation(name string) (Observation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.observations[name]
	return o, ok
}

var _ ports.MetricsSink = (*InMemoryMetrics)(nil)
