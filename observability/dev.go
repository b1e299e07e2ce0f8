package observability

import (
	"os"
	"strings"

	"github.com/vixgo/conduit/pipeline"
	"github.com/vixgo/conduit/ports"
)

// EnvVar is the environment variable controlling dev observability.
const EnvVar = "VIX_ENV"

// EnvIsDev reports whether VIX_ENV names a development environment
// (dev, development or local, case-insensitive).
func EnvIsDev() bool {
	switch strings.ToLower(os.Getenv(EnvVar)) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// DevSinks are the sinks used by EnableDev. Nil fields fall back to fresh
// in-memory sinks.
type DevSinks struct {
	Metrics ports.MetricsSink
	Debug   ports.TraceSink
}

// EnableDev installs the tracing, metrics, and debug trace hooks on a
// pipeline when VIX_ENV names a development environment. Hooks already
// installed on the pipeline are preserved and merged first, keeping the
// reverse-order teardown discipline intact.
//
// When onlyIfDevEnv is false, the hooks are installed unconditionally.
func EnableDev(p *pipeline.Pipeline, sinks DevSinks, onlyIfDevEnv bool) *pipeline.Pipeline {
	if onlyIfDevEnv && !EnvIsDev() {
		return p
	}

	if sinks.Metrics == nil {
		sinks.Metrics = NewInMemoryMetrics()
	}
	if sinks.Debug == nil {
		sinks.Debug = NewInMemoryTrace()
	}

	h := pipeline.MergeHooks(
		TracingHooks(TracingOptions{}),
		MetricsHooks(sinks.Metrics, DefaultMetricsOptions()),
		DebugTraceHooks(sinks.Debug, DebugTraceOptions{}),
	)

	if !p.Hooks().IsZero() {
		p.SetHooks(pipeline.MergeHooks(p.Hooks(), h))
	} else {
		p.SetHooks(h)
	}

	return p
}
