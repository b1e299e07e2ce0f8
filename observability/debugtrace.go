package observability

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vixgo/conduit/domain/httperr"
	"github.com/vixgo/conduit/pipeline"
	"github.com/vixgo/conduit/ports"
)

// DebugTraceOptions configures DebugTraceHooks.
type DebugTraceOptions struct {
	// Prefix opens every line. Default "[conduit.debug]".
	Prefix string

	// OmitMethod drops the method field.
	OmitMethod bool

	// OmitPath drops the path field.
	OmitPath bool

	// OmitStatus drops the status field from end lines.
	OmitStatus bool

	// OmitDuration drops the ms field from end lines.
	OmitDuration bool
}

func (o DebugTraceOptions) withDefaults() DebugTraceOptions {
	if o.Prefix == "" {
		o.Prefix = "[conduit.debug]"
	}
	return o
}

// debugStart marks the begin timestamp of a run (typed Context state).
type debugStart struct {
	t0 time.Time
}

func buildLineBegin(c *pipeline.Context, opt DebugTraceOptions) string {
	var b strings.Builder
	b.WriteString(opt.Prefix)
	b.WriteString(" begin")

	if !opt.OmitMethod {
		b.WriteString(" method=")
		b.WriteString(c.Req().Method())
	}
	if !opt.OmitPath {
		b.WriteString(" path=")
		b.WriteString(c.Req().Path())
	}
	return b.String()
}

func buildLineEnd(c *pipeline.Context, opt DebugTraceOptions, ms float64) string {
	var b strings.Builder
	b.WriteString(opt.Prefix)
	b.WriteString(" end")

	if !opt.OmitMethod {
		b.WriteString(" method=")
		b.WriteString(c.Req().Method())
	}
	if !opt.OmitPath {
		b.WriteString(" path=")
		b.WriteString(c.Req().Path())
	}
	if !opt.OmitStatus {
		b.WriteString(" status=")
		b.WriteString(strconv.Itoa(c.Res().Status()))
	}
	if !opt.OmitDuration {
		b.WriteString(fmt.Sprintf(" ms=%.3f", ms))
	}
	return b.String()
}

// DebugTraceHooks returns hooks that log one line per lifecycle event
// through a ports.TraceSink.
func DebugTraceHooks(sink ports.TraceSink, opt DebugTraceOptions) pipeline.Hooks {
	opt = opt.withDefaults()

	return pipeline.Hooks{
		OnBegin: func(c *pipeline.Context) {
			if sink == nil {
				return
			}
			pipeline.SetState(c, debugStart{t0: time.Now()})
			sink.Log(buildLineBegin(c, opt))
		},
		OnEnd: func(c *pipeline.Context) {
			if sink == nil {
				return
			}

			var ms float64
			if st, ok := pipeline.State[debugStart](c); ok {
				ms = float64(time.Since(st.t0)) / float64(time.Millisecond)
			}
			sink.Log(buildLineEnd(c, opt, ms))
		},
		OnError: func(c *pipeline.Context, err httperr.Error) {
			if sink == nil {
				return
			}
			sink.Log(fmt.Sprintf("%s error code=%s status=%d", opt.Prefix, err.Code, err.Status))
		},
	}
}

// InMemoryTrace is a TraceSink that collects lines for tests and dev use.
type InMemoryTrace struct {
	mu    sync.Mutex
	lines []string
}

// NewInMemoryTrace creates an empty sink.
func NewInMemoryTrace() *InMemoryTrace {
	return &InMemoryTrace{}
}

// Log implements ports.TraceSink.
func (s *InMemoryTrace) Log(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

// Lines returns a copy of the collected lines.
func (s *InMemoryTrace) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

var _ ports.TraceSink = (*InMemoryTrace)(nil)
