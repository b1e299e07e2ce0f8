// Package observability provides lifecycle hooks that instrument pipeline
// runs: trace id propagation, request metrics, and a line-oriented debug
// trace. Hooks observe begin/end/error; they never alter control flow.
package observability

import (
	"math/rand"

	"github.com/vixgo/conduit/domain/httperr"
	"github.com/vixgo/conduit/pipeline"
)

// TraceContext carries the ids of the span covering one pipeline run.
// It is attached to the Context as typed state so middleware (loggers,
// upstream clients) can read it downstream.
type TraceContext struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
}

// TracingOptions configures TracingHooks. The zero value accepts well-formed
// incoming ids and emits trace headers on the response.
type TracingOptions struct {
	// TraceHeader is the header carrying the trace id. Default "X-Trace-Id".
	TraceHeader string

	// SpanHeader is the header carrying the span id. Default "X-Span-Id".
	SpanHeader string

	// ParentSpanHeader is the response header for the parent span id.
	// Default "X-Parent-Span-Id".
	ParentSpanHeader string

	// DisableIncomingTrace ignores any incoming trace id.
	DisableIncomingTrace bool

	// DisableIncomingSpan ignores any incoming span id.
	DisableIncomingSpan bool

	// DisableResponseHeaders suppresses trace/span headers on end/error.
	DisableResponseHeaders bool

	// IncludeParentInResponse also emits the parent span id header.
	IncludeParentInResponse bool

	// Enrich, when set, can mutate the TraceContext before it is stored.
	Enrich func(*pipeline.Context, *TraceContext)
}

func (o TracingOptions) withDefaults() TracingOptions {
	if o.TraceHeader == "" {
		o.TraceHeader = "X-Trace-Id"
	}
	if o.SpanHeader == "" {
		o.SpanHeader = "X-Span-Id"
	}
	if o.ParentSpanHeader == "" {
		o.ParentSpanHeader = "X-Parent-Span-Id"
	}
	return o
}

const hexDigits = "0123456789abcdef"

func hexU64(v uint64) string {
	b := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		b[i] = hexDigits[v&0xF]
		v >>= 4
	}
	return string(b)
}

// NewTraceID returns a 128-bit hex trace id (32 chars).
func NewTraceID() string {
	return hexU64(rand.Uint64()) + hexU64(rand.Uint64())
}

// NewSpanID returns a 64-bit hex span id (16 chars).
func NewSpanID() string {
	return hexU64(rand.Uint64())
}

func looksLikeHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range []byte(s) {
		ok := (c >= '0' && c <= '9') ||
			(c >= 'a' && c <= 'f') ||
			(c >= 'A' && c <= 'F')
		if !ok {
			return false
		}
	}
	return true
}

func buildTraceContext(c *pipeline.Context, opt TracingOptions) TraceContext {
	var tc TraceContext

	if !opt.DisableIncomingTrace {
		incoming := c.Req().Header(opt.TraceHeader)
		if looksLikeHex(incoming) && (len(incoming) == 16 || len(incoming) == 32) {
			tc.TraceID = incoming
		}
	}

	if !opt.DisableIncomingSpan {
		incoming := c.Req().Header(opt.SpanHeader)
		if looksLikeHex(incoming) && len(incoming) == 16 {
			tc.ParentSpanID = incoming
		}
	}

	if tc.TraceID == "" {
		tc.TraceID = NewTraceID()
	}
	tc.SpanID = NewSpanID()
	return tc
}

func emitTraceHeaders(c *pipeline.Context, tc TraceContext, opt TracingOptions) {
	if opt.DisableResponseHeaders {
		return
	}

	c.Res().SetHeader(opt.TraceHeader, tc.TraceID)
	c.Res().SetHeader(opt.SpanHeader, tc.SpanID)

	if opt.IncludeParentInResponse && tc.ParentSpanID != "" {
		c.Res().SetHeader(opt.ParentSpanHeader, tc.ParentSpanID)
	}
}

// TracingHooks returns hooks that open a span on begin and emit trace
// headers on end or error.
func TracingHooks(opt TracingOptions) pipeline.Hooks {
	opt = opt.withDefaults()

	return pipeline.Hooks{
		OnBegin: func(c *pipeline.Context) {
			tc := buildTraceContext(c, opt)
			if opt.Enrich != nil {
				opt.Enrich(c, &tc)
			}
			pipeline.SetState(c, tc)
		},
		OnEnd: func(c *pipeline.Context) {
			if tc, ok := pipeline.State[TraceContext](c); ok {
				emitTraceHeaders(c, tc, opt)
			}
		},
		OnError: func(c *pipeline.Context, _ httperr.Error) {
			if tc, ok := pipeline.State[TraceContext](c); ok {
				emitTraceHeaders(c, tc, opt)
			}
		},
	}
}

// TracingMiddleware is the middleware form of TracingHooks for callers that
// compose instrumentation into the chain instead of the hook set.
func TracingMiddleware(opt TracingOptions) pipeline.Middleware {
	opt = opt.withDefaults()

	return func(c *pipeline.Context, next *pipeline.Next) {
		tc := buildTraceContext(c, opt)
		if opt.Enrich != nil {
			opt.Enrich(c, &tc)
		}
		pipeline.SetState(c, tc)

		next.Call()

		emitTraceHeaders(c, tc, opt)
	}
}
