package observability_test

import (
	"testing"

	"github.com/vixgo/conduit/observability"
	"github.com/vixgo/conduit/pipeline"
	"github.com/vixgo/conduit/ports"
	"github.com/vixgo/conduit/ports/portstest"
)

func runPipeline(p *pipeline.Pipeline, req *portstest.Request) *portstest.Response {
	res := portstest.NewResponse()
	p.Run(req, res, func(_ ports.Request, w ports.Response) {
		w.SetStatus(200)
	})
	return res
}

func TestTracingHooks_GeneratesIDs(t *testing.T) {
	p := pipeline.New().SetHooks(observability.TracingHooks(observability.TracingOptions{}))

	var tc observability.TraceContext
	p.Use(func(c *pipeline.Context, next *pipeline.Next) {
		tc = pipeline.MustState[observability.TraceContext](c)
		next.Call()
	})

	res := runPipeline(p, portstest.NewRequest("GET", "/traced"))

	if len(tc.TraceID) != 32 {
		t.Errorf("trace id length = %d, want 32", len(tc.TraceID))
	}
	if len(tc.SpanID) != 16 {
		t.Errorf("span id length = %d, want 16", len(tc.SpanID))
	}
	if got := res.Header("X-Trace-Id"); got != tc.TraceID {
		t.Errorf("response trace header = %q, want %q", got, tc.TraceID)
	}
	if got := res.Header("X-Span-Id"); got != tc.SpanID {
		t.Errorf("response span header = %q, want %q", got, tc.SpanID)
	}
}

func TestTracingHooks_AcceptsIncomingTraceID(t *testing.T) {
	const incoming = "00112233445566778899aabbccddeeff"

	p := pipeline.New().SetHooks(observability.TracingHooks(observability.TracingOptions{}))

	req := portstest.NewRequest("GET", "/t").SetHeader("X-Trace-Id", incoming)
	res := runPipeline(p, req)

	if got := res.Header("X-Trace-Id"); got != incoming {
		t.Errorf("trace id = %q, want the incoming id", got)
	}
}

func TestTracingHooks_RejectsMalformedTraceID(t *testing.T) {
	p := pipeline.New().SetHooks(observability.TracingHooks(observability.TracingOptions{}))

	req := portstest.NewRequest("GET", "/t").SetHeader("X-Trace-Id", "not-hex!!")
	res := runPipeline(p, req)

	got := res.Header("X-Trace-Id")
	if got == "not-hex!!" {
		t.Error("malformed incoming trace id must be replaced")
	}
	if len(got) != 32 {
		t.Errorf("generated trace id length = %d, want 32", len(got))
	}
}

func TestTracingHooks_IncomingSpanBecomesParent(t *testing.T) {
	const parent = "aabbccddeeff0011"

	p := pipeline.New().SetHooks(observability.TracingHooks(observability.TracingOptions{}))

	var tc observability.TraceContext
	p.Use(func(c *pipeline.Context, next *pipeline.Next) {
		tc = pipeline.MustState[observability.TraceContext](c)
		next.Call()
	})

	runPipeline(p, portstest.NewRequest("GET", "/t").SetHeader("X-Span-Id", parent))

	if tc.ParentSpanID != parent {
		t.Errorf("parent span = %q, want %q", tc.ParentSpanID, parent)
	}
	if tc.SpanID == parent {
		t.Error("span id must be freshly generated, not the incoming one")
	}
}

func TestTracingHooks_DisableResponseHeaders(t *testing.T) {
	p := pipeline.New().SetHooks(observability.TracingHooks(observability.TracingOptions{
		DisableResponseHeaders: true,
	}))

	res := runPipeline(p, portstest.NewRequest("GET", "/t"))

	if res.Header("X-Trace-Id") != "" {
		t.Error("expected no trace header on the response")
	}
}

func TestTracingMiddleware(t *testing.T) {
	p := pipeline.New()
	p.Use(observability.TracingMiddleware(observability.TracingOptions{}))

	res := runPipeline(p, portstest.NewRequest("GET", "/t"))

	if len(res.Header("X-Trace-Id")) != 32 {
		t.Errorf("trace header = %q, want a 32-char id", res.Header("X-Trace-Id"))
	}
}

func TestNewIDs_Shape(t *testing.T) {
	if id := observability.NewTraceID(); len(id) != 32 {
		t.Errorf("trace id length = %d, want 32", len(id))
	}
	if id := observability.NewSpanID(); len(id) != 16 {
		t.Errorf("span id length = %d, want 16", len(id))
	}
	if observability.NewSpanID() == observability.NewSpanID() {
		t.Error("consecutive span ids should differ")
	}
}
