package pipeline_test

import (
	"testing"

	"github.com/vixgo/conduit/domain/httperr"
	"github.com/vixgo/conduit/pipeline"
	"github.com/vixgo/conduit/ports"
)

func traceHooks(trace *string, begin, end string) pipeline.Hooks {
	return pipeline.Hooks{
		OnBegin: func(*pipeline.Context) { *trace += begin },
		OnEnd:   func(*pipeline.Context) { *trace += end },
	}
}

func TestMergeHooks_BeginForwardEndReverse(t *testing.T) {
	var trace string

	p := pipeline.New().SetHooks(pipeline.MergeHooks(
		traceHooks(&trace, "A", "a"),
		traceHooks(&trace, "B", "b"),
	))

	p.Run(newStubRequest("GET", "/x"), newStubResponse(), func(ports.Request, ports.Response) {
		trace += "F"
	})

	if trace != "ABFba" {
		t.Errorf("trace = %q, want %q", trace, "ABFba")
	}
}

func TestMergeHooks_ErrorReverseOrder(t *testing.T) {
	var trace string

	h := pipeline.MergeHooks(
		pipeline.Hooks{OnError: func(*pipeline.Context, httperr.Error) { trace += "1" }},
		pipeline.Hooks{OnError: func(*pipeline.Context, httperr.Error) { trace += "2" }},
		pipeline.Hooks{OnError: func(*pipeline.Context, httperr.Error) { trace += "3" }},
	)

	h.OnError(nil, httperr.Internal(""))

	if trace != "321" {
		t.Errorf("trace = %q, want %q", trace, "321")
	}
}

func TestMergeHooks_SkipsAbsentCallbacks(t *testing.T) {
	var trace string

	h := pipeline.MergeHooks(
		pipeline.Hooks{OnBegin: func(*pipeline.Context) { trace += "A" }},
		pipeline.Hooks{}, // fully absent
		pipeline.Hooks{OnEnd: func(*pipeline.Context) { trace += "c" }},
	)

	h.OnBegin(nil)
	h.OnEnd(nil)

	if trace != "Ac" {
		t.Errorf("trace = %q, want %q", trace, "Ac")
	}
}

func TestMergeHooks_NestsWhenMergedAgain(t *testing.T) {
	var trace string

	inner := pipeline.MergeHooks(
		traceHooks(&trace, "A", "a"),
		traceHooks(&trace, "B", "b"),
	)
	outer := pipeline.MergeHooks(inner, traceHooks(&trace, "C", "c"))

	outer.OnBegin(nil)
	outer.OnEnd(nil)

	if trace != "ABCcba" {
		t.Errorf("trace = %q, want %q", trace, "ABCcba")
	}
}

func TestHooks_IsZero(t *testing.T) {
	if !(pipeline.Hooks{}).IsZero() {
		t.Error("empty hooks should be zero")
	}
	if (pipeline.Hooks{OnBegin: func(*pipeline.Context) {}}).IsZero() {
		t.Error("hooks with OnBegin should not be zero")
	}
}
