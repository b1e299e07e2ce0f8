package middleware_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vixgo/conduit/domain/httperr"
	"github.com/vixgo/conduit/middleware"
	"github.com/vixgo/conduit/pipeline"
	"github.com/vixgo/conduit/ports/portstest"
)

func TestRecovery_ConvertsPanicToCleanResponse(t *testing.T) {
	p := pipeline.New()
	p.Use(middleware.Recovery(middleware.RecoveryOptions{}))
	p.Use(func(*pipeline.Context, *pipeline.Next) {
		panic("downstream exploded")
	})

	res := portstest.NewResponse()
	p.Run(portstest.NewRequest("GET", "/boom"), res, nil) // must not panic out

	if res.StatusCode != 500 {
		t.Errorf("status = %d, want 500", res.StatusCode)
	}

	var e httperr.Error
	if err := json.Unmarshal([]byte(res.BodyString()), &e); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if e.Code != "internal_server_error" {
		t.Errorf("code = %q, want internal_server_error", e.Code)
	}
	if _, leaked := e.Details["panic"]; leaked {
		t.Error("panic text must not leak by default")
	}
}

func TestRecovery_IncludePanicValue(t *testing.T) {
	p := pipeline.New()
	p.Use(middleware.Recovery(middleware.RecoveryOptions{IncludePanicValue: true}))
	p.Use(func(*pipeline.Context, *pipeline.Next) {
		panic("secret detail")
	})

	res := portstest.NewResponse()
	p.Run(portstest.NewRequest("GET", "/boom"), res, nil)

	var e httperr.Error
	if err := json.Unmarshal([]byte(res.BodyString()), &e); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if e.Details["panic"] != "secret detail" {
		t.Errorf("details panic = %q, want the panic text", e.Details["panic"])
	}
}

func TestRecovery_LogsThroughServices(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	p := pipeline.New()
	pipeline.Provide(p.Services(), &logger)
	p.Use(middleware.Recovery(middleware.RecoveryOptions{}))
	p.Use(func(*pipeline.Context, *pipeline.Next) {
		panic("logged panic")
	})

	p.Run(portstest.NewRequest("POST", "/boom"), portstest.NewResponse(), nil)

	out := buf.String()
	if !strings.Contains(out, "logged panic") {
		t.Errorf("log output missing panic text: %s", out)
	}
	if !strings.Contains(out, "/boom") {
		t.Errorf("log output missing path: %s", out)
	}
}

func TestRecovery_NoPanicPassesThrough(t *testing.T) {
	p := pipeline.New()
	p.Use(middleware.Recovery(middleware.RecoveryOptions{}))

	downstream := 0
	p.Use(func(c *pipeline.Context, next *pipeline.Next) {
		downstream++
		c.SendText(204, "")
		next.Call()
	})

	res := portstest.NewResponse()
	p.Run(portstest.NewRequest("GET", "/ok"), res, nil)

	if downstream != 1 {
		t.Errorf("downstream ran %d times, want 1", downstream)
	}
	if res.StatusCode != 204 {
		t.Errorf("status = %d, want 204", res.StatusCode)
	}
}
