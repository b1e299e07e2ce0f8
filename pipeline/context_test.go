package pipeline_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/vixgo/conduit/domain/httperr"
	"github.com/vixgo/conduit/domain/result"
	"github.com/vixgo/conduit/pipeline"
)

type authState struct {
	UserID string
}

type quotaState struct {
	Remaining int
}

func newTestContext() (*pipeline.Context, *stubResponse) {
	res := newStubResponse()
	ctx := pipeline.NewContext(newStubRequest("GET", "/t"), res, pipeline.NewServices())
	return ctx, res
}

func TestState_SetAndGet(t *testing.T) {
	ctx, _ := newTestContext()

	pipeline.SetState(ctx, authState{UserID: "u1"})

	if !pipeline.HasState[authState](ctx) {
		t.Error("expected HasState to be true")
	}

	got, ok := pipeline.State[authState](ctx)
	if !ok {
		t.Fatal("expected state to be present")
	}
	if got.UserID != "u1" {
		t.Errorf("user id = %q, want u1", got.UserID)
	}
}

func TestState_AbsentType(t *testing.T) {
	ctx, _ := newTestContext()
	pipeline.SetState(ctx, authState{UserID: "u1"})

	if pipeline.HasState[quotaState](ctx) {
		t.Error("quotaState was never set")
	}
	if _, ok := pipeline.State[quotaState](ctx); ok {
		t.Error("expected ok == false for absent state type")
	}
}

func TestState_SecondSetOverwrites(t *testing.T) {
	ctx, _ := newTestContext()

	pipeline.SetState(ctx, authState{UserID: "first"})
	pipeline.SetState(ctx, authState{UserID: "second"})

	got := pipeline.MustState[authState](ctx)
	if got.UserID != "second" {
		t.Errorf("user id = %q, want second (one live value per type)", got.UserID)
	}
}

func TestMustState_PanicsWhenAbsent(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for absent state")
		}
	}()

	ctx, _ := newTestContext()
	pipeline.MustState[authState](ctx)
}

func TestSendText(t *testing.T) {
	ctx, res := newTestContext()

	ctx.SendText(200, "hello")

	if res.status != 200 {
		t.Errorf("status = %d, want 200", res.status)
	}
	if res.body.String() != "hello" {
		t.Errorf("body = %q, want hello", res.body.String())
	}
	if !strings.HasPrefix(res.Header("Content-Type"), "text/plain") {
		t.Errorf("content type = %q", res.Header("Content-Type"))
	}
}

func TestSendJSON(t *testing.T) {
	ctx, res := newTestContext()

	if err := ctx.SendJSON(201, map[string]string{"id": "42"}); err != nil {
		t.Fatalf("SendJSON: %v", err)
	}

	if res.status != 201 {
		t.Errorf("status = %d, want 201", res.status)
	}
	if res.Header("Content-Type") != "application/json" {
		t.Errorf("content type = %q", res.Header("Content-Type"))
	}

	var m map[string]string
	if err := json.Unmarshal([]byte(res.body.String()), &m); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if m["id"] != "42" {
		t.Errorf("id = %q, want 42", m["id"])
	}
}

func TestSendError_WritesNormalizedBodyAndHalts(t *testing.T) {
	ctx, res := newTestContext()

	ctx.SendError(httperr.Error{Status: 999, Details: map[string]string{"k": "v"}})

	if res.status != 500 {
		t.Errorf("status = %d, want 500 (clamped)", res.status)
	}
	if !ctx.Halted() {
		t.Error("SendError should halt the run")
	}

	var e httperr.Error
	if err := json.Unmarshal([]byte(res.body.String()), &e); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if e.Code == "" || e.Message == "" {
		t.Errorf("expected normalized code/message, got %+v", e)
	}
	if e.Details["k"] != "v" {
		t.Errorf("details = %v, want k=v carried through", e.Details)
	}
}

func TestRespond_OkWritesJSONValue(t *testing.T) {
	ctx, res := newTestContext()

	r := result.Ok(map[string]int{"count": 3})
	if err := pipeline.Respond(ctx, 200, r); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if res.status != 200 {
		t.Errorf("status = %d, want 200", res.status)
	}
	if ctx.Halted() {
		t.Error("successful Respond should not halt")
	}

	var m map[string]int
	if err := json.Unmarshal([]byte(res.body.String()), &m); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if m["count"] != 3 {
		t.Errorf("count = %d, want 3", m["count"])
	}
}

func TestRespond_ErrDelegatesToSendError(t *testing.T) {
	ctx, res := newTestContext()

	r := result.Fail[string](httperr.NotFound("no such widget"))
	if err := pipeline.Respond(ctx, 200, r); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if res.status != 404 {
		t.Errorf("status = %d, want 404", res.status)
	}
	if !ctx.Halted() {
		t.Error("error Respond should halt the run")
	}
}
