package httperr_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/vixgo/conduit/domain/httperr"
)

func TestClampStatus(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 500},
		{99, 500},
		{100, 100},
		{404, 404},
		{599, 599},
		{600, 500},
		{999, 500},
		{-1, 500},
	}

	for _, c := range cases {
		if got := httperr.ClampStatus(c.in); got != c.want {
			t.Errorf("ClampStatus(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestNormalize_ClampsOutOfRangeStatus(t *testing.T) {
	e := httperr.Normalize(httperr.Error{Status: 999})

	if e.Status != 500 {
		t.Errorf("status = %d, want 500", e.Status)
	}
}

func TestNormalize_FillsEmptyCodeAndMessage(t *testing.T) {
	e := httperr.Normalize(httperr.Error{Status: 404})

	if e.Code == "" {
		t.Error("expected non-empty code")
	}
	if e.Message == "" {
		t.Error("expected non-empty message")
	}
}

func TestNormalize_KeepsValidFields(t *testing.T) {
	in := httperr.Error{Status: 404, Code: "not_found", Message: "gone"}
	e := httperr.Normalize(in)

	if !reflect.DeepEqual(e, in) {
		t.Errorf("normalize changed a valid error: %+v", e)
	}
}

func TestConstructors_StatusCodePairs(t *testing.T) {
	cases := []struct {
		err    httperr.Error
		status int
		code   string
	}{
		{httperr.BadRequest(""), 400, "bad_request"},
		{httperr.Unauthorized(""), 401, "unauthorized"},
		{httperr.Forbidden(""), 403, "forbidden"},
		{httperr.NotFound(""), 404, "not_found"},
		{httperr.Conflict(""), 409, "conflict"},
		{httperr.TooManyRequests(""), 429, "rate_limited"},
		{httperr.Internal(""), 500, "internal_server_error"},
	}

	for _, c := range cases {
		if c.err.Status != c.status {
			t.Errorf("%s: status = %d, want %d", c.code, c.err.Status, c.status)
		}
		if c.err.Code != c.code {
			t.Errorf("code = %q, want %q", c.err.Code, c.code)
		}
		if c.err.Message == "" {
			t.Errorf("%s: expected default message", c.code)
		}
	}
}

func TestConstructors_MessageOverride(t *testing.T) {
	e := httperr.NotFound("no such route")

	if e.Message != "no such route" {
		t.Errorf("message = %q, want %q", e.Message, "no such route")
	}
}

func TestError_ImplementsError(t *testing.T) {
	var err error = httperr.TooManyRequests("")

	if !strings.Contains(err.Error(), "rate_limited") {
		t.Errorf("Error() = %q, want it to contain the code", err.Error())
	}
}

func TestWithDetail_DoesNotMutateReceiver(t *testing.T) {
	base := httperr.BadRequest("nope").WithDetail("field", "name")
	other := base.WithDetail("field", "email")

	if base.Details["field"] != "name" {
		t.Errorf("base detail = %q, want %q", base.Details["field"], "name")
	}
	if other.Details["field"] != "email" {
		t.Errorf("other detail = %q, want %q", other.Details["field"], "email")
	}
}

func TestError_JSONShape(t *testing.T) {
	e := httperr.TooManyRequests("").WithDetail("key", "1.2.3.4")

	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if m["status"] != float64(429) {
		t.Errorf("status = %v, want 429", m["status"])
	}
	if m["code"] != "rate_limited" {
		t.Errorf("code = %v, want rate_limited", m["code"])
	}
	if _, ok := m["details"]; !ok {
		t.Error("expected details to be present")
	}
}

func TestError_JSONOmitsEmptyDetails(t *testing.T) {
	b, err := json.Marshal(httperr.NotFound(""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if strings.Contains(string(b), "details") {
		t.Errorf("expected details to be omitted, got %s", b)
	}
}
