package pipeline

import (
	"encoding/json"
	"reflect"

	"github.com/vixgo/conduit/domain/httperr"
	"github.com/vixgo/conduit/domain/result"
	"github.com/vixgo/conduit/ports"
)

// Context ties together one request, one response, and one Services registry
// for the lifetime of a single pipeline run. It owns no request data itself;
// it is a non-owning view, valid only for the duration of Run.
//
// Arbitrary per-request state is attached keyed by type identity through the
// generic State/SetState helpers, so middleware can pass data downstream
// without the request type knowing about every possible middleware.
type Context struct {
	req      ports.Request
	res      ports.Response
	services *Services

	state  map[reflect.Type]any
	halted bool
}

// NewContext builds a per-request context.
// The engine calls this once per Run; tests may build one directly.
func NewContext(req ports.Request, res ports.Response, services *Services) *Context {
	return &Context{
		req:      req,
		res:      res,
		services: services,
		state:    make(map[reflect.Type]any),
	}
}

// Req returns the request.
func (c *Context) Req() ports.Request { return c.req }

// Res returns the response.
func (c *Context) Res() ports.Response { return c.res }

// Services returns the registry shared by all requests of this pipeline.
func (c *Context) Services() *Services { return c.services }

// Halted reports whether SendError ended this run.
// The engine refuses to advance the chain past a halted context.
func (c *Context) Halted() bool { return c.halted }

// SendText writes a plain text response with the given status.
func (c *Context) SendText(status int, text string) {
	c.res.SetStatus(status)
	c.res.SetHeader("Content-Type", "text/plain; charset=utf-8")
	c.res.Write([]byte(text))
}

// SendJSON marshals v as the response body with the given status.
func (c *Context) SendJSON(status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.res.SetStatus(status)
	c.res.SetHeader("Content-Type", "application/json")
	c.res.Write(b)
	return nil
}

// SendError reports a user-facing failure: it normalizes err, writes its
// status/code/message/details as a JSON body, and sets the response status.
//
// SendError is a terminal action. It marks the run as halted, so a subsequent
// next() in the same middleware is a no-op instead of handing an already
// finalized response to downstream units.
func (c *Context) SendError(err httperr.Error) {
	err = httperr.Normalize(err)
	c.SendJSON(err.Status, err)
	c.halted = true
}

// Respond writes r as a response: the value as a JSON body with the given
// status when r succeeded, its error through SendError otherwise. Handlers
// that compute a Result can end the run with a single call.
func Respond[T any](c *Context, status int, r result.Result[T]) error {
	if r.IsErr() {
		c.SendError(r.Err())
		return nil
	}
	return c.SendJSON(status, r.Value())
}

// HasState reports whether a value of type T is attached to the request.
func HasState[T any](c *Context) bool {
	_, ok := c.state[typeOf[T]()]
	return ok
}

// State returns the attached value of type T, or ok == false when absent.
func State[T any](c *Context) (T, bool) {
	v, ok := c.state[typeOf[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// MustState returns the attached value of type T.
// Asking for state that was never set is a programming error and panics.
func MustState[T any](c *Context) T {
	v, ok := State[T](c)
	if !ok {
		panic("pipeline: no state of type " + typeOf[T]().String())
	}
	return v
}

// SetState attaches value to the request keyed by its type.
// At most one live value per type: a second SetState for the same type
// overwrites the previous one.
func SetState[T any](c *Context, value T) {
	c.state[typeOf[T]()] = value
}
