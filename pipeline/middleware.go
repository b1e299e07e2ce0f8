package pipeline

import "github.com/vixgo/conduit/ports"

// Middleware is one unit of the chain. It may read or mutate the Context,
// look up Services, and decide whether processing continues by calling next.
type Middleware func(c *Context, next *Next)

// HTTPMiddleware is the legacy unit shape that takes the raw request and
// response instead of a Context.
type HTTPMiddleware func(req ports.Request, res ports.Response, next *Next)

// FromHTTP adapts a legacy unit to the Middleware shape.
func FromHTTP(legacy HTTPMiddleware) Middleware {
	return func(c *Context, next *Next) {
		legacy(c.Req(), c.Res(), next)
	}
}

// Final is the terminal handler that runs when the chain is exhausted
// without a short-circuit.
type Final func(req ports.Request, res ports.Response)

// Noop returns a middleware that only advances the chain.
func Noop() Middleware {
	return func(_ *Context, next *Next) {
		next.Call()
	}
}

// UseIf returns mw when enabled, and a no-op otherwise. It keeps a fixed
// pipeline wiring readable when individual units are toggled by config.
func UseIf(enabled bool, mw Middleware) Middleware {
	if enabled {
		return mw
	}
	return Noop()
}
