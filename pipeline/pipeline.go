package pipeline

import (
	"fmt"

	"github.com/vixgo/conduit/domain/httperr"
	"github.com/vixgo/conduit/ports"
)

// Pipeline owns an ordered list of middleware, a Services registry, and a
// Hooks value, and executes the chain once per request.
//
// Mutation (Use, Clear, SetHooks, Provide into Services) belongs to startup
// wiring; once traffic begins, a Pipeline is shared read-only across
// concurrent Run calls, each with its own Context.
type Pipeline struct {
	services    *Services
	hooks       Hooks
	middlewares []Middleware
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{services: NewServices()}
}

// Services returns the registry for startup-time wiring.
func (p *Pipeline) Services() *Services { return p.services }

// Hooks returns the currently installed lifecycle hooks.
func (p *Pipeline) Hooks() Hooks { return p.hooks }

// SetHooks replaces the lifecycle hooks.
func (p *Pipeline) SetHooks(h Hooks) *Pipeline {
	p.hooks = h
	return p
}

// Use appends one middleware unit. Middleware run in registration order on
// the way in; code after their next() call runs in reverse order.
func (p *Pipeline) Use(mw Middleware) *Pipeline {
	p.middlewares = append(p.middlewares, mw)
	return p
}

// UseHTTP appends a legacy-style unit, auto-adapted.
func (p *Pipeline) UseHTTP(legacy HTTPMiddleware) *Pipeline {
	return p.Use(FromHTTP(legacy))
}

// Len returns the number of installed middleware.
func (p *Pipeline) Len() int { return len(p.middlewares) }

// Clear removes all installed middleware.
func (p *Pipeline) Clear() {
	p.middlewares = nil
}

// Run executes the chain once for a request/response pair.
//
// One Context is built for the whole run. OnBegin fires, then the chain is
// walked through exactly-once Next continuations: the engine advances from
// middleware i to i+1 only when i's continuation is invoked. If a middleware
// never calls next, the chain halts there, the final handler never runs, and
// OnEnd still fires because no failure escaped.
//
// A panic escaping any middleware or the final handler fires OnError exactly
// once with a manufactured 500 Error carrying the panic text, then the
// original panic value is re-raised unchanged to the caller. The engine never
// swallows an unhandled failure; installing a recovery middleware early in
// the chain is the way to turn one into a clean response.
func (p *Pipeline) Run(req ports.Request, res ports.Response, final Final) {
	ctx := NewContext(req, res, p.services)

	if p.hooks.OnBegin != nil {
		p.hooks.OnBegin(ctx)
	}

	n := len(p.middlewares)
	idx := 0

	var step func()
	step = func() {
		if ctx.halted {
			return
		}

		if idx >= n {
			if final != nil {
				final(req, res)
			}
			return
		}

		mw := p.middlewares[idx]
		idx++

		mw(ctx, NewNext(step))
	}

	defer func() {
		if r := recover(); r != nil {
			if p.hooks.OnError != nil {
				err := httperr.Error{
					Status:  500,
					Code:    "unhandled_panic",
					Message: "Unhandled panic escaped middleware pipeline",
					Details: map[string]string{"panic": fmt.Sprint(r)},
				}
				p.hooks.OnError(ctx, httperr.Normalize(err))
			}
			panic(r)
		}
	}()

	step()

	// Only reached when no panic escaped.
	if p.hooks.OnEnd != nil {
		p.hooks.OnEnd(ctx)
	}
}

// Wrap folds a pipeline around a plain handler, producing a function the
// transport can invoke per request.
func Wrap(handler Final, p *Pipeline) func(ports.Request, ports.Response) {
	return func(req ports.Request, res ports.Response) {
		p.Run(req, res, handler)
	}
}
