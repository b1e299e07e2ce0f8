package middleware

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vixgo/conduit/domain/httperr"
	"github.com/vixgo/conduit/pipeline"
)

// RecoveryOptions configures the Recovery middleware.
type RecoveryOptions struct {
	// IncludePanicValue copies the panic text into the error details.
	// Keep it off in production; panic values can leak internals.
	IncludePanicValue bool

	// Code for the generated error. Default "internal_server_error".
	Code string

	// Message for the generated error. Default "Internal Server Error".
	Message string
}

func (o RecoveryOptions) withDefaults() RecoveryOptions {
	if o.Code == "" {
		o.Code = "internal_server_error"
	}
	if o.Message == "" {
		o.Message = "Internal Server Error"
	}
	return o
}

// Recovery returns a middleware that converts a panic escaping downstream
// units into a clean 500 JSON response instead of letting it propagate to
// the pipeline's caller. Install it early in the chain; the engine itself
// never swallows failures.
//
// When a *zerolog.Logger is provided via Services, the panic is logged with
// the request method and path.
func Recovery(opt RecoveryOptions) pipeline.Middleware {
	opt = opt.withDefaults()

	return func(c *pipeline.Context, next *pipeline.Next) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			if log, ok := pipeline.Lookup[*zerolog.Logger](c.Services()); ok {
				log.Error().
					Str("method", c.Req().Method()).
					Str("path", c.Req().Path()).
					Str("panic", fmt.Sprint(r)).
					Msg("recovered panic in middleware chain")
			}

			err := httperr.Error{Status: 500, Code: opt.Code, Message: opt.Message}
			if opt.IncludePanicValue {
				err = err.WithDetail("panic", fmt.Sprint(r))
			}
			c.SendError(err)
		}()

		next.Call()
	}
}
