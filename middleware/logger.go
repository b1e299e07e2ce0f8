package middleware

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/vixgo/conduit/pipeline"
)

// LoggerOptions configures the Logger middleware.
type LoggerOptions struct {
	// Logger receives one event per request. When zero, a *zerolog.Logger
	// from Services is used; with neither, the middleware is a no-op.
	Logger *zerolog.Logger
}

// Logger returns a middleware that emits one structured log line per request
// with method, path, status, duration, and the request id when the RequestID
// middleware ran upstream.
func Logger(opt LoggerOptions) pipeline.Middleware {
	return func(c *pipeline.Context, next *pipeline.Next) {
		log := opt.Logger
		if log == nil {
			if fromServices, ok := pipeline.Lookup[*zerolog.Logger](c.Services()); ok {
				log = fromServices
			}
		}
		if log == nil {
			next.Call()
			return
		}

		t0 := time.Now()

		next.Call()

		ev := log.Info().
			Str("method", c.Req().Method()).
			Str("path", c.Req().Path()).
			Int("status", c.Res().Status()).
			Dur("duration", time.Since(t0)).
			Int("bytes", c.Res().BytesWritten())

		if id, ok := pipeline.State[RequestID](c); ok {
			ev = ev.Str("request_id", id.Value)
		}

		ev.Msg("request")
	}
}
