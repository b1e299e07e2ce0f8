package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/vixgo/conduit/pipeline"
	"github.com/vixgo/conduit/ports"
)

// Timing is the typed state attached by the Timing middleware.
type Timing struct {
	Total time.Duration
}

// TimingOptions configures the Timing middleware.
type TimingOptions struct {
	// OmitResponseTime suppresses the X-Response-Time header.
	OmitResponseTime bool

	// OmitServerTiming suppresses the Server-Timing header.
	OmitServerTiming bool

	// Metric names the Server-Timing entry. Default "total".
	Metric string

	// Clock supplies the time source. Defaults to the wall clock.
	Clock ports.Clock
}

func (o TimingOptions) withDefaults() TimingOptions {
	if o.Metric == "" {
		o.Metric = "total"
	}
	if o.Clock == nil {
		o.Clock = wallClock{}
	}
	return o
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// NewTimingMiddleware returns a middleware that measures the downstream
// duration, stores it as Timing state, and reports it through the
// X-Response-Time and Server-Timing response headers.
func NewTimingMiddleware(opt TimingOptions) pipeline.Middleware {
	opt = opt.withDefaults()

	return func(c *pipeline.Context, next *pipeline.Next) {
		t0 := opt.Clock.Now()

		next.Call()

		total := opt.Clock.Now().Sub(t0)
		pipeline.SetState(c, Timing{Total: total})

		ms := total.Milliseconds()
		if !opt.OmitResponseTime {
			c.Res().SetHeader("X-Response-Time", strconv.FormatInt(ms, 10)+"ms")
		}
		if !opt.OmitServerTiming {
			c.Res().SetHeader("Server-Timing", fmt.Sprintf("%s;dur=%d", opt.Metric, ms))
		}
	}
}
