// Package middleware provides the built-in pipeline units: rate limiting,
// panic recovery, request ids, timing, and request logging. Each is an
// ordinary Middleware constructor; none is special to the engine.
package middleware

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/vixgo/conduit/domain/bucket"
	"github.com/vixgo/conduit/domain/httperr"
	"github.com/vixgo/conduit/pipeline"
	"github.com/vixgo/conduit/ports"
)

// RateLimitOptions configures the RateLimit middleware.
type RateLimitOptions struct {
	// Capacity is the token bucket capacity (max burst). Default 60.
	Capacity float64

	// RefillPerSec is the refill rate in tokens per second. Default 1.
	RefillPerSec float64

	// OmitHeaders suppresses the informational X-RateLimit-* headers.
	OmitHeaders bool

	// KeyHeader derives the default client key. Default "X-Forwarded-For"
	// (first CSV entry is the original client behind proxies).
	KeyHeader string

	// KeyFn overrides key derivation entirely when set.
	KeyFn func(ports.Request) string

	// State is the limiter state used when none is provided via Services.
	// When nil, the middleware instance owns a private state, so two
	// RateLimit instances never share buckets by accident.
	State *LimiterState
}

func (o RateLimitOptions) withDefaults() RateLimitOptions {
	if o.Capacity == 0 {
		o.Capacity = 60
	}
	if o.RefillPerSec == 0 {
		o.RefillPerSec = 1
	}
	if o.KeyHeader == "" {
		o.KeyHeader = "X-Forwarded-For"
	}
	return o
}

// LimiterState holds per-key token buckets shared across requests.
// Provide one into Services to share buckets between several pipelines, or
// between the middleware and an admin surface that inspects them.
type LimiterState struct {
	mu      sync.Mutex
	buckets map[string]*bucket.TokenBucket
}

// NewLimiterState creates an empty limiter state.
func NewLimiterState() *LimiterState {
	return &LimiterState{buckets: make(map[string]*bucket.TokenBucket)}
}

// Bucket returns the token bucket for key, creating it with the given
// parameters on first use. The state mutex is held only for the map access;
// the bucket synchronizes its own arithmetic.
func (s *LimiterState) Bucket(key string, capacity, refillPerSec float64) *bucket.TokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		b = bucket.New(capacity, refillPerSec)
		s.buckets[key] = b
	}
	return b
}

// Len returns the number of tracked keys.
func (s *LimiterState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// FirstCSVToken returns the first comma-separated entry of s, trimmed.
// X-Forwarded-For lists the original client first.
func FirstCSVToken(s string) string {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// ClientKey derives the rate limit key for a request: the first CSV token of
// the configured header, then X-Real-IP, then "anonymous".
func ClientKey(req ports.Request, keyHeader string) string {
	if k := FirstCSVToken(req.Header(keyHeader)); k != "" {
		return k
	}
	if k := strings.TrimSpace(req.Header("X-Real-IP")); k != "" {
		return k
	}
	return "anonymous"
}

// RateLimit returns a middleware limiting requests per client key with a
// token bucket.
//
// State resolution order: a *LimiterState provided via Services, then
// Options.State, then a private state owned by this middleware instance.
// There is no process-wide fallback; whoever composes the pipeline decides
// what is shared.
//
// On rejection the middleware sends a 429 rate_limited error with the key in
// details and sets Retry-After; when headers are enabled it also maintains
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset.
func RateLimit(opt RateLimitOptions) pipeline.Middleware {
	opt = opt.withDefaults()
	own := NewLimiterState()

	return func(c *pipeline.Context, next *pipeline.Next) {
		st, ok := pipeline.Lookup[*LimiterState](c.Services())
		if !ok {
			if opt.State != nil {
				st = opt.State
			} else {
				st = own
			}
		}

		var key string
		if opt.KeyFn != nil {
			key = opt.KeyFn(c.Req())
		} else {
			key = ClientKey(c.Req(), opt.KeyHeader)
		}

		b := st.Bucket(key, opt.Capacity, opt.RefillPerSec)

		if !b.TryConsume(1) {
			wait := b.RetryAfter(1)
			secs := int64(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}

			c.Res().SetHeader("Retry-After", strconv.FormatInt(secs, 10))
			if !opt.OmitHeaders {
				c.Res().SetHeader("X-RateLimit-Limit", strconv.FormatInt(int64(opt.Capacity), 10))
				c.Res().SetHeader("X-RateLimit-Remaining", "0")
				c.Res().SetHeader("X-RateLimit-Reset", strconv.FormatInt(secs, 10))
			}

			c.SendError(httperr.TooManyRequests("").WithDetail("key", key))
			return
		}

		if !opt.OmitHeaders {
			c.Res().SetHeader("X-RateLimit-Limit", strconv.FormatInt(int64(opt.Capacity), 10))
			c.Res().SetHeader("X-RateLimit-Remaining", strconv.FormatInt(int64(b.Tokens()), 10))
		}

		next.Call()
	}
}
