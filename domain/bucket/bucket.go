// Package bucket implements the token bucket rate limiting primitive.
//
// A bucket has a maximum capacity, refills over time at a configured rate,
// and consumption attempts drain it. All mutation happens under a single
// per-bucket mutex so concurrent requests hitting the same key never race
// on refill or consume.
package bucket

import (
	"sync"
	"time"
)

// FallbackRetryAfter is reported by RetryAfter when the bucket never refills.
// A bucket with refill rate 0 has no finite "exact" answer, so a fixed wait
// is less misleading than an unbounded one.
const FallbackRetryAfter = time.Second

// TokenBucket is a thread-safe token bucket.
//
// The zero value is an empty bucket (capacity 0, refill 0) that only allows
// non-positive consumption. Use New for a real bucket.
type TokenBucket struct {
	capacity     float64
	refillPerSec float64

	mu     sync.Mutex
	tokens float64
	last   time.Time

	now func() time.Time
}

// Option configures a TokenBucket.
type Option func(*TokenBucket)

// WithNow replaces the bucket's time source. Tests use this to drive refill
// deterministically; production code should not need it. time.Time readings
// carry Go's monotonic clock, so elapsed time is immune to wall clock jumps.
func WithNow(now func() time.Time) Option {
	return func(b *TokenBucket) {
		b.now = now
	}
}

// New creates a full token bucket.
// Negative capacity or refill rates are clamped to zero.
func New(capacity, refillPerSec float64, opts ...Option) *TokenBucket {
	b := &TokenBucket{
		capacity:     max(0, capacity),
		refillPerSec: max(0, refillPerSec),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.tokens = b.capacity
	b.last = b.now()
	return b
}

// Capacity returns the maximum token count.
func (b *TokenBucket) Capacity() float64 { return b.capacity }

// TryConsume attempts to take n tokens from the bucket.
// The bucket is refilled based on elapsed time before the attempt.
// If n <= 0 it succeeds without mutating state: a no-op consumption is
// always allowed.
func (b *TokenBucket) TryConsume(n float64) bool {
	if n <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()

	if b.tokens >= n {
		b.tokens -= n
		return true
	}
	return false
}

// Tokens returns the current token count.
// The value may be slightly stale with respect to wall time because refill
// is applied only when methods are called.
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}

// RetryAfter estimates how long until at least need tokens are available.
// Returns 0 when the bucket already holds enough, FallbackRetryAfter when the
// bucket never refills, and otherwise the refill time floored to 1ms so a
// caller never sees a zero wait while tokens are missing.
func (b *TokenBucket) RetryAfter(need float64) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()

	if b.refillPerSec <= 0 {
		return FallbackRetryAfter
	}

	if b.tokens >= need {
		return 0
	}

	missing := need - b.tokens
	d := time.Duration(missing / b.refillPerSec * float64(time.Second))
	if d < time.Millisecond {
		return time.Millisecond
	}
	return d
}

// refillLocked adds tokens for the time elapsed since the last refill,
// clamped to capacity. Caller must hold mu.
func (b *TokenBucket) refillLocked() {
	now := b.now()
	elapsed := now.Sub(b.last)
	if elapsed <= 0 {
		return
	}

	b.last = now
	b.tokens = min(b.capacity, b.tokens+elapsed.Seconds()*b.refillPerSec)
}
