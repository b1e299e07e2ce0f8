// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import "time"

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// -----------------------------------------------------------------------------
// Transport Ports
//
// The pipeline consumes request/response objects it never constructs. The
// wire-level transport (listener, socket I/O, header parsing) owns them;
// adapters/stdhttp bridges them from net/http.
// -----------------------------------------------------------------------------

// Request is the inbound half of a request/response pair.
type Request interface {
	// Method returns the HTTP method (GET, POST, ...).
	Method() string

	// Path returns the request path.
	Path() string

	// Query returns the raw query string.
	Query() string

	// Header returns the first value for a header, or "" when absent.
	// Lookup is case-insensitive.
	Header(name string) string

	// Headers returns all request headers with canonicalized names.
	// Callers must not mutate the returned map.
	Headers() map[string][]string

	// Body returns the raw request body.
	Body() []byte

	// RemoteAddr returns the peer address as seen by the transport.
	RemoteAddr() string
}

// Response is the outbound half of a request/response pair.
type Response interface {
	// Status returns the status code set so far (0 if none).
	Status() int

	// SetStatus sets the response status code.
	SetStatus(status int)

	// SetHeader sets a header, replacing any existing values.
	SetHeader(name, value string)

	// AddHeader appends a header value.
	AddHeader(name, value string)

	// Header returns the first value set for a header, or "".
	Header(name string) string

	// Write appends bytes to the response body.
	Write(p []byte) (int, error)

	// BytesWritten returns the body size accumulated so far.
	BytesWritten() int

	// Finalize recomputes framing metadata (such as Content-Length) and
	// flushes the buffered response to the transport. Called once by the
	// composing root after the pipeline returns.
	Finalize() error
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// MetricsSink receives counters and duration observations from hooks.
type MetricsSink interface {
	// IncCounter adds value to the named counter.
	IncCounter(name string, labels map[string]string, value uint64)

	// ObserveDuration records one duration observation in milliseconds.
	ObserveDuration(name string, ms float64, labels map[string]string)
}

// TraceSink receives debug trace lines.
type TraceSink interface {
	Log(line string)
}
