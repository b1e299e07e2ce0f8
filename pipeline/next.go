// Package pipeline implements the middleware pipeline execution engine:
// the exactly-once Next continuation, begin/end/error lifecycle hooks, the
// per-request Context with typed state, the Services registry, and the
// Pipeline that drives an ordered middleware chain over one request.
package pipeline

// Next is a single-use continuation representing "the rest of the pipeline".
//
// Calling it invokes the wrapped function at most once: middleware authors
// routinely call next() and then fall through to more code, and a second
// accidental call must not double-execute downstream logic. Redundant calls
// are silent no-ops rather than errors.
type Next struct {
	fn     func()
	called bool
}

// NewNext wraps a zero-argument continuation.
func NewNext(fn func()) *Next {
	return &Next{fn: fn}
}

// TryCall invokes the continuation if it has not fired yet and reports
// whether this specific invocation actually fired.
func (n *Next) TryCall() bool {
	if n.called {
		return false
	}
	n.called = true
	if n.fn != nil {
		n.fn()
	}
	return true
}

// Call invokes the continuation, silently ignoring redundant calls.
func (n *Next) Call() {
	n.TryCall()
}

// Called reports whether the continuation has fired.
func (n *Next) Called() bool {
	return n.called
}
