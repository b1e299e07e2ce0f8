// Package result provides a two-variant outcome type: a value XOR an error.
// It is used by helpers that need to return either branch without panicking;
// callers must explicitly bridge a Result into the pipeline's error channel.
package result

import "github.com/vixgo/conduit/domain/httperr"

// Result holds either a value of type T or an httperr.Error, never both.
// The zero value is an error Result; build real values through Ok and Fail.
type Result[T any] struct {
	value T
	err   httperr.Error
	ok    bool
}

// Ok returns a success Result wrapping value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Fail returns an error Result. The error is normalized on the way in so the
// error branch always carries a valid status and non-empty code/message.
func Fail[T any](err httperr.Error) Result[T] {
	return Result[T]{err: httperr.Normalize(err), ok: false}
}

// Failf builds the error from its parts and returns an error Result.
func Failf[T any](status int, code, message string) Result[T] {
	return Fail[T](httperr.Error{Status: status, Code: code, Message: message})
}

// IsOK reports whether the Result holds a value.
func (r Result[T]) IsOK() bool { return r.ok }

// IsErr reports whether the Result holds an error.
func (r Result[T]) IsErr() bool { return !r.ok }

// Value returns the success value.
// Calling Value on an error Result is a programming error and panics.
func (r Result[T]) Value() T {
	if !r.ok {
		panic("result: Value called on error result: " + r.err.Error())
	}
	return r.value
}

// Err returns the error.
// Calling Err on a success Result is a programming error and panics.
func (r Result[T]) Err() httperr.Error {
	if r.ok {
		panic("result: Err called on ok result")
	}
	return r.err
}

// ValueOr returns the success value, or fallback when the Result is an error.
func (r Result[T]) ValueOr(fallback T) T {
	if r.ok {
		return r.value
	}
	return fallback
}

// Void is the value type for results that carry no payload.
type Void = struct{}

// OkVoid returns a success Result with no payload.
func OkVoid() Result[Void] {
	return Ok(Void{})
}

// FailVoid returns an error Result with no payload.
func FailVoid(err httperr.Error) Result[Void] {
	return Fail[Void](err)
}
