// Package httperr provides the error value type middleware use to report
// failures without panicking for expected conditions.
// All functions are pure - same input always produces same output.
package httperr

import "fmt"

// Error is a tagged, user-facing failure (value type).
// It is immutable by convention: construct it fully, then pass it around.
type Error struct {
	Status  int               `json:"status"`            // HTTP status code
	Code    string            `json:"code"`              // short machine-readable tag
	Message string            `json:"message"`           // human readable description
	Details map[string]string `json:"details,omitempty"` // structured context
}

// Error implements the error interface.
func (e Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// WithDetail returns a copy of e with one extra detail entry.
// The receiver is not modified.
func (e Error) WithDetail(key, value string) Error {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// Defaults used by Normalize when a field is empty.
const (
	DefaultCode    = "error"
	DefaultMessage = "Error"
)

// ClampStatus forces status into the valid HTTP range.
// Anything outside [100, 599] becomes 500.
func ClampStatus(status int) int {
	if status < 100 || status > 599 {
		return 500
	}
	return status
}

// Normalize is the single chokepoint that guarantees every Error leaving the
// system has a valid HTTP-range status and non-empty code/message.
func Normalize(e Error) Error {
	e.Status = ClampStatus(e.Status)
	if e.Code == "" {
		e.Code = DefaultCode
	}
	if e.Message == "" {
		e.Message = DefaultMessage
	}
	return e
}

// -----------------------------------------------------------------------------
// Convenience constructors
//
// These fix the (status, code) pairing for common cases. Middleware should
// prefer them over hand-rolling an Error to keep codes consistent.
// -----------------------------------------------------------------------------

// BadRequest returns a 400 error.
func BadRequest(message string) Error {
	return withDefault(400, "bad_request", message, "Bad Request")
}

// Unauthorized returns a 401 error.
func Unauthorized(message string) Error {
	return withDefault(401, "unauthorized", message, "Unauthorized")
}

// Forbidden returns a 403 error.
func Forbidden(message string) Error {
	return withDefault(403, "forbidden", message, "Forbidden")
}

// NotFound returns a 404 error.
func NotFound(message string) Error {
	return withDefault(404, "not_found", message, "Not Found")
}

// Conflict returns a 409 error.
func Conflict(message string) Error {
	return withDefault(409, "conflict", message, "Conflict")
}

// TooManyRequests returns a 429 error.
func TooManyRequests(message string) Error {
	return withDefault(429, "rate_limited", message, "Too Many Requests")
}

// Internal returns a 500 error.
func Internal(message string) Error {
	return withDefault(500, "internal_server_error", message, "Internal Server Error")
}

func withDefault(status int, code, message, fallback string) Error {
	if message == "" {
		message = fallback
	}
	return Error{Status: status, Code: code, Message: message}
}
