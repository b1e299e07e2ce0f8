package middleware

import (
	"github.com/google/uuid"

	"github.com/vixgo/conduit/pipeline"
)

// RequestID is the typed state attached by the RequestID middleware.
type RequestID struct {
	Value string
}

// RequestIDOptions configures the RequestID middleware.
type RequestIDOptions struct {
	// HeaderName carries the id on request and response. Default "X-Request-Id".
	HeaderName string

	// RejectIncoming ignores any incoming id and always generates one.
	RejectIncoming bool

	// OmitResponseHeader suppresses echoing the id on the response.
	OmitResponseHeader bool
}

func (o RequestIDOptions) withDefaults() RequestIDOptions {
	if o.HeaderName == "" {
		o.HeaderName = "X-Request-Id"
	}
	return o
}

// ValidRequestID reports whether s is acceptable as an externally supplied
// request id: 8..128 characters of [A-Za-z0-9._:-]. Anything else is
// replaced to keep log lines and headers injection-free.
func ValidRequestID(s string) bool {
	if len(s) < 8 || len(s) > 128 {
		return false
	}
	for _, c := range []byte(s) {
		ok := (c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.' || c == ':'
		if !ok {
			return false
		}
	}
	return true
}

// NewRequestIDMiddleware returns a middleware that ensures every request has
// an id: a well-formed incoming header value is kept, otherwise a fresh uuid
// is generated. The id is stored as RequestID state and echoed on the
// response header.
func NewRequestIDMiddleware(opt RequestIDOptions) pipeline.Middleware {
	opt = opt.withDefaults()

	return func(c *pipeline.Context, next *pipeline.Next) {
		id := ""
		if !opt.RejectIncoming {
			if incoming := c.Req().Header(opt.HeaderName); ValidRequestID(incoming) {
				id = incoming
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		pipeline.SetState(c, RequestID{Value: id})

		if !opt.OmitResponseHeader {
			c.Res().SetHeader(opt.HeaderName, id)
		}

		next.Call()
	}
}
