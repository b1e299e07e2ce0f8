// Package stdhttp bridges net/http to the pipeline's transport ports.
//
// The engine never parses wire bytes itself; this adapter wraps an incoming
// *http.Request as a ports.Request and buffers the outgoing response so
// middleware can set status and headers in any order. Finalize flushes the
// buffer to the underlying http.ResponseWriter exactly once, with the
// framing recomputed by net/http from the buffered body.
package stdhttp

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/vixgo/conduit/pipeline"
	"github.com/vixgo/conduit/ports"
)

// maxBodyBytes caps how much of a request body is read into memory.
const maxBodyBytes = 10 << 20 // 10MB

// Request adapts *http.Request to ports.Request.
type Request struct {
	r    *http.Request
	body []byte
}

// NewRequest wraps r, reading and retaining its body (capped at 10MB).
func NewRequest(r *http.Request) (*Request, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
	}
	return &Request{r: r, body: body}, nil
}

func (a *Request) Method() string { return a.r.Method }
func (a *Request) Path() string   { return a.r.URL.Path }
func (a *Request) Query() string  { return a.r.URL.RawQuery }

func (a *Request) Header(name string) string {
	return a.r.Header.Get(name)
}

func (a *Request) Headers() map[string][]string {
	return a.r.Header
}

func (a *Request) Body() []byte       { return a.body }
func (a *Request) RemoteAddr() string { return a.r.RemoteAddr }

// Std returns the wrapped *http.Request for handlers that need the full
// net/http surface (context, TLS state, trailers).
func (a *Request) Std() *http.Request { return a.r }

// Response adapts http.ResponseWriter to ports.Response with buffering.
type Response struct {
	w         http.ResponseWriter
	status    int
	body      bytes.Buffer
	finalized bool
}

// NewResponse wraps w.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

func (a *Response) Status() int          { return a.status }
func (a *Response) SetStatus(status int) { a.status = status }

func (a *Response) SetHeader(name, value string) {
	a.w.Header().Set(name, value)
}

func (a *Response) AddHeader(name, value string) {
	a.w.Header().Add(name, value)
}

func (a *Response) Header(name string) string {
	return a.w.Header().Get(name)
}

func (a *Response) Write(p []byte) (int, error) {
	return a.body.Write(p)
}

func (a *Response) BytesWritten() int { return a.body.Len() }

// Finalize writes the buffered status and body to the transport.
// Calling it twice is an error; a response goes out once.
func (a *Response) Finalize() error {
	if a.finalized {
		return fmt.Errorf("stdhttp: response already finalized")
	}
	a.finalized = true

	status := a.status
	if status == 0 {
		status = http.StatusOK
	}

	a.w.WriteHeader(status)
	if a.body.Len() > 0 {
		if _, err := a.w.Write(a.body.Bytes()); err != nil {
			return fmt.Errorf("write response body: %w", err)
		}
	}
	return nil
}

// Handler runs p for every request, with final as the terminal handler,
// and finalizes the response. It satisfies http.HandlerFunc so a pipeline
// can be mounted on any net/http router.
func Handler(p *pipeline.Pipeline, final pipeline.Final) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := NewRequest(r)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		res := NewResponse(w)
		p.Run(req, res, final)
		res.Finalize()
	}
}

var (
	_ ports.Request  = (*Request)(nil)
	_ ports.Response = (*Response)(nil)
)
