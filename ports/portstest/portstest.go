// Package portstest provides fake Request and Response implementations for
// exercising pipelines in tests without a transport.
package portstest

import (
	"bytes"
	"net/textproto"

	"github.com/vixgo/conduit/ports"
)

// Request is a configurable fake ports.Request.
type Request struct {
	ReqMethod string
	ReqPath   string
	ReqQuery  string
	ReqBody   []byte
	Remote    string

	headers map[string][]string
}

// NewRequest creates a fake GET request for the given path.
func NewRequest(method, path string) *Request {
	return &Request{
		ReqMethod: method,
		ReqPath:   path,
		Remote:    "192.0.2.1:4711",
		headers:   make(map[string][]string),
	}
}

// SetHeader sets a request header.
func (r *Request) SetHeader(name, value string) *Request {
	r.headers[textproto.CanonicalMIMEHeaderKey(name)] = []string{value}
	return r
}

func (r *Request) Method() string { return r.ReqMethod }
func (r *Request) Path() string   { return r.ReqPath }
func (r *Request) Query() string  { return r.ReqQuery }

func (r *Request) Header(name string) string {
	vs := r.headers[textproto.CanonicalMIMEHeaderKey(name)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

func (r *Request) Headers() map[string][]string { return r.headers }

func (r *Request) Body() []byte       { return r.ReqBody }
func (r *Request) RemoteAddr() string { return r.Remote }

// Response is a buffering fake ports.Response.
type Response struct {
	StatusCode int
	Finalized  bool

	headers map[string][]string
	body    bytes.Buffer
}

// NewResponse creates an empty fake response.
func NewResponse() *Response {
	return &Response{headers: make(map[string][]string)}
}

func (w *Response) Status() int          { return w.StatusCode }
func (w *Response) SetStatus(status int) { w.StatusCode = status }

func (w *Response) SetHeader(name, value string) {
	w.headers[textproto.CanonicalMIMEHeaderKey(name)] = []string{value}
}

func (w *Response) AddHeader(name, value string) {
	key := textproto.CanonicalMIMEHeaderKey(name)
	w.headers[key] = append(w.headers[key], value)
}

func (w *Response) Header(name string) string {
	vs := w.headers[textproto.CanonicalMIMEHeaderKey(name)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

func (w *Response) Write(p []byte) (int, error) {
	return w.body.Write(p)
}

func (w *Response) BytesWritten() int { return w.body.Len() }

func (w *Response) Finalize() error {
	w.Finalized = true
	return nil
}

// BodyString returns everything written so far.
func (w *Response) BodyString() string { return w.body.String() }

var (
	_ ports.Request  = (*Request)(nil)
	_ ports.Response = (*Response)(nil)
)
