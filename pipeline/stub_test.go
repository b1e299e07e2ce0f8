package pipeline_test

import (
	"net/textproto"
	"strings"
)

// stubRequest implements ports.Request for engine tests.
type stubRequest struct {
	method  string
	path    string
	query   string
	headers map[string][]string
	body    []byte
	remote  string
}

func newStubRequest(method, path string) *stubRequest {
	return &stubRequest{
		method:  method,
		path:    path,
		headers: make(map[string][]string),
		remote:  "192.0.2.1:1234",
	}
}

func (r *stubRequest) setHeader(name, value string) {
	r.headers[textproto.CanonicalMIMEHeaderKey(name)] = []string{value}
}

func (r *stubRequest) Method() string { return r.method }
func (r *stubRequest) Path() string   { return r.path }
func (r *stubRequest) Query() string  { return r.query }

func (r *stubRequest) Header(name string) string {
	vs := r.headers[textproto.CanonicalMIMEHeaderKey(name)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

func (r *stubRequest) Headers() map[string][]string { return r.headers }

func (r *stubRequest) Body() []byte       { return r.body }
func (r *stubRequest) RemoteAddr() string { return r.remote }

// stubResponse implements ports.Response for engine tests.
type stubResponse struct {
	status    int
	headers   map[string][]string
	body      strings.Builder
	finalized bool
}

func newStubResponse() *stubResponse {
	return &stubResponse{headers: make(map[string][]string)}
}

func (w *stubResponse) Status() int          { return w.status }
func (w *stubResponse) SetStatus(status int) { w.status = status }

func (w *stubResponse) SetHeader(name, value string) {
	w.headers[textproto.CanonicalMIMEHeaderKey(name)] = []string{value}
}

func (w *stubResponse) AddHeader(name, value string) {
	key := textproto.CanonicalMIMEHeaderKey(name)
	w.headers[key] = append(w.headers[key], value)
}

func (w *stubResponse) Header(name string) string {
	vs := w.headers[textproto.CanonicalMIMEHeaderKey(name)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

func (w *stubResponse) Write(p []byte) (int, error) {
	return w.body.Write(p)
}

func (w *stubResponse) BytesWritten() int { return w.body.Len() }

func (w *stubResponse) Finalize() error {
	w.finalized = true
	return nil
}
