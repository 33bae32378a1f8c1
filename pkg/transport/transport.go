// Package transport defines the request/response seam between the game
// client runtime and the remote server, plus a default net/http
// implementation.
package transport

import (
	"context"
	"net/http"
)

// Common header and content type values used by the client runtime.
const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
	HeaderRequestID     = "X-Request-ID"

	ContentTypeJSON   = "application/json"
	ContentTypeBinary = "application/octet-stream"
)

// Request is a single outbound call. Body is already encoded (and encrypted
// when encryption is enabled).
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// NewRequest builds a Request with an initialised header map.
func NewRequest(method, url string, body []byte) *Request {
	if method == "" {
		method = http.MethodGet
	}
	return &Request{
		Method:  method,
		URL:     url,
		Headers: make(map[string]string),
		Body:    body,
	}
}

// SetHeader sets a header, allocating the map if required.
func (r *Request) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
}

// Transport sends a request and returns the raw success body.
//
// Implementations must fail with *StatusError for non-2xx responses, with
// *ConnError when no response was received, and with the context's error
// when ctx ended first.
type Transport interface {
	Send(ctx context.Context, req *Request) ([]byte, error)
}

// Func adapts an ordinary function to the Transport interface.
type Func func(ctx context.Context, req *Request) ([]byte, error)

// Send calls f(ctx, req).
func (f Func) Send(ctx context.Context, req *Request) ([]byte, error) {
	return f(ctx, req)
}
