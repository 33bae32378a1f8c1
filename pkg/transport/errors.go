package transport

import (
	"fmt"
	"net/http"
)

// ============================================================================
// StatusError - the server answered with a non-2xx status
// ============================================================================

// StatusError carries the raw status and body of a failed response. The body
// may be encrypted; decoding is left to the error classifier.
type StatusError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ============================================================================
// ConnError - no response was received
// ============================================================================

// ConnError reports a failure to complete the round trip (dial, reset, read
// or per-attempt timeout).
type ConnError struct {
	Op  string
	URL string
	Err error
}

// Error implements the error interface.
func (e *ConnError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying network error.
func (e *ConnError) Unwrap() error { return e.Err }
