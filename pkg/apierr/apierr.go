// Package apierr classifies failed remote calls into typed API errors and
// decides which failures are worth retrying.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/arcade/pkg/transport"
)

// NoCode is the Code value of an Error whose body carried no code field.
const NoCode = -1

// DecryptFunc turns a raw (possibly encrypted) response body into text.
type DecryptFunc func([]byte) (string, error)

// ============================================================================
// Error - a classified API failure
// ============================================================================

// Error is a non-2xx response decoded into its status, message and
// application code.
type Error struct {
	// StatusCode is the HTTP status the server answered with.
	StatusCode int

	// Message is the server supplied message, empty if the body could not
	// be decoded.
	Message string

	// Code is the application (gRPC style) error code or NoCode.
	Code int

	// Details holds the decoded "error" field when present.
	Details any

	// Transient reports whether repeating the call may succeed.
	Transient bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error: HTTP %d", e.StatusCode)
	if e.Code != NoCode {
		fmt.Fprintf(&b, " code=%d", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// ============================================================================
// Classification
// ============================================================================

// IsTransientStatus reports whether an HTTP status is a transient server
// condition. Only 500, 502, 503 and 504 qualify.
func IsTransientStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Classify converts a transport failure into an *Error. Errors that are not
// status failures are returned unchanged so callers can still match context
// and connection errors with errors.Is and errors.As.
func Classify(err error, decrypt DecryptFunc) error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return err
	}

	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		return FromResponse(statusErr.StatusCode, statusErr.Body, decrypt)
	}

	return err
}

// FromResponse decodes a failed response. Decoding problems never surface as
// a second error: the result then carries an empty message and NoCode.
func FromResponse(status int, body []byte, decrypt DecryptFunc) *Error {
	e := &Error{
		StatusCode: status,
		Code:       NoCode,
		Transient:  IsTransientStatus(status),
	}

	text, ok := decodeText(body, decrypt)
	if !ok {
		return e
	}

	var payload struct {
		Message string          `json:"message"`
		Code    json.RawMessage `json:"code"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return e
	}

	e.Message = payload.Message
	e.Code = parseCode(payload.Code)

	if len(payload.Error) > 0 && string(payload.Error) != "null" {
		var details any
		if err := json.Unmarshal(payload.Error, &details); err == nil {
			e.Details = details
		}
	}

	return e
}

// IsTransient reports whether err is worth retrying. Connection failures and
// 500/502/503/504 responses are transient; context cancellation and deadline
// errors never are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Transient
	}

	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		return IsTransientStatus(statusErr.StatusCode)
	}

	// Checked before the context errors: a per-attempt timeout is a
	// ConnError wrapping context.DeadlineExceeded.
	var connErr *transport.ConnError
	if errors.As(err, &connErr) {
		return true
	}

	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

func decodeText(body []byte, decrypt DecryptFunc) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	if decrypt == nil {
		return string(body), true
	}
	text, err := decrypt(body)
	if err != nil {
		return "", false
	}
	return text, true
}

func parseCode(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return NoCode
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}

	return NoCode
}
