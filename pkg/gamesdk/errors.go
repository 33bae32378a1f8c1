package gamesdk

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/arcade/pkg/apierr"
	"github.com/aussiebroadwan/arcade/pkg/retry"
	"github.com/go-playground/validator/v10"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// ErrEmptyAuthToken is returned when a session is built without an
	// access token.
	ErrEmptyAuthToken = errors.New("gamesdk: auth token must not be empty")

	// ErrInvalidToken is returned when a session token cannot be decoded.
	ErrInvalidToken = errors.New("gamesdk: invalid session token")

	// ErrNilSession is returned by session-bound operations given no session.
	ErrNilSession = errors.New("gamesdk: session is required")

	// ErrCancelled re-exports retry.ErrCancelled so callers need only this
	// package to detect cancelled calls.
	ErrCancelled = retry.ErrCancelled
)

// ============================================================================
// Re-exported error types
// ============================================================================

type (
	// APIError is a classified non-2xx server response.
	APIError = apierr.Error
	// ExhaustedError is returned when every permitted retry failed.
	ExhaustedError = retry.ExhaustedError
	// CancelledError is returned when the call's context ended.
	CancelledError = retry.CancelledError
)

// ============================================================================
// Validation errors
// ============================================================================

// ValidationError reports a request rejected before it was sent.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("gamesdk: %s: invalid request: %v", e.Op, e.Fields)
}

func newValidationError(op string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("gamesdk: %s: validate request: %w", op, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Op: op, Fields: fields}
}

// ============================================================================
// Helpers
// ============================================================================

// AsAPIError extracts the classified server error from err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
