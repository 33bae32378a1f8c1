package retry

import (
	"errors"
	"fmt"
)

// ErrCancelled matches every *CancelledError via errors.Is.
var ErrCancelled = errors.New("retry: cancelled")

// ============================================================================
// CancelledError - the call's context ended
// ============================================================================

// CancelledError is returned when the context ends before the call
// completes. Unwrap yields the context's cause.
type CancelledError struct {
	// Attempts is the number of times the operation was invoked.
	Attempts int
	Cause    error
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	return fmt.Sprintf("retry: cancelled after %d attempt(s): %v", e.Attempts, e.Cause)
}

// Is reports a match against ErrCancelled.
func (e *CancelledError) Is(target error) bool { return target == ErrCancelled }

// Unwrap returns the context cause.
func (e *CancelledError) Unwrap() error { return e.Cause }

// ============================================================================
// ExhaustedError - every permitted attempt failed transiently
// ============================================================================

// ExhaustedError is returned once MaxRetries retries have failed. Only the
// last failure is kept.
type ExhaustedError struct {
	// Attempts is the number of times the operation was invoked.
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: gave up after %d attempt(s): %v", e.Attempts, e.Err)
}

// Unwrap returns the last failure.
func (e *ExhaustedError) Unwrap() error { return e.Err }
