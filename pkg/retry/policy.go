// Package retry drives repeated attempts of a remote operation with
// exponential backoff and optional full jitter.
//
// A Configuration describes the policy and is shared freely between calls.
// A History is created per logical call and records how many retries were
// made. Cancellation is carried by the call's context.Context: cancelling it
// aborts the current backoff sleep and prevents any further attempt.
//
//	cfg := retry.DefaultConfiguration()
//	cfg.Listener = func(a retry.AttemptInfo) { log.Printf("retry %d in %s", a.Attempt, a.Delay) }
//
//	acct, err := retry.Invoke(ctx, nil, retry.NewHistory(cfg), func(ctx context.Context) (*Account, error) {
//		return fetchAccount(ctx)
//	})
package retry

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// DefaultBaseDelay is the delay before the first retry without jitter.
	DefaultBaseDelay = 500 * time.Millisecond

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 4

	// MaxBackoffExponent caps the doubling so large attempt indices saturate.
	MaxBackoffExponent = 30

	// MaxDelay is the ceiling every computed delay saturates at.
	MaxDelay = time.Duration(math.MaxInt64)
)

// ErrInvalidConfiguration is returned by Validate.
var ErrInvalidConfiguration = errors.New("retry: invalid configuration")

// AttemptInfo describes a scheduled retry.
type AttemptInfo struct {
	// Attempt is the 1-based retry index.
	Attempt int
	// Delay is how long the invoker waits before the retry.
	Delay time.Duration
	// Err is the transient failure that caused the retry.
	Err error
}

// Listener observes scheduled retries. It is called synchronously on the
// calling goroutine and must not block.
type Listener func(AttemptInfo)

// Configuration is the retry policy for a call. It is a value type and is
// never mutated by the invoker.
type Configuration struct {
	BaseDelay  time.Duration
	Jitter     Jitter
	MaxRetries int
	Listener   Listener
}

// DefaultConfiguration returns {500ms, FullJitter, 4 retries}.
func DefaultConfiguration() Configuration {
	return Configuration{
		BaseDelay:  DefaultBaseDelay,
		Jitter:     FullJitter(),
		MaxRetries: DefaultMaxRetries,
	}
}

// WithListener returns a copy of c using l.
func (c Configuration) WithListener(l Listener) Configuration {
	c.Listener = l
	return c
}

// Validate reports configurations that cannot be honoured.
func (c Configuration) Validate() error {
	if c.BaseDelay < 0 {
		return fmt.Errorf("%w: negative base delay %s", ErrInvalidConfiguration, c.BaseDelay)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: negative max retries %d", ErrInvalidConfiguration, c.MaxRetries)
	}
	return nil
}

// Ceiling returns base * 2^attempt with the exponent clamped at
// MaxBackoffExponent and the product saturating at MaxDelay.
func Ceiling(attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	exp := min(max(attempt, 0), MaxBackoffExponent)

	if base > MaxDelay>>exp {
		return MaxDelay
	}
	return base << exp
}

// DelayFor computes the wait before retry number attempt under cfg.
func DelayFor(attempt int, cfg Configuration) time.Duration {
	return cfg.Jitter.apply(attempt, Ceiling(attempt, cfg.BaseDelay))
}

// History is the per-call retry state. It must not be shared between calls.
type History struct {
	Config   Configuration
	Attempts int
}

// NewHistory starts a fresh history for one logical call.
func NewHistory(cfg Configuration) *History {
	return &History{Config: cfg}
}
