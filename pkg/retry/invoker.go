package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/arcade/pkg/apierr"
	"github.com/aussiebroadwan/arcade/pkg/slogx"
)

// SleepFunc waits for d or until ctx ends, returning the context error in
// the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Invoker runs operations under a retry History. The zero value is ready to
// use: raw status failures are converted with apierr.Classify and retried
// when apierr.IsTransient holds.
type Invoker struct {
	// Classify reports whether a failure is transient.
	Classify func(error) bool

	// Decrypt opens encrypted error bodies while classifying status
	// failures. Nil reads bodies as plain text.
	Decrypt apierr.DecryptFunc

	// Sleep waits between attempts.
	Sleep SleepFunc

	// Logger receives a warning per retry. Defaults to the context logger.
	Logger *slog.Logger
}

var defaultInvoker = &Invoker{}

// Do runs op until it succeeds, fails permanently, exhausts h.Config or ctx
// ends. h.Attempts counts the retries made.
func (inv *Invoker) Do(ctx context.Context, h *History, op func(ctx context.Context) error) error {
	if inv == nil {
		inv = defaultInvoker
	}
	if h == nil {
		h = NewHistory(DefaultConfiguration())
	}

	classify := inv.Classify
	if classify == nil {
		classify = apierr.IsTransient
	}
	sleep := inv.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	log := inv.Logger
	if log == nil {
		log = slogx.FromContext(ctx)
	}

	calls := 0
	for {
		if ctx.Err() != nil {
			return cancelled(ctx, calls)
		}

		calls++
		err := op(ctx)
		if err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return cancelled(ctx, calls)
		}

		err = apierr.Classify(err, inv.Decrypt)
		if !classify(err) {
			return err
		}

		if h.Attempts >= h.Config.MaxRetries {
			return &ExhaustedError{Attempts: calls, Err: err}
		}

		h.Attempts++
		delay := DelayFor(h.Attempts, h.Config)

		log.Warn("retrying after transient failure",
			"attempt", h.Attempts,
			"max_retries", h.Config.MaxRetries,
			"delay", delay,
			"err", err,
		)

		if h.Config.Listener != nil {
			h.Config.Listener(AttemptInfo{Attempt: h.Attempts, Delay: delay, Err: err})
		}

		if err := sleep(ctx, delay); err != nil {
			return cancelled(ctx, calls)
		}
	}
}

// Invoke is the value-returning form of Do. A nil inv uses the default
// invoker.
func Invoke[T any](ctx context.Context, inv *Invoker, h *History, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := inv.Do(ctx, h, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func cancelled(ctx context.Context, calls int) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.Canceled
	}
	return &CancelledError{Attempts: calls, Cause: cause}
}
