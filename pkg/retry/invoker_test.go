package retry_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/arcade/pkg/apierr"
	"github.com/aussiebroadwan/arcade/pkg/retry"
	"github.com/aussiebroadwan/arcade/pkg/transport"
	"github.com/stretchr/testify/require"
)

// recordingSleep captures requested delays without waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func statusFailure(status int, body string) error {
	return apierr.Classify(&transport.StatusError{StatusCode: status, Body: []byte(body)}, nil)
}

func noJitter(maxRetries int) retry.Configuration {
	return retry.Configuration{
		BaseDelay:  500 * time.Millisecond,
		Jitter:     retry.NoJitter(),
		MaxRetries: maxRetries,
	}
}

func TestInvoker_AlwaysTransientAttemptsNPlusOne(t *testing.T) {
	t.Parallel()

	for _, maxRetries := range []int{0, 1, 2, 4, 7} {
		rec := &recordingSleep{}
		inv := &retry.Invoker{Sleep: rec.sleep}
		h := retry.NewHistory(noJitter(maxRetries))

		calls := 0
		var last error
		err := inv.Do(context.Background(), h, func(ctx context.Context) error {
			calls++
			last = statusFailure(http.StatusServiceUnavailable, `{"message":"attempt"}`)
			return last
		})

		require.Equal(t, maxRetries+1, calls)
		require.Equal(t, maxRetries, h.Attempts)
		require.Len(t, rec.delays, maxRetries)

		var exhausted *retry.ExhaustedError
		require.ErrorAs(t, err, &exhausted)
		require.Equal(t, maxRetries+1, exhausted.Attempts)
		require.Same(t, last, exhausted.Err)

		var apiErr *apierr.Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	}
}

func TestInvoker_SucceedsOnAttemptK(t *testing.T) {
	t.Parallel()

	const maxRetries = 4
	for k := 1; k <= maxRetries+1; k++ {
		inv := &retry.Invoker{Sleep: (&recordingSleep{}).sleep}
		h := retry.NewHistory(noJitter(maxRetries))

		calls := 0
		got, err := retry.Invoke(context.Background(), inv, h, func(ctx context.Context) (string, error) {
			calls++
			if calls < k {
				return "", statusFailure(http.StatusBadGateway, "")
			}
			return "ok", nil
		})

		require.NoError(t, err)
		require.Equal(t, "ok", got)
		require.Equal(t, k, calls)
		require.Equal(t, k-1, h.Attempts)
	}
}

func TestInvoker_PermanentFailureAttemptsOnce(t *testing.T) {
	t.Parallel()

	var listened atomic.Int32
	cfg := noJitter(10).WithListener(func(retry.AttemptInfo) { listened.Add(1) })
	inv := &retry.Invoker{Sleep: (&recordingSleep{}).sleep}

	calls := 0
	err := inv.Do(context.Background(), retry.NewHistory(cfg), func(ctx context.Context) error {
		calls++
		return statusFailure(http.StatusUnauthorized, `{"message":"bad token","code":16}`)
	})

	require.Equal(t, 1, calls)
	require.Zero(t, listened.Load())

	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.False(t, apiErr.Transient)

	var exhausted *retry.ExhaustedError
	require.False(t, errors.As(err, &exhausted))
}

func TestInvoker_ClassifiesRawStatusFailures(t *testing.T) {
	t.Parallel()

	t.Run("permanent", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := (&retry.Invoker{Sleep: (&recordingSleep{}).sleep}).Do(context.Background(), retry.NewHistory(noJitter(3)), func(ctx context.Context) error {
			calls++
			return &transport.StatusError{StatusCode: http.StatusUnauthorized, Body: []byte(`{"message":"bad token","code":16}`)}
		})
		require.Equal(t, 1, calls)

		var apiErr *apierr.Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		require.Equal(t, "bad token", apiErr.Message)
		require.Equal(t, 16, apiErr.Code)
		require.False(t, apiErr.Transient)
	})

	t.Run("transient", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := (&retry.Invoker{Sleep: (&recordingSleep{}).sleep}).Do(context.Background(), retry.NewHistory(noJitter(1)), func(ctx context.Context) error {
			calls++
			return &transport.StatusError{StatusCode: http.StatusServiceUnavailable, Body: []byte("busy")}
		})
		require.Equal(t, 2, calls)

		var exhausted *retry.ExhaustedError
		require.ErrorAs(t, err, &exhausted)
		require.Equal(t, 2, exhausted.Attempts)

		var apiErr *apierr.Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		require.True(t, apiErr.Transient)
	})

	t.Run("decrypts body", func(t *testing.T) {
		t.Parallel()

		decrypt := func(b []byte) (string, error) {
			return strings.TrimPrefix(string(b), "sealed:"), nil
		}
		inv := &retry.Invoker{Sleep: (&recordingSleep{}).sleep, Decrypt: decrypt}
		err := inv.Do(context.Background(), retry.NewHistory(noJitter(0)), func(ctx context.Context) error {
			return &transport.StatusError{StatusCode: http.StatusNotFound, Body: []byte(`sealed:{"message":"no such rpc","code":5}`)}
		})

		var apiErr *apierr.Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "no such rpc", apiErr.Message)
		require.Equal(t, 5, apiErr.Code)
	})
}

func TestInvoker_UnclassifiedErrorIsPermanent(t *testing.T) {
	t.Parallel()

	calls := 0
	decodeErr := errors.New("decode response: unexpected end of JSON input")
	err := (&retry.Invoker{Sleep: (&recordingSleep{}).sleep}).Do(context.Background(), retry.NewHistory(noJitter(3)), func(ctx context.Context) error {
		calls++
		return decodeErr
	})
	require.Same(t, decodeErr, err)
	require.Equal(t, 1, calls)
}

func TestInvoker_ConnectionFailureIsRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	err := (&retry.Invoker{Sleep: (&recordingSleep{}).sleep}).Do(context.Background(), retry.NewHistory(noJitter(2)), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &transport.ConnError{Op: "POST", URL: "http://x", Err: errors.New("connection reset")}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestInvoker_Scenario503ThreeTimesThenSuccess(t *testing.T) {
	t.Parallel()

	rec := &recordingSleep{}
	var infos []retry.AttemptInfo
	cfg := noJitter(4).WithListener(func(a retry.AttemptInfo) { infos = append(infos, a) })

	calls := 0
	err := (&retry.Invoker{Sleep: rec.sleep}).Do(context.Background(), retry.NewHistory(cfg), func(ctx context.Context) error {
		calls++
		if calls <= 3 {
			return statusFailure(http.StatusServiceUnavailable, `{"message":"overloaded"}`)
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 4, calls)
	require.Len(t, infos, 3)
	for i, info := range infos {
		require.Equal(t, i+1, info.Attempt)
		require.Equal(t, rec.delays[i], info.Delay)

		var apiErr *apierr.Error
		require.ErrorAs(t, info.Err, &apiErr)
		require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	}
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestInvoker_NonJSON5xxStillTransient(t *testing.T) {
	t.Parallel()

	calls := 0
	err := (&retry.Invoker{Sleep: (&recordingSleep{}).sleep}).Do(context.Background(), retry.NewHistory(noJitter(1)), func(ctx context.Context) error {
		calls++
		return statusFailure(http.StatusInternalServerError, "\x8f\x02\xff encrypted")
	})
	require.Equal(t, 2, calls)

	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	require.Empty(t, apiErr.Message)
	require.True(t, apiErr.Transient)
}

func TestInvoker_CancelDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	var listened atomic.Int32
	cfg := retry.Configuration{
		BaseDelay:  time.Hour,
		Jitter:     retry.NoJitter(),
		MaxRetries: 4,
		Listener:   func(retry.AttemptInfo) { listened.Add(1) },
	}

	done := make(chan error, 1)
	go func() {
		done <- (&retry.Invoker{}).Do(ctx, retry.NewHistory(cfg), func(ctx context.Context) error {
			calls.Add(1)
			return statusFailure(http.StatusServiceUnavailable, "")
		})
	}()

	require.Eventually(t, func() bool { return listened.Load() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, retry.ErrCancelled)
		require.ErrorIs(t, err, context.Canceled)

		var cancelled *retry.CancelledError
		require.ErrorAs(t, err, &cancelled)
		require.Equal(t, 1, cancelled.Attempts)
	case <-time.After(time.Second):
		t.Fatal("invoker did not return after cancellation")
	}

	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, int32(1), listened.Load())
}

func TestInvoker_CancelledBeforeFirstAttempt(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := (&retry.Invoker{}).Do(ctx, nil, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.ErrorIs(t, err, retry.ErrCancelled)
	require.Zero(t, calls)
}

func TestInvoker_CancelDuringAttemptSkipsListener(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancelCause(context.Background())
	stop := errors.New("player left the lobby")

	listened := 0
	cfg := noJitter(3).WithListener(func(retry.AttemptInfo) { listened++ })
	err := (&retry.Invoker{Sleep: (&recordingSleep{}).sleep}).Do(ctx, retry.NewHistory(cfg), func(ctx context.Context) error {
		cancel(stop)
		return statusFailure(http.StatusServiceUnavailable, "")
	})

	require.ErrorIs(t, err, retry.ErrCancelled)
	require.ErrorIs(t, err, stop)
	require.Zero(t, listened)
}

func TestInvoker_DeadlineDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	calls := 0
	cfg := retry.Configuration{BaseDelay: time.Minute, Jitter: retry.NoJitter(), MaxRetries: 2}
	start := time.Now()
	err := (&retry.Invoker{}).Do(ctx, retry.NewHistory(cfg), func(ctx context.Context) error {
		calls++
		return statusFailure(http.StatusGatewayTimeout, "")
	})

	require.ErrorIs(t, err, retry.ErrCancelled)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, calls)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestInvoker_CustomClassifier(t *testing.T) {
	t.Parallel()

	retryable := errors.New("lobby full")
	inv := &retry.Invoker{
		Sleep:    (&recordingSleep{}).sleep,
		Classify: func(err error) bool { return errors.Is(err, retryable) },
	}

	calls := 0
	err := inv.Do(context.Background(), retry.NewHistory(noJitter(2)), func(ctx context.Context) error {
		calls++
		return retryable
	})
	require.ErrorIs(t, err, retryable)
	require.Equal(t, 3, calls)
}

func TestInvoke_ZeroValueOnFailure(t *testing.T) {
	t.Parallel()

	got, err := retry.Invoke(context.Background(), nil, retry.NewHistory(noJitter(0)), func(ctx context.Context) (*int, error) {
		n := 5
		return &n, statusFailure(http.StatusNotFound, "")
	})
	require.Error(t, err)
	require.Nil(t, got)
}

func TestSleep(t *testing.T) {
	t.Parallel()

	require.NoError(t, retry.Sleep(context.Background(), time.Millisecond))
	require.NoError(t, retry.Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, retry.Sleep(ctx, time.Hour), context.Canceled)
}
