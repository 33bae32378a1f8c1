package gamesdk_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	httpapi "github.com/aussiebroadwan/arcade/internal/devserver/http"
	"github.com/aussiebroadwan/arcade/pkg/gamesdk"
	"github.com/aussiebroadwan/arcade/pkg/retry"
	"github.com/stretchr/testify/require"
)

const (
	accountPath = "/v2/account"
	refreshPath = "/v2/account/session/refresh"
	echoPath    = "/v2/rpc/echo"
)

func TestCall_RetriesTransientThenSucceeds(t *testing.T) {
	f := newFixture(t)
	session := f.authenticate(t, "device-retry-0001")

	f.router.InjectFaults(httpapi.Fault{Path: accountPath, Status: http.StatusServiceUnavailable, Times: 3})

	var attempts []int
	cfg := f.client.RetryConfiguration.WithListener(func(a retry.AttemptInfo) {
		attempts = append(attempts, a.Attempt)
	})

	account, err := f.client.GetAccount(t.Context(), session, gamesdk.WithRetry(cfg))
	require.NoError(t, err)
	require.Equal(t, session.UserID(), account.User.ID)

	require.Equal(t, []int{1, 2, 3}, attempts)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, f.sleeps.recorded())
	require.Equal(t, 4, f.router.Hits(accountPath))
}

func TestCall_ExhaustsRetries(t *testing.T) {
	f := newFixture(t)
	session := f.authenticate(t, "device-exhaust-01")

	f.router.InjectFaults(httpapi.Fault{Path: accountPath, Status: http.StatusBadGateway, Times: 10})

	cfg := f.client.RetryConfiguration
	cfg.MaxRetries = 2

	_, err := f.client.GetAccount(t.Context(), session, gamesdk.WithRetry(cfg))
	require.Error(t, err)

	var exhausted *gamesdk.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)

	apiErr, ok := gamesdk.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.True(t, apiErr.Transient)

	require.Equal(t, 3, f.router.Hits(accountPath))
	require.Len(t, f.sleeps.recorded(), 2)
}

func TestCall_ZeroRetriesAttemptsOnce(t *testing.T) {
	f := newFixture(t)
	session := f.authenticate(t, "device-noretry-01")

	f.router.InjectFaults(httpapi.Fault{Path: accountPath, Status: http.StatusServiceUnavailable})

	cfg := f.client.RetryConfiguration
	cfg.MaxRetries = 0

	_, err := f.client.GetAccount(t.Context(), session, gamesdk.WithRetry(cfg))
	var exhausted *gamesdk.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 1, exhausted.Attempts)
	require.Equal(t, 1, f.router.Hits(accountPath))
	require.Empty(t, f.sleeps.recorded())
}

func TestCall_PermanentFailureIsNotRetried(t *testing.T) {
	f := newFixture(t)
	session := f.authenticate(t, "device-perm-00001")

	require.NoError(t, f.client.SessionLogout(t.Context(), session))

	_, err := f.client.GetAccount(t.Context(), session)
	require.Error(t, err)

	var exhausted *gamesdk.ExhaustedError
	require.False(t, errors.As(err, &exhausted))

	apiErr, ok := gamesdk.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, 16, apiErr.Code)
	require.False(t, apiErr.Transient)

	require.Equal(t, 1, f.router.Hits(accountPath))
	require.Empty(t, f.sleeps.recorded())
}

func TestCall_NonJSONServerErrorIsTransient(t *testing.T) {
	f := newFixture(t)
	session := f.authenticate(t, "device-html-00001")

	f.router.InjectFaults(httpapi.Fault{
		Path:   accountPath,
		Status: http.StatusGatewayTimeout,
		Body:   "<html>upstream timed out</html>",
	})

	_, err := f.client.GetAccount(t.Context(), session)
	require.NoError(t, err)
	require.Equal(t, 2, f.router.Hits(accountPath))
}

func TestCall_DroppedConnectionIsRetried(t *testing.T) {
	f := newFixture(t)
	session := f.authenticate(t, "device-drop-00001")

	f.router.InjectFaults(httpapi.Fault{Path: echoPath, Drop: true, Times: 2})

	var errs []error
	cfg := f.client.RetryConfiguration.WithListener(func(a retry.AttemptInfo) {
		errs = append(errs, a.Err)
	})

	result, err := f.client.RPC(t.Context(), session, "echo", `{"ping":true}`, gamesdk.WithRetry(cfg))
	require.NoError(t, err)
	require.Equal(t, `{"ping":true}`, result.Payload)
	require.Len(t, errs, 2)
	require.Equal(t, 3, f.router.Hits(echoPath))
}

func TestCall_AttemptTimeoutIsRetried(t *testing.T) {
	f := newFixture(t)
	f.client.Timeout = 100 * time.Millisecond

	f.router.InjectFaults(httpapi.Fault{Path: "/healthcheck", DelayMS: 2000})

	require.NoError(t, f.client.Healthcheck(t.Context()))
	require.Equal(t, 2, f.router.Hits("/healthcheck"))
	require.Len(t, f.sleeps.recorded(), 1)
}

func TestCall_CancelDuringBackoff(t *testing.T) {
	f := newFixture(t)
	session := f.authenticate(t, "device-cancel-001")

	f.router.InjectFaults(httpapi.Fault{Path: accountPath, Status: http.StatusServiceUnavailable, Times: 5})

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	gamesdk.SetSleep(f.client, func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	})

	_, err := f.client.GetAccount(ctx, session)
	require.ErrorIs(t, err, gamesdk.ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)

	var cancelled *gamesdk.CancelledError
	require.ErrorAs(t, err, &cancelled)
	require.Equal(t, 1, f.router.Hits(accountPath))
}

func TestCall_CancelledBeforeDispatch(t *testing.T) {
	f := newFixture(t)
	session := f.authenticate(t, "device-cancel-002")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := f.client.GetAccount(ctx, session)
	require.ErrorIs(t, err, gamesdk.ErrCancelled)
	require.Zero(t, f.router.Hits(accountPath))
}

func TestCall_NilSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.GetAccount(t.Context(), nil)
	require.ErrorIs(t, err, gamesdk.ErrNilSession)
}

// ============================================================================
// Session refresh
// ============================================================================

func TestRefresh_InsideWindowRefreshesFirst(t *testing.T) {
	f := newFixture(t)
	session := f.shortSession(t, "device-refresh-01")
	oldToken := session.AuthToken()

	account, err := f.client.GetAccount(t.Context(), session)
	require.NoError(t, err)
	require.Equal(t, session.UserID(), account.User.ID)

	require.Equal(t, 1, f.router.Hits(refreshPath))
	require.NotEqual(t, oldToken, session.AuthToken())
	require.False(t, session.HasExpired(time.Now().Add(gamesdk.DefaultExpiryLookahead)))

	// The refreshed session is outside the window again.
	_, err = f.client.GetAccount(t.Context(), session)
	require.NoError(t, err)
	require.Equal(t, 1, f.router.Hits(refreshPath))
}

func TestRefresh_OutsideWindowDoesNotRefresh(t *testing.T) {
	f := newFixture(t)
	session := f.authenticate(t, "device-refresh-02")

	_, err := f.client.GetAccount(t.Context(), session)
	require.NoError(t, err)
	require.Zero(t, f.router.Hits(refreshPath))
}

func TestRefresh_WindowFollowsClock(t *testing.T) {
	f := newFixture(t)
	session := f.authenticate(t, "device-refresh-03")
	expires := session.ExpireTime()

	gamesdk.SetClock(f.client, func() time.Time { return expires.Add(-6 * time.Minute) })
	_, err := f.client.GetAccount(t.Context(), session)
	require.NoError(t, err)
	require.Zero(t, f.router.Hits(refreshPath))

	gamesdk.SetClock(f.client, func() time.Time { return expires.Add(-4 * time.Minute) })
	_, err = f.client.GetAccount(t.Context(), session)
	require.NoError(t, err)
	require.Equal(t, 1, f.router.Hits(refreshPath))
}

func TestRefresh_DisabledNeverRefreshes(t *testing.T) {
	f := newFixture(t)
	f.client.AutoRefreshSession = false
	session := f.shortSession(t, "device-refresh-04")

	_, err := f.client.GetAccount(t.Context(), session)
	require.NoError(t, err)
	require.Zero(t, f.router.Hits(refreshPath))
}

func TestRefresh_NoRefreshTokenNeverRefreshes(t *testing.T) {
	f := newFixture(t)
	short := f.shortSession(t, "device-refresh-05")

	session, err := gamesdk.Restore(short.AuthToken(), "")
	require.NoError(t, err)

	_, err = f.client.GetAccount(t.Context(), session)
	require.NoError(t, err)
	require.Zero(t, f.router.Hits(refreshPath))
}

func TestRefresh_FailurePreventsOperation(t *testing.T) {
	f := newFixture(t)
	session := f.shortSession(t, "device-refresh-06")

	f.router.InjectFaults(httpapi.Fault{
		Path:   refreshPath,
		Status: http.StatusUnauthorized,
		Body:   `{"error":"unauthenticated","message":"refresh token revoked","code":16}`,
	})

	_, err := f.client.GetAccount(t.Context(), session)
	require.Error(t, err)
	require.Contains(t, err.Error(), "refresh session")

	apiErr, ok := gamesdk.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "refresh token revoked", apiErr.Message)

	require.Equal(t, 1, f.router.Hits(refreshPath))
	require.Zero(t, f.router.Hits(accountPath))
}

func TestRefresh_TransientFailureIsRetried(t *testing.T) {
	f := newFixture(t)
	session := f.shortSession(t, "device-refresh-07")

	f.router.InjectFaults(httpapi.Fault{Path: refreshPath, Status: http.StatusServiceUnavailable})

	_, err := f.client.GetAccount(t.Context(), session)
	require.NoError(t, err)
	require.Equal(t, 2, f.router.Hits(refreshPath))
	require.Equal(t, 1, f.router.Hits(accountPath))
}

func TestRefresh_CoalescedAcrossConcurrentCalls(t *testing.T) {
	f := newFixture(t)
	f.client.CoalesceRefresh = true
	session := f.shortSession(t, "device-refresh-08")

	// Slow the refresh down so every caller queues behind it.
	f.router.InjectFaults(httpapi.Fault{Path: refreshPath, DelayMS: 200})

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.client.GetAccount(t.Context(), session)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.router.Hits(refreshPath))
	require.Equal(t, callers, f.router.Hits(accountPath))
}

func TestRefresh_UncoalescedCallsRefreshIndependently(t *testing.T) {
	f := newFixture(t)
	session := f.shortSession(t, "device-refresh-09")

	f.router.InjectFaults(httpapi.Fault{Path: refreshPath, DelayMS: 300, Times: 2})

	errs := make(chan error, 2)
	get := func() {
		_, err := f.client.GetAccount(t.Context(), session)
		errs <- err
	}

	go get()
	// The second call starts while the first refresh is still in flight.
	require.Eventually(t, func() bool { return f.router.Hits(refreshPath) == 1 }, 2*time.Second, 5*time.Millisecond)
	go get()

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	require.Equal(t, 2, f.router.Hits(refreshPath))
	require.Equal(t, 2, f.router.Hits(accountPath))
}

func TestRefresh_CoalescedSurvivesFirstCallerCancel(t *testing.T) {
	f := newFixture(t)
	f.client.CoalesceRefresh = true
	session := f.shortSession(t, "device-refresh-10")

	f.router.InjectFaults(httpapi.Fault{Path: refreshPath, DelayMS: 300})

	firstCtx, cancelFirst := context.WithCancel(t.Context())
	defer cancelFirst()

	first := make(chan error, 1)
	go func() {
		_, err := f.client.GetAccount(firstCtx, session)
		first <- err
	}()
	require.Eventually(t, func() bool { return f.router.Hits(refreshPath) == 1 }, 2*time.Second, 5*time.Millisecond)

	second := make(chan error, 1)
	go func() {
		_, err := f.client.GetAccount(t.Context(), session)
		second <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancelFirst()

	err := <-first
	require.ErrorIs(t, err, gamesdk.ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, <-second)
	require.Equal(t, 1, f.router.Hits(refreshPath))
	require.Equal(t, 1, f.router.Hits(accountPath))
}

func TestRefresh_CoalescedJoinerCancelsPromptly(t *testing.T) {
	f := newFixture(t)
	f.client.CoalesceRefresh = true
	session := f.shortSession(t, "device-refresh-11")

	f.router.InjectFaults(httpapi.Fault{Path: refreshPath, DelayMS: 500})

	first := make(chan error, 1)
	go func() {
		_, err := f.client.GetAccount(t.Context(), session)
		first <- err
	}()
	require.Eventually(t, func() bool { return f.router.Hits(refreshPath) == 1 }, 2*time.Second, 5*time.Millisecond)

	joinCtx, cancelJoin := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancelJoin()

	start := time.Now()
	_, err := f.client.GetAccount(joinCtx, session)
	require.ErrorIs(t, err, gamesdk.ErrCancelled)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 400*time.Millisecond)

	require.NoError(t, <-first)
	require.Equal(t, 1, f.router.Hits(refreshPath))
	require.Equal(t, 1, f.router.Hits(accountPath))
}
