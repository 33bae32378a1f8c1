/*
Package gamesdk is the client runtime for talking to an arcade game server.

# Overview

A Client authenticates users, exchanges session tokens and invokes remote
operations over HTTP(S). Every call is wrapped in two layers:

  - session refresh: a session whose access token expires within
    Client.ExpiryLookahead is refreshed before the call is dispatched
  - retry: transient failures (500, 502, 503, 504 and connection errors)
    are retried with exponential backoff and jitter

Create a Client and authenticate to obtain a Session:

	client := gamesdk.NewClient("http", "127.0.0.1", 7350, "defaultkey")

	session, err := client.AuthenticateDevice(ctx, deviceID, "", true, nil)
	if err != nil {
		return err
	}

	account, err := client.GetAccount(ctx, session)

# Sessions

A Session is updated in place when it is refreshed, so keep one pointer per
user and share it between goroutines. Persist AuthToken and RefreshToken and
rebuild the session later with Restore:

	session, err := gamesdk.Restore(authToken, refreshToken)

By default two goroutines that find the same session near expiry will both
refresh it. Set Client.CoalesceRefresh to share a single refresh between
them.

# Retries

Client.RetryConfiguration is the default policy ({500ms, full jitter, 4
retries}). Override it for one call with WithRetry:

	cfg := retry.Configuration{
		BaseDelay:  250 * time.Millisecond,
		Jitter:     retry.SeededFullJitter(7),
		MaxRetries: 2,
		Listener: func(a retry.AttemptInfo) {
			log.Printf("retry %d in %s: %v", a.Attempt, a.Delay, a.Err)
		},
	}
	result, err := client.RPC(ctx, session, "claim_reward", `{"day":3}`, gamesdk.WithRetry(cfg))

Writes are retried too. Operations that are not idempotent should carry
their own guard, for example a storage object Version.

# Cancellation

Cancel the context to abandon a call. The backoff sleep is interrupted, no
further attempts are made and the error matches gamesdk.ErrCancelled:

	if errors.Is(err, gamesdk.ErrCancelled) {
		// user navigated away
	}

# Errors

Server failures are *APIError values carrying the status, message and
application code. When every retry fails the error is an *ExhaustedError
wrapping the last failure, so errors.As still finds the *APIError:

	if apiErr, ok := gamesdk.AsAPIError(err); ok && apiErr.StatusCode == http.StatusNotFound {
		// ...
	}
*/
package gamesdk
