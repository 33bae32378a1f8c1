package gamesdk

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/arcade/pkg/cryptox"
	"github.com/aussiebroadwan/arcade/pkg/retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CallOption adjusts a single call.
type CallOption func(*callOptions)

type callOptions struct {
	retry *retry.Configuration
}

// WithRetry overrides the client's retry configuration for one call.
func WithRetry(cfg retry.Configuration) CallOption {
	return func(o *callOptions) {
		o.retry = &cfg
	}
}

func (c *Client) retryConfig(opts []CallOption) retry.Configuration {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.retry != nil {
		return *o.retry
	}
	return c.RetryConfiguration
}

func (c *Client) invoker() *retry.Invoker {
	return &retry.Invoker{Logger: c.logger(), Sleep: c.sleep, Decrypt: c.decryptFunc()}
}

// withSpanEvents returns cfg with a listener that also records each retry
// on span.
func withSpanEvents(cfg retry.Configuration, span trace.Span) retry.Configuration {
	user := cfg.Listener
	cfg.Listener = func(a retry.AttemptInfo) {
		span.AddEvent("retry", trace.WithAttributes(
			attribute.Int("retry.attempt", a.Attempt),
			attribute.Int64("retry.delay_ms", a.Delay.Milliseconds()),
			attribute.String("retry.error", a.Err.Error()),
		))
		if user != nil {
			user(a)
		}
	}
	return cfg
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// invoke runs a call that needs no session through the retry invoker.
func invoke[T any](
	ctx context.Context,
	c *Client,
	op string,
	opts []CallOption,
	fn func(ctx context.Context) (T, error),
) (result T, err error) {
	ctx, span := c.tracer().Start(ctx, "gamesdk."+op)
	defer func() { endSpan(span, err) }()

	cfg := withSpanEvents(c.retryConfig(opts), span)
	return retry.Invoke(ctx, c.invoker(), retry.NewHistory(cfg), fn)
}

// call runs a session-bound operation: it refreshes the session first when
// it is inside the look-ahead window, then dispatches fn through the retry
// invoker. fn receives the session's current access token on every attempt.
func call[T any](
	ctx context.Context,
	c *Client,
	session *Session,
	op string,
	opts []CallOption,
	fn func(ctx context.Context, token string) (T, error),
) (result T, err error) {
	if session == nil {
		return result, ErrNilSession
	}

	ctx, span := c.tracer().Start(ctx, "gamesdk."+op, trace.WithAttributes(
		attribute.String("session.user_id", session.UserID()),
	))
	defer func() { endSpan(span, err) }()

	cfg := c.retryConfig(opts)

	if err := c.refreshIfNeeded(ctx, session, cfg); err != nil {
		return result, err
	}

	cfg = withSpanEvents(cfg, span)
	return retry.Invoke(ctx, c.invoker(), retry.NewHistory(cfg), func(ctx context.Context) (T, error) {
		return fn(ctx, session.AuthToken())
	})
}

// needsRefresh reports whether session should be refreshed before a call.
func (c *Client) needsRefresh(session *Session) bool {
	return c.AutoRefreshSession &&
		session.RefreshToken() != "" &&
		session.HasExpired(c.clock().Add(c.ExpiryLookahead))
}

func (c *Client) refreshIfNeeded(ctx context.Context, session *Session, cfg retry.Configuration) error {
	if !c.needsRefresh(session) {
		return nil
	}

	if !c.CoalesceRefresh {
		if _, err := c.SessionRefresh(ctx, session, nil, WithRetry(cfg)); err != nil {
			return fmt.Errorf("gamesdk: refresh session: %w", err)
		}
		return nil
	}

	// The shared refresh outlives any single caller: it runs detached from
	// the caller that started it, and each caller stops waiting when its own
	// context ends.
	key := cryptox.FingerprintToken(session.RefreshToken())
	flight := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan(key, func() (any, error) {
		// Another caller may have finished a refresh while we queued.
		if !c.needsRefresh(session) {
			return nil, nil
		}
		return c.SessionRefresh(flight, session, nil, WithRetry(cfg))
	})

	select {
	case <-ctx.Done():
		return &retry.CancelledError{Cause: context.Cause(ctx)}
	case res := <-ch:
		if res.Shared {
			c.logger().Debug("joined in-flight session refresh", "user_id", session.UserID())
		}
		if res.Err != nil {
			return fmt.Errorf("gamesdk: refresh session: %w", res.Err)
		}
		return nil
	}
}
