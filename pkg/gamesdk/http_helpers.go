package gamesdk

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/aussiebroadwan/arcade/pkg/apierr"
	"github.com/aussiebroadwan/arcade/pkg/transport"
)

// request describes one HTTP exchange with the server.
type request struct {
	method string
	path   string
	query  url.Values
	auth   string // full Authorization header value, if any
	body   any
}

// basicAuth authenticates with the server key as the basic auth username.
func (c *Client) basicAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.ServerKey+":"))
}

func bearer(token string) string {
	return "Bearer " + token
}

// send performs a single attempt. Failures come back classified: status
// failures as *apierr.Error, connection failures and per-attempt timeouts
// as *transport.ConnError, caller cancellation as the context error.
func (c *Client) send(ctx context.Context, r request, out any) error {
	enc := c.encryption()

	req := transport.NewRequest(r.method, c.url(r.path, r.query), nil)
	req.SetHeader(transport.HeaderAccept, transport.ContentTypeJSON)
	if r.auth != "" {
		req.SetHeader(transport.HeaderAuthorization, r.auth)
	}

	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("gamesdk: encode request: %w", err)
		}

		if enc.IsEnabled() {
			sealed, err := enc.Encrypt(string(raw))
			if err != nil {
				return fmt.Errorf("gamesdk: encrypt request: %w", err)
			}
			req.Body = sealed
			req.SetHeader(transport.HeaderContentType, transport.ContentTypeBinary)
		} else {
			req.Body = raw
			req.SetHeader(transport.HeaderContentType, transport.ContentTypeJSON)
		}
	}

	attemptCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	resp, err := c.Transport.Send(attemptCtx, req)
	if err != nil {
		// A lapsed attempt deadline is a connection failure, not a
		// cancellation of the call.
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			var connErr *transport.ConnError
			if !errors.As(err, &connErr) {
				err = &transport.ConnError{Op: "timeout", URL: req.URL, Err: err}
			}
		}
		return apierr.Classify(err, c.decryptFunc())
	}

	if out == nil || len(resp) == 0 {
		return nil
	}

	text := string(resp)
	if enc.IsEnabled() {
		text, err = enc.Decrypt(resp)
		if err != nil {
			return fmt.Errorf("gamesdk: decrypt response: %w", err)
		}
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("gamesdk: decode response: %w", err)
	}
	return nil
}

func (c *Client) decryptFunc() apierr.DecryptFunc {
	enc := c.encryption()
	if !enc.IsEnabled() {
		return nil
	}
	return enc.Decrypt
}

// sendJSON is send returning a freshly decoded T.
func sendJSON[T any](ctx context.Context, c *Client, r request) (*T, error) {
	out := new(T)
	if err := c.send(ctx, r, out); err != nil {
		return nil, err
	}
	return out, nil
}
