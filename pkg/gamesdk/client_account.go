package gamesdk

import (
	"context"
	"net/http"
)

// GetAccount fetches the account of the session's user.
func (c *Client) GetAccount(ctx context.Context, session *Session, opts ...CallOption) (*Account, error) {
	return call(ctx, c, session, "GetAccount", opts, func(ctx context.Context, token string) (*Account, error) {
		return sendJSON[Account](ctx, c, request{
			method: http.MethodGet,
			path:   "/v2/account",
			auth:   bearer(token),
		})
	})
}

// UpdateAccount changes profile fields of the session's user.
func (c *Client) UpdateAccount(ctx context.Context, session *Session, req UpdateAccountRequest, opts ...CallOption) error {
	if err := validate.Struct(req); err != nil {
		return newValidationError("UpdateAccount", err)
	}

	_, err := call(ctx, c, session, "UpdateAccount", opts, func(ctx context.Context, token string) (struct{}, error) {
		return struct{}{}, c.send(ctx, request{
			method: http.MethodPut,
			path:   "/v2/account",
			auth:   bearer(token),
			body:   req,
		}, nil)
	})
	return err
}
