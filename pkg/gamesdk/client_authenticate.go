package gamesdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// AuthenticateDevice authenticates a device identifier and returns a new
// session. When create is true an account is created if none exists.
func (c *Client) AuthenticateDevice(
	ctx context.Context,
	id, username string,
	create bool,
	vars map[string]string,
	opts ...CallOption,
) (*Session, error) {
	body := AccountDevice{ID: id, Vars: vars}
	return c.authenticate(ctx, "AuthenticateDevice", "/v2/account/authenticate/device", username, create, body, opts)
}

// AuthenticateEmail authenticates an email and password.
func (c *Client) AuthenticateEmail(
	ctx context.Context,
	email, password, username string,
	create bool,
	vars map[string]string,
	opts ...CallOption,
) (*Session, error) {
	body := AccountEmail{Email: email, Password: password, Vars: vars}
	return c.authenticate(ctx, "AuthenticateEmail", "/v2/account/authenticate/email", username, create, body, opts)
}

// AuthenticateCustom authenticates an identifier issued by an external
// account system.
func (c *Client) AuthenticateCustom(
	ctx context.Context,
	id, username string,
	create bool,
	vars map[string]string,
	opts ...CallOption,
) (*Session, error) {
	body := AccountCustom{ID: id, Vars: vars}
	return c.authenticate(ctx, "AuthenticateCustom", "/v2/account/authenticate/custom", username, create, body, opts)
}

func (c *Client) authenticate(
	ctx context.Context,
	op, path, username string,
	create bool,
	body any,
	opts []CallOption,
) (*Session, error) {
	if err := validate.Struct(body); err != nil {
		return nil, newValidationError(op, err)
	}

	query := url.Values{}
	query.Set("create", strconv.FormatBool(create))
	if username != "" {
		query.Set("username", username)
	}

	resp, err := invoke(ctx, c, op, opts, func(ctx context.Context) (*sessionResponse, error) {
		return sendJSON[sessionResponse](ctx, c, request{
			method: http.MethodPost,
			path:   path,
			query:  query,
			auth:   c.basicAuth(),
			body:   body,
		})
	})
	if err != nil {
		return nil, err
	}

	return NewSession(resp.Token, resp.RefreshToken, resp.Created)
}
