package gamesdk

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/arcade/pkg/cryptox"
)

// Lifetimes below which a refresh logs a configuration warning.
const (
	minSessionLifetime = 70 * time.Second
	minRefreshLifetime = 3700 * time.Second
)

// SessionRefresh exchanges the session's refresh token for new tokens and
// updates session in place. The same pointer is returned for convenience.
// vars replace the session variables when non-nil.
func (c *Client) SessionRefresh(
	ctx context.Context,
	session *Session,
	vars map[string]string,
	opts ...CallOption,
) (*Session, error) {
	if session == nil {
		return nil, ErrNilSession
	}

	log := c.logger()
	if session.Created() {
		access, refresh := session.lifetimes()
		if access < minSessionLifetime {
			log.Warn("session lifetime too short, raise the server token expiry",
				"lifetime", access,
				"minimum", minSessionLifetime,
			)
		}
		if refresh < minRefreshLifetime {
			log.Warn("session refresh lifetime too short, raise the server refresh token expiry",
				"lifetime", refresh,
				"minimum", minRefreshLifetime,
			)
		}
	}

	body := sessionRefreshRequest{Token: session.RefreshToken(), Vars: vars}
	if err := validate.Struct(body); err != nil {
		return nil, newValidationError("SessionRefresh", err)
	}

	resp, err := invoke(ctx, c, "SessionRefresh", opts, func(ctx context.Context) (*sessionResponse, error) {
		return sendJSON[sessionResponse](ctx, c, request{
			method: http.MethodPost,
			path:   "/v2/account/session/refresh",
			auth:   c.basicAuth(),
			body:   body,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := session.Update(resp.Token, resp.RefreshToken); err != nil {
		return nil, err
	}

	log.Debug("session refreshed",
		"user_id", session.UserID(),
		"token", cryptox.FingerprintToken(resp.Token),
		"expires", session.ExpireTime(),
	)
	return session, nil
}

// SessionLogout invalidates the session's tokens on the server. The local
// session is left untouched.
func (c *Client) SessionLogout(ctx context.Context, session *Session, opts ...CallOption) error {
	if session == nil {
		return ErrNilSession
	}

	authToken, refreshToken := session.AuthToken(), session.RefreshToken()
	_, err := invoke(ctx, c, "SessionLogout", opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.send(ctx, request{
			method: http.MethodPost,
			path:   "/v2/session/logout",
			auth:   bearer(authToken),
			body:   sessionLogoutRequest{Token: authToken, RefreshToken: refreshToken},
		}, nil)
	})
	return err
}
