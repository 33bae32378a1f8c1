package http

import (
	"net/http"

	"github.com/aussiebroadwan/arcade/pkg/httpx"
)

type sessionRefreshRequest struct {
	Token string            `json:"token" validate:"required"`
	Vars  map[string]string `json:"vars,omitempty"`
}

func (rt *Router) handleSessionRefresh(w http.ResponseWriter, r *http.Request) {
	var body sessionRefreshRequest
	if !rt.decodeValid(w, r, &body) {
		return
	}

	pair, err := rt.SessionService.RefreshSession(r.Context(), body.Token, body.Vars)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, sessionResponse{
		Token:        pair.Token,
		RefreshToken: pair.RefreshToken,
	})
}

// handleSessionLogout revokes the caller's session. Both tokens share the
// session id, so the body is not needed to find the refresh token.
func (rt *Router) handleSessionLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		rt.writeError(w, http.StatusUnauthorized, httpx.CodeUnauthenticated, "missing session")
		return
	}

	if err := rt.SessionService.Logout(r.Context(), claims); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, struct{}{})
}
