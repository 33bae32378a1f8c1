package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/arcade/internal/devserver/domain"
	"github.com/aussiebroadwan/arcade/pkg/gamesdk"
)

type sessionResponse struct {
	Created      bool   `json:"created"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// authParams reads the create and username query parameters. create
// defaults to true.
func authParams(r *http.Request) (create bool, username string) {
	q := r.URL.Query()
	create = true
	if v := q.Get("create"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			create = b
		}
	}
	return create, q.Get("username")
}

func (rt *Router) handleAuthenticateDevice(w http.ResponseWriter, r *http.Request) {
	var body gamesdk.AccountDevice
	if !rt.decodeValid(w, r, &body) {
		return
	}

	create, username := authParams(r)
	acct, created, err := rt.AccountService.AuthenticateDevice(r.Context(), body.ID, username, create)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	rt.writeSession(w, r, acct, body.Vars, created)
}

func (rt *Router) handleAuthenticateEmail(w http.ResponseWriter, r *http.Request) {
	var body gamesdk.AccountEmail
	if !rt.decodeValid(w, r, &body) {
		return
	}

	create, username := authParams(r)
	acct, created, err := rt.AccountService.AuthenticateEmail(r.Context(), body.Email, body.Password, username, create)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	rt.writeSession(w, r, acct, body.Vars, created)
}

func (rt *Router) handleAuthenticateCustom(w http.ResponseWriter, r *http.Request) {
	var body gamesdk.AccountCustom
	if !rt.decodeValid(w, r, &body) {
		return
	}

	create, username := authParams(r)
	acct, created, err := rt.AccountService.AuthenticateCustom(r.Context(), body.ID, username, create)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	rt.writeSession(w, r, acct, body.Vars, created)
}

func (rt *Router) writeSession(w http.ResponseWriter, r *http.Request, acct domain.Account, vars map[string]string, created bool) {
	pair, err := rt.SessionService.Issue(r.Context(), acct, vars, created)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, sessionResponse{
		Created:      pair.Created,
		Token:        pair.Token,
		RefreshToken: pair.RefreshToken,
	})
}
