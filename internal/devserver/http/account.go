package http

import (
	"net/http"

	"github.com/aussiebroadwan/arcade/internal/devserver/domain"
	"github.com/aussiebroadwan/arcade/pkg/gamesdk"
	"github.com/aussiebroadwan/arcade/pkg/httpx"
)

func (rt *Router) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpx.UserIDFromContext(r.Context())

	acct, err := rt.AccountService.GetAccount(r.Context(), userID)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	rt.writeJSON(w, http.StatusOK, gamesdk.Account{
		User: gamesdk.User{
			ID:          acct.ID,
			Username:    acct.Username,
			DisplayName: acct.DisplayName,
			AvatarURL:   acct.AvatarURL,
			LangTag:     acct.LangTag,
			Location:    acct.Location,
			Timezone:    acct.Timezone,
			Metadata:    acct.Metadata,
			Online:      true,
			CreateTime:  acct.CreatedAt,
			UpdateTime:  acct.UpdatedAt,
		},
		Email:    acct.Email,
		CustomID: acct.CustomID,
		Devices:  acct.DeviceIDs,
	})
}

func (rt *Router) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var body gamesdk.UpdateAccountRequest
	if !rt.decodeValid(w, r, &body) {
		return
	}

	userID, _ := httpx.UserIDFromContext(r.Context())
	err := rt.AccountService.UpdateAccount(r.Context(), userID, domain.AccountUpdate{
		Username:    body.Username,
		DisplayName: body.DisplayName,
		AvatarURL:   body.AvatarURL,
		LangTag:     body.LangTag,
		Location:    body.Location,
		Timezone:    body.Timezone,
	})
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, struct{}{})
}
