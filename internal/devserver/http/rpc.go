package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/arcade/pkg/gamesdk"
	"github.com/aussiebroadwan/arcade/pkg/httpx"
)

// handleRPC runs a registered function. The payload arrives as a JSON
// string; no body means an empty payload.
func (rt *Router) handleRPC(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var payload string
	if err := rt.decode(r, &payload); err != nil && !errors.Is(err, errEmptyBody) {
		rt.writeError(w, http.StatusBadRequest, httpx.CodeInvalidArgument, "payload must be a JSON string")
		return
	}

	userID, _ := httpx.UserIDFromContext(r.Context())
	out, err := rt.RPC.Call(r.Context(), id, userID, payload)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, gamesdk.RPCResult{ID: id, Payload: out})
}
