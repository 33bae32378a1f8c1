package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/arcade/pkg/httpx"
)

// HealthResponse is the body of /livez.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// LivezHandler always answers 200 while the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// handleHealthcheck answers 200 when the store is reachable.
func (rt *Router) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if err := rt.store.Ping(r.Context()); err != nil {
		rt.writeError(w, http.StatusServiceUnavailable, httpx.CodeUnavailable, "store unavailable")
		return
	}
	rt.writeJSON(w, http.StatusOK, struct{}{})
}
