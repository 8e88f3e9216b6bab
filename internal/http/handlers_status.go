package httpx

import (
	"net/http"
)

// StatusHandlers serves the engine status endpoint.
type StatusHandlers struct {
	Version string
}

// Get reports that the engine is up. Also used for readiness checks.
func (h *StatusHandlers) Get(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
	})
}
