package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/retrack-dev/retrack/internal/service"
)

// RevisionHandlers provides HTTP handlers for tracker revision history.
type RevisionHandlers struct {
	Svc *service.RevisionsService
}

// List handles HTTP requests to list a tracker's revisions, newest first.
// Supports ?limit= and ?diff=true, which replaces every revision value but the
// oldest in the page with a unified diff against its predecessor.
func (h *RevisionHandlers) List(w http.ResponseWriter, r *http.Request) {
	trackerID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var params service.ListRevisionsParams
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_query",
				Err:     errors.New("limit must be a non-negative integer"),
			})
			return
		}
		params.Limit = limit
	}
	if raw := r.URL.Query().Get("diff"); raw != "" {
		diff, err := strconv.ParseBool(raw)
		if err != nil {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_query",
				Err:     errors.New("diff must be a boolean"),
			})
			return
		}
		params.CalculateDiff = diff
	}

	revisions, err := h.Svc.List(r.Context(), trackerID, params)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"revisions": revisions})
}

// Get handles HTTP requests to get a single revision.
func (h *RevisionHandlers) Get(w http.ResponseWriter, r *http.Request) {
	trackerID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	revisionID, ok := pathUUID(w, r, "rid")
	if !ok {
		return
	}

	revision, err := h.Svc.Get(r.Context(), trackerID, revisionID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, revision)
}

// Delete handles HTTP requests to delete a single revision.
func (h *RevisionHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	trackerID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	revisionID, ok := pathUUID(w, r, "rid")
	if !ok {
		return
	}

	if err := h.Svc.Remove(r.Context(), trackerID, revisionID); err != nil {
		WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear handles HTTP requests to delete a tracker's whole revision history.
func (h *RevisionHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	trackerID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Svc.Clear(r.Context(), trackerID); err != nil {
		WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
