package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/retrack-dev/retrack/internal/domain/model"
	"github.com/retrack-dev/retrack/internal/service"
)

// TrackerHandlers provides HTTP handlers for tracker CRUD and manual runs.
type TrackerHandlers struct {
	Svc      *service.TrackersService
	Pipeline *service.Pipeline
}

// Create handles HTTP requests to create a new tracker.
func (h *TrackerHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTrackerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !ValidateStruct(w, req) {
		return
	}

	tracker, err := h.Svc.Create(r.Context(), req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, tracker)
}

// List handles HTTP requests to list trackers. Supports repeated ?tag= filters
// and an ?enabled= flag.
func (h *TrackerHandlers) List(w http.ResponseWriter, r *http.Request) {
	params := model.ListTrackersParams{
		Tags: r.URL.Query()["tag"],
	}
	if raw := r.URL.Query().Get("enabled"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_query",
				Err:     errors.New("enabled must be a boolean"),
			})
			return
		}
		params.Enabled = &enabled
	}

	trackers, err := h.Svc.List(r.Context(), params)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"trackers": trackers})
}

// Get handles HTTP requests to get a tracker by id.
func (h *TrackerHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	tracker, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tracker)
}

// Update handles HTTP requests to update a tracker. Absent fields stay
// untouched; tags and actions may be cleared with an explicit null.
func (h *TrackerHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req model.UpdateTrackerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !ValidateStruct(w, req) {
		return
	}

	tracker, err := h.Svc.Update(r.Context(), id, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tracker)
}

// Delete handles HTTP requests to delete a tracker along with its revisions,
// schedule and pending tasks.
func (h *TrackerHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Svc.Delete(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Run triggers an immediate fetch of the tracker, outside its schedule. The
// response carries the latest revision state after the run.
func (h *TrackerHandlers) Run(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Pipeline.Run(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// pathUUID parses a UUID path segment. Returns false if an error response was
// written.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New(name + " must be a valid uuid"),
		})
		return uuid.Nil, false
	}
	return id, true
}
