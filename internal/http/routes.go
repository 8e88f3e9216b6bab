package httpx

import (
	"log/slog"
	"net/http"

	"github.com/retrack-dev/retrack/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Trackers  *service.TrackersService
	Revisions *service.RevisionsService
	Pipeline  *service.Pipeline
	Version   string
	Logger    *slog.Logger
}

// NewRouter creates and configures the admin API router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	statusHandlers := &StatusHandlers{Version: services.Version}
	trackerHandlers := &TrackerHandlers{Svc: services.Trackers, Pipeline: services.Pipeline}
	revisionHandlers := &RevisionHandlers{Svc: services.Revisions}

	mux.HandleFunc("GET /api/status", statusHandlers.Get)
	registerTrackerRoutes(mux, trackerHandlers)
	registerRevisionRoutes(mux, revisionHandlers)

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Recover(logger)(Logging(logger)(mux))
}

func registerTrackerRoutes(mux *http.ServeMux, h *TrackerHandlers) {
	mux.HandleFunc("GET /api/trackers", h.List)
	mux.HandleFunc("POST /api/trackers", h.Create)
	mux.HandleFunc("GET /api/trackers/{id}", h.Get)
	mux.HandleFunc("PUT /api/trackers/{id}", h.Update)
	mux.HandleFunc("DELETE /api/trackers/{id}", h.Delete)
	mux.HandleFunc("POST /api/trackers/{id}/run", h.Run)
}

func registerRevisionRoutes(mux *http.ServeMux, h *RevisionHandlers) {
	mux.HandleFunc("GET /api/trackers/{id}/revisions", h.List)
	mux.HandleFunc("DELETE /api/trackers/{id}/revisions", h.Clear)
	mux.HandleFunc("GET /api/trackers/{id}/revisions/{rid}", h.Get)
	mux.HandleFunc("DELETE /api/trackers/{id}/revisions/{rid}", h.Delete)
}
