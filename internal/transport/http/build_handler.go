package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "avdeck/internal/errors"
	"avdeck/internal/services"
)

// BuildHandler triggers deck builds and reports on them
type BuildHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewBuildHandler creates a new build handler
func NewBuildHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *BuildHandler {
	return &BuildHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "build_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the build routes
func (h *BuildHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Rebuild)
	r.Get("/latest", h.LatestBuild)
	return r
}

// Rebuild handles POST /api/builds. It waits for the build to finish.
func (h *BuildHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.InfoContext(r.Context(), "rebuild requested", slog.String("request_id", reqID))

	summary, err := h.service.Rebuild(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "rebuild failed",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()))

		if errors.Is(err, services.ErrBuildCancelled) {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		problem := h.errorHandler.ErrorToProblem(err, r).
			WithExtension("trace_id", reqID)
		if summary.ID != "" {
			problem.WithExtension("build", summary)
		}
		render.Render(w, r, problem)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// LatestBuild handles GET /api/builds/latest
func (h *BuildHandler) LatestBuild(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.service.LastBuild()
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("build"))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}
