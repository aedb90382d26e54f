package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "avdeck/internal/errors"
	"avdeck/internal/exporter"
	appmiddleware "avdeck/internal/middleware"
	"avdeck/internal/services"
	"avdeck/pkg/contracts/domain"
)

var datasetFormats = []string{string(domain.DatasetFormatJSON), string(domain.DatasetFormatCSV)}

// DatasetHandler serves the datasets of the last successful build
type DatasetHandler struct {
	service      DatasetServiceInterface
	params       *appmiddleware.ParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		params:       appmiddleware.NewParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListDatasets)
	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.GetDataset)
	})

	return r
}

// DatasetCtx validates the dataset id parameter
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.params.URLParam(w, r, "id", "required,max=64,datasetid"); !ok {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListDatasets handles GET /api/datasets
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.service.ListDatasets(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "failed to list datasets", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   datasets,
		"count":  len(datasets),
	})
}

// GetDataset handles GET /api/datasets/{id}?format=json|csv
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	value, ok := h.params.ValidateEnum(w, r, "format", datasetFormats, string(domain.DatasetFormatJSON))
	if !ok {
		return
	}
	format := domain.DatasetFormat(value)

	table, err := h.service.GetDataset(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, "failed to get dataset", err)
		return
	}

	h.logger.DebugContext(r.Context(), "serving dataset",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("dataset", id),
		slog.String("format", string(format)),
		slog.Int("rows", table.Len()))

	if format == domain.DatasetFormatCSV {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, id))
		if err := exporter.EncodeCSV(w, table, true); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to stream csv",
				slog.String("dataset", id),
				slog.String("error", err.Error()))
		}
		return
	}

	render.JSON(w, r, exporter.Dataset(table))
}

func (h *DatasetHandler) handleServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())))

	if errors.Is(err, services.ErrNoBuild) {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoBuild)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}
