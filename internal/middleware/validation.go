package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	apierrors "avdeck/internal/errors"
)

var datasetIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParamValidator validates URL and query parameters and renders problem
// details for the ones that fail
type ParamValidator struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewParamValidator creates a parameter validator
func NewParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ParamValidator {
	v := validator.New()
	v.RegisterValidation("datasetid", isDatasetID)

	return &ParamValidator{
		validator:    v,
		logger:       logger.With(slog.String("component", "param_validator")),
		errorHandler: errorHandler,
	}
}

// URLParam validates a chi URL parameter against validator tags such as "required,datasetid"
func (v *ParamValidator) URLParam(w http.ResponseWriter, r *http.Request, param, tag string) (string, bool) {
	value := chi.URLParam(r, param)
	if err := v.validator.Var(value, tag); err != nil {
		v.logger.DebugContext(r.Context(), "invalid url parameter",
			slog.String("param", param),
			slog.String("value", value),
			slog.String("error", err.Error()))
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("invalid %s %q", param, value)))
		return "", false
	}
	return value, true
}

// ValidateEnum validates an enum query parameter
func (v *ParamValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param string, allowed []string, defaultValue string) (string, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}

	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return a, true
		}
	}

	v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", "))))
	return "", false
}

func isDatasetID(fl validator.FieldLevel) bool {
	return datasetIDPattern.MatchString(fl.Field().String())
}
