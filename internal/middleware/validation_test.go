package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	apierrors "avdeck/internal/errors"
	"avdeck/internal/shared/testutil"
)

func newTestValidator(t *testing.T) *ParamValidator {
	logger, _ := testutil.NewTestLogger(t)
	return NewParamValidator(logger, apierrors.NewErrorHandler(logger, false))
}

func TestParamValidator_URLParam(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		wantOK     bool
		wantStatus int
	}{
		{name: "plain id", id: "traffic_by_airport", wantOK: true, wantStatus: http.StatusOK},
		{name: "dashes and digits", id: "fares-2019", wantOK: true, wantStatus: http.StatusOK},
		{name: "dot rejected", id: "fares.csv", wantStatus: http.StatusBadRequest},
		{name: "too long", id: strings.Repeat("a", 65), wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestValidator(t)

			var got string
			var ok bool
			r := chi.NewRouter()
			r.Get("/datasets/{id}", func(w http.ResponseWriter, r *http.Request) {
				got, ok = v.URLParam(w, r, "id", "required,max=64,datasetid")
				if ok {
					w.WriteHeader(http.StatusOK)
				}
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/datasets/"+tt.id, nil))

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantOK {
				assert.Equal(t, tt.id, got)
			} else {
				assert.Contains(t, rec.Body.String(), "/errors/validation")
			}
		})
	}
}

func TestParamValidator_ValidateEnum(t *testing.T) {
	allowed := []string{"json", "csv"}

	tests := []struct {
		name   string
		query  string
		want   string
		wantOK bool
	}{
		{name: "default when absent", query: "", want: "json", wantOK: true},
		{name: "case folded", query: "?format=CSV", want: "csv", wantOK: true},
		{name: "unknown value", query: "?format=xml", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestValidator(t)
			rec := httptest.NewRecorder()

			got, ok := v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/datasets/x"+tt.query, nil), "format", allowed, "json")

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			if !tt.wantOK {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			}
		})
	}
}
