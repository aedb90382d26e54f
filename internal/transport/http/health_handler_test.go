package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avdeck/internal/config"
	"avdeck/internal/deck"
	"avdeck/internal/services"
)

type builderFunc func(ctx context.Context, m *config.Manifest) (*deck.BuildState, error)

func (f builderFunc) Build(ctx context.Context, m *config.Manifest) (*deck.BuildState, error) {
	return f(ctx, m)
}

func newHealthRouter(t *testing.T, datasets *services.DatasetService) http.Handler {
	logger, _ := newTestDeps(t)
	h := NewHealthHandler(services.NewHealthService("1.2.3", "", "", nil, datasets, logger), logger)

	r := chi.NewRouter()
	r.Mount("/api/health", h.Routes())
	r.Get("/api/version", h.Version)
	return r
}

func TestHealthHandler(t *testing.T) {
	logger, _ := newTestDeps(t)
	manifest := services.StaticManifest(&config.Manifest{Name: "aviation"})

	ready := services.NewDatasetService(builderFunc(func(ctx context.Context, m *config.Manifest) (*deck.BuildState, error) {
		state := deck.NewBuildState("build-1", m.Name, config.DeckParameters{}, nil)
		state.Start()
		state.SetTable("traffic", trafficTable())
		state.Complete()
		return state, nil
	}), manifest, 0, logger)
	_, err := ready.Rebuild(context.Background())
	require.NoError(t, err)

	idle := services.NewDatasetService(builderFunc(func(ctx context.Context, m *config.Manifest) (*deck.BuildState, error) {
		t.Fatal("idle service must not build")
		return nil, nil
	}), manifest, 0, logger)

	tests := []struct {
		name           string
		datasets       *services.DatasetService
		path           string
		expectedStatus int
		expectedState  string
	}{
		{name: "health", datasets: idle, path: "/api/health", expectedStatus: http.StatusOK, expectedState: "ok"},
		{name: "live", datasets: idle, path: "/api/health/live", expectedStatus: http.StatusOK, expectedState: "alive"},
		{name: "ready after build", datasets: ready, path: "/api/health/ready", expectedStatus: http.StatusOK, expectedState: "ready"},
		{name: "not ready before build", datasets: idle, path: "/api/health/ready", expectedStatus: http.StatusServiceUnavailable, expectedState: "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHealthRouter(t, tt.datasets).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedState, body["status"])
			assert.Equal(t, "1.2.3", body["version"])
		})
	}
}

func TestHealthHandler_Version(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthRouter(t, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
}
