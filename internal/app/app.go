package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"avdeck/internal/config"
	"avdeck/internal/dataprocessing"
	"avdeck/internal/deck"
	"avdeck/internal/errors"
	"avdeck/internal/infrastructure"
	customMiddleware "avdeck/internal/middleware"
	"avdeck/internal/rates"
	"avdeck/internal/services"
	handlers "avdeck/internal/transport/http"
)

var (
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(config.AppVersion))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the dataset server
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Datasets      *services.DatasetService
	Health        *services.HealthService
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	builder  services.DeckBuilder
	manifest services.ManifestSource
}

// Option customises an Application
type Option func(*Application)

// WithDeckBuilder replaces the deck builder wired from configuration
func WithDeckBuilder(b services.DeckBuilder) Option {
	return func(a *Application) { a.builder = b }
}

// WithManifest replaces the manifest file named by the configured paths
func WithManifest(m services.ManifestSource) Option {
	return func(a *Application) { a.manifest = m }
}

// NewApplication loads configuration, logging and telemetry and assembles the server
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("build_id", BuildID))

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	return New(cfg, logger, providers)
}

// New assembles the server from an already loaded configuration. providers may be nil.
func New(cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders, opts ...Option) (*Application, error) {
	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.builder == nil {
		builder, err := NewDeckBuilder(cfg, paths, providers, logger)
		if err != nil {
			return nil, err
		}
		a.builder = builder
	}
	if a.manifest == nil {
		a.manifest = services.FileManifest(paths.ManifestFile)
	}

	a.Datasets = services.NewDatasetService(a.builder, a.manifest, cfg.Server.BuildTimeout, logger)
	a.Health = services.NewHealthService(config.AppVersion, BuildTime, BuildID, paths, a.Datasets, logger)

	if err := a.setupRouter(); err != nil {
		return nil, err
	}
	a.createServer()

	return a, nil
}

// NewDeckBuilder wires the aviation deck with its sources, exchange rates and telemetry
func NewDeckBuilder(cfg *config.Config, paths *config.Paths, providers *infrastructure.OTelProviders, logger *slog.Logger) (*deck.Builder, error) {
	policy, err := dataprocessing.ParsePolicy(cfg.Processing.CoercionPolicy)
	if err != nil {
		return nil, err
	}

	metrics, err := providers.DeckMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create deck metrics: %w", err)
	}

	ratesSrc, err := rates.NewSource(cfg.Rates, rates.WithMetrics(metrics), rates.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange-rate source: %w", err)
	}

	runner := deck.NewRunner(deck.NewAviationDeck(),
		deck.WithTracer(providers.TracerOrGlobal()),
		deck.WithMetrics(metrics),
		deck.WithLogger(logger))

	loader := deck.NewSourceLoader(paths.CredentialsFile, nil)

	return deck.NewBuilder(runner, loader, ratesSrc, policy, cfg.Processing.ReferenceCurrency), nil
}

// setupRouter configures the HTTP router with middleware and routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	errorHandler := errors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	// RequestID → RealIP → Logger → Recoverer → OTel
	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)

	if a.Config.Server.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Server.RateLimit.RPS,
			a.Config.Server.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Server.AllowedOrigins,
	}))

	r.Use(errorHandler.Middleware)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	datasetHandler := handlers.NewDatasetHandler(a.Datasets, a.Logger, errorHandler)
	buildHandler := handlers.NewBuildHandler(a.Datasets, a.Logger, errorHandler)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
		r.Mount("/datasets", datasetHandler.Routes())
		r.Mount("/builds", buildHandler.Routes())
	})

	if a.OTelProviders != nil && a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	} else {
		r.Handle(config.MetricsEndpoint, promhttp.Handler())
	}

	a.Router = r
	return nil
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start runs the initial build in the background and starts serving
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("manifest", a.Paths.ManifestFile))

	go func() {
		summary, err := a.Datasets.Rebuild(ctx)
		if err != nil {
			a.Logger.ErrorContext(ctx, "Initial build failed, datasets unavailable until a rebuild succeeds",
				slog.String("error", err.Error()))
			return
		}
		a.Logger.InfoContext(ctx, "Initial build completed",
			slog.String("build_id", summary.ID),
			slog.Int("datasets", len(summary.Datasets)))
	}()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(ctx)
}
