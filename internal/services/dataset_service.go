package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"avdeck/internal/config"
	"avdeck/internal/dataprocessing"
	"avdeck/internal/deck"
	apperrors "avdeck/internal/errors"
	"avdeck/internal/exporter"
	"avdeck/internal/infrastructure"
	"avdeck/pkg/contracts/domain"
)

// DeckBuilder runs one deck build
type DeckBuilder interface {
	Build(ctx context.Context, m *config.Manifest) (*deck.BuildState, error)
}

// ManifestSource returns the manifest to build. It is called once per build
// so edits to the manifest file are picked up by the next rebuild.
type ManifestSource func() (*config.Manifest, error)

// StaticManifest serves a manifest that never changes
func StaticManifest(m *config.Manifest) ManifestSource {
	return func() (*config.Manifest, error) { return m, nil }
}

// FileManifest loads the manifest from path on every build
func FileManifest(path string) ManifestSource {
	return func() (*config.Manifest, error) { return config.LoadManifest(path) }
}

// DatasetService runs deck builds and serves the datasets of the last successful one
type DatasetService struct {
	builder  DeckBuilder
	manifest ManifestSource
	timeout  time.Duration
	group    singleflight.Group

	mu      sync.RWMutex
	current *deck.BuildState
	last    *deck.BuildState

	logger *slog.Logger
}

// NewDatasetService creates a dataset service. A zero timeout uses the default build timeout.
func NewDatasetService(builder DeckBuilder, manifest ManifestSource, timeout time.Duration, logger *slog.Logger) *DatasetService {
	if timeout <= 0 {
		timeout = config.DefaultBuildTimeout
	}
	return &DatasetService{
		builder:  builder,
		manifest: manifest,
		timeout:  timeout,
		logger:   infrastructure.WithComponent(logger, "dataset_service"),
	}
}

// Rebuild runs a build, or joins the one already in flight.
// The build outlives a cancelled caller so that other waiters still get a result.
func (s *DatasetService) Rebuild(ctx context.Context) (domain.BuildSummary, error) {
	ch := s.group.DoChan("build", func() (interface{}, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.build(buildCtx)
	})

	select {
	case <-ctx.Done():
		return domain.BuildSummary{}, fmt.Errorf("%w: %w", ErrBuildCancelled, ctx.Err())
	case res := <-ch:
		state, _ := res.Val.(*deck.BuildState)
		if state == nil {
			return domain.BuildSummary{}, res.Err
		}
		if res.Shared {
			s.logger.DebugContext(ctx, "Joined build in flight", slog.String("build_id", state.ID))
		}
		return state.Summary(), res.Err
	}
}

func (s *DatasetService) build(ctx context.Context) (*deck.BuildState, error) {
	m, err := s.manifest()
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load manifest", slog.String("error", err.Error()))
		return nil, err
	}

	state, err := s.builder.Build(ctx, m)

	s.mu.Lock()
	if state != nil {
		s.last = state
	}
	if err == nil {
		s.current = state
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.ErrorContext(ctx, "Rebuild failed, keeping previous datasets",
			slog.String("deck", m.Name),
			slog.String("error", err.Error()))
		return state, err
	}

	s.logger.InfoContext(ctx, "Rebuild completed",
		slog.String("deck", m.Name),
		slog.String("build_id", state.ID),
		slog.Int("datasets", len(state.TableIDs())))
	return state, nil
}

// Current returns the last successful build
func (s *DatasetService) Current() (*deck.BuildState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// LastBuild returns the summary of the most recent build attempt
func (s *DatasetService) LastBuild() (domain.BuildSummary, bool) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		return domain.BuildSummary{}, false
	}
	return last.Summary(), true
}

// ListDatasets lists the datasets of the last successful build in production order
func (s *DatasetService) ListDatasets(ctx context.Context) ([]domain.DatasetSummary, error) {
	state, ok := s.Current()
	if !ok {
		return nil, ErrNoBuild
	}

	tables := state.Tables()
	out := make([]domain.DatasetSummary, len(tables))
	for i, t := range tables {
		out[i] = exporter.Summary(t)
	}
	return out, nil
}

// GetDataset returns one dataset of the last successful build
func (s *DatasetService) GetDataset(ctx context.Context, id string) (*dataprocessing.Table, error) {
	state, ok := s.Current()
	if !ok {
		return nil, ErrNoBuild
	}

	t, err := state.Table(id)
	if err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("dataset %q", id)).WithContext("dataset", id)
	}
	return t, nil
}
