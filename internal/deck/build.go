package deck

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"avdeck/internal/config"
	"avdeck/internal/dataprocessing"
	"avdeck/internal/infrastructure"
	"avdeck/internal/rates"
)

// Builder loads a manifest's sources and runs the deck over them
type Builder struct {
	runner            *Runner
	loader            *SourceLoader
	rates             rates.Source
	policy            dataprocessing.CoercionPolicy
	referenceCurrency string
	logger            *slog.Logger
}

// NewBuilder creates a builder. referenceCurrency applies when the manifest
// does not name one.
func NewBuilder(runner *Runner, loader *SourceLoader, ratesSrc rates.Source, policy dataprocessing.CoercionPolicy, referenceCurrency string) *Builder {
	if referenceCurrency == "" {
		referenceCurrency = config.DefaultReferenceCurrency
	}
	return &Builder{
		runner:            runner,
		loader:            loader,
		rates:             ratesSrc,
		policy:            policy,
		referenceCurrency: referenceCurrency,
		logger:            infrastructure.WithComponent(nil, "builder"),
	}
}

// Build runs one build. The returned state is non-nil even when the build
// fails, so callers can report per-step status.
func (b *Builder) Build(ctx context.Context, m *config.Manifest) (*BuildState, error) {
	id := uuid.NewString()
	ctx = infrastructure.WithBuildID(infrastructure.EnsureTraceID(ctx), id)

	params := m.Parameters
	if params.ReferenceCurrency == "" {
		params.ReferenceCurrency = b.referenceCurrency
	}

	sources, err := b.loader.Load(ctx, m, b.runner.Registry().SourceIDs())
	if err != nil {
		state := NewBuildState(id, m.Name, params, nil)
		state.Fail(err)
		b.logger.ErrorContext(ctx, "Source loading failed", slog.String("error", err.Error()))
		return state, err
	}

	state := NewBuildState(id, m.Name, params, sources).WithRates(b.rates)
	state.Policy = b.policy

	if err := b.runner.Run(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}
