package deck

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"avdeck/internal/infrastructure"
)

// TracerName is the instrumentation scope of build spans
const TracerName = "avdeck.deck"

// Runner executes a registry's steps in order
type Runner struct {
	registry *Registry
	tracer   trace.Tracer
	metrics  *infrastructure.DeckMetrics
	logger   *slog.Logger
}

// RunnerOption customises a Runner
type RunnerOption func(*Runner)

// WithTracer sets the tracer used for build and step spans
func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = t }
}

// WithMetrics sets the metric instruments
func WithMetrics(m *infrastructure.DeckMetrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the runner logger
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner for the registry
func NewRunner(registry *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: registry,
		tracer:   otel.Tracer(TracerName),
		metrics:  infrastructure.NoopDeckMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = infrastructure.WithComponent(r.logger, "deck")
	return r
}

// Registry returns the runner's steps
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run executes every step top to bottom and stops at the first error.
// Each step's table is stored in the state under the step ID.
func (r *Runner) Run(ctx context.Context, state *BuildState) (err error) {
	ctx = infrastructure.WithBuildID(ctx, state.ID)
	ctx, span := r.tracer.Start(ctx, "deck.build",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("build.id", state.ID),
			attribute.String("deck.name", state.Deck),
			attribute.Int("deck.steps", r.registry.Count()),
		))
	defer span.End()

	start := time.Now()
	state.Start()
	r.logger.InfoContext(ctx, "Build started",
		slog.String("deck", state.Deck),
		slog.Int("steps", r.registry.Count()))

	defer func() {
		r.metrics.RecordBuild(ctx, state.Deck, time.Since(start), err)
		if err != nil {
			state.Fail(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.ErrorContext(ctx, "Build failed",
				slog.String("step", FailedStep(err)),
				slog.String("error", err.Error()),
				slog.Duration("duration", time.Since(start)))
			return
		}
		state.Complete()
		span.SetStatus(codes.Ok, "")
		r.logger.InfoContext(ctx, "Build completed",
			slog.Int("datasets", len(state.TableIDs())),
			slog.Int("nulled_cells", state.Nulled()),
			slog.Duration("duration", time.Since(start)))
	}()

	steps := r.registry.List()
	for _, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return NewCancellationError(step.ID(), err)
		}
		if err := r.checkInputs(step, state); err != nil {
			state.GetStep(step.ID()).Fail(err)
			return err
		}
		if err := r.runStep(ctx, step, state); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) checkInputs(step Step, state *BuildState) error {
	for _, in := range step.Inputs() {
		if _, err := state.Table(in); err != nil {
			return NewDependencyError(step.ID(), in, fmt.Sprintf("input %q was not produced by an earlier step", in))
		}
	}
	for _, src := range step.Sources() {
		if !state.HasSource(src) {
			return NewDependencyError(step.ID(), src, fmt.Sprintf("source %q was not loaded", src))
		}
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, step Step, state *BuildState) error {
	ctx, span := r.tracer.Start(ctx, "deck.step."+step.ID(),
		trace.WithAttributes(
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		))
	defer span.End()

	stepState := state.GetStep(step.ID())
	stepState.Start()
	nulledBefore := state.Nulled()

	table, err := step.Execute(ctx, state)
	duration := stepState.Duration()
	if err == nil && table == nil {
		err = fmt.Errorf("step produced no table")
	}
	if err != nil {
		stepErr := NewExecutionError(step.ID(), err)
		stepState.Fail(stepErr)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.RecordStep(ctx, step.ID(), duration, 0, err)
		return stepErr
	}

	table = table.Named(step.ID())
	state.SetTable(step.ID(), table)
	stepState.Complete(table.Len())

	if nulled := state.Nulled() - nulledBefore; nulled > 0 {
		stepState.SetNulled(nulled)
		r.metrics.RecordNulledCells(ctx, step.ID(), nulled)
		r.logger.WarnContext(ctx, "Cells replaced by null",
			slog.String("step", step.ID()),
			slog.Int("cells", nulled))
	}

	span.SetAttributes(attribute.Int("step.rows", table.Len()))
	r.metrics.RecordStep(ctx, step.ID(), duration, table.Len(), nil)
	r.logger.DebugContext(ctx, "Step completed",
		slog.String("step", step.ID()),
		slog.Int("rows", table.Len()),
		slog.Int("columns", table.Width()),
		slog.Duration("duration", duration))
	return nil
}
