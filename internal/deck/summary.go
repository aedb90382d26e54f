package deck

import (
	"avdeck/internal/exporter"
	apperrors "avdeck/internal/errors"
	"avdeck/pkg/contracts/domain"
)

// Summary returns a point-in-time report of the step
func (s *StepState) Summary() domain.StepSummary {
	duration := s.Duration()

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.StepSummary{
		ID:          s.ID,
		Name:        s.Name,
		Status:      string(s.Status),
		Rows:        s.Rows,
		NulledCells: s.Nulled,
		DurationMs:  duration.Milliseconds(),
	}
	if s.Error != nil {
		summary.Error = s.Error.Error()
	}
	return summary
}

// Summary returns a point-in-time report of the build, steps in execution order
func (b *BuildState) Summary() domain.BuildSummary {
	b.mu.RLock()
	summary := domain.BuildSummary{
		ID:          b.ID,
		Deck:        b.Deck,
		Status:      string(b.Status),
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		NulledCells: b.nulled,
		Steps:       make([]domain.StepSummary, 0, len(b.stepOrder)),
		Datasets:    make([]domain.DatasetSummary, 0, len(b.order)),
	}
	if b.Error != nil {
		summary.Error = b.Error.Error()
		summary.ErrorType = string(apperrors.TypeOf(b.Error))
	}
	steps := make([]*StepState, 0, len(b.stepOrder))
	for _, id := range b.stepOrder {
		steps = append(steps, b.Steps[id])
	}
	for _, id := range b.order {
		summary.Datasets = append(summary.Datasets, exporter.Summary(b.tables[id]))
	}
	b.mu.RUnlock()

	for _, s := range steps {
		summary.Steps = append(summary.Steps, s.Summary())
	}
	return summary
}
