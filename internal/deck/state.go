package deck

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"avdeck/internal/config"
	"avdeck/internal/dataprocessing"
	apperrors "avdeck/internal/errors"
	"avdeck/internal/rates"
)

// BuildStatus is the overall status of a build
type BuildStatus string

const (
	BuildStatusPending   BuildStatus = "pending"
	BuildStatusRunning   BuildStatus = "running"
	BuildStatusCompleted BuildStatus = "completed"
	BuildStatusFailed    BuildStatus = "failed"
)

// BuildState carries the inputs of one build and the tables its steps produce
type BuildState struct {
	mu sync.RWMutex

	ID        string                 `json:"id"`
	Deck      string                 `json:"deck"`
	Params    config.DeckParameters  `json:"parameters"`
	Status    BuildStatus            `json:"status"`
	StartTime time.Time              `json:"start_time"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Steps     map[string]*StepState  `json:"steps"`
	Error     error                  `json:"-"`

	// Policy applies to every coercion in the build
	Policy dataprocessing.CoercionPolicy `json:"-"`
	// ReferenceCurrency is the currency monetary columns are normalised into
	ReferenceCurrency string `json:"reference_currency"`

	sources  map[string]*dataprocessing.Table
	tables   map[string]*dataprocessing.Table
	order     []string
	stepOrder []string
	nulled    int
	ratesSrc rates.Source
	rates    *dataprocessing.ExchangeRates
}

// NewBuildState creates a pending build over the loaded sources
func NewBuildState(id, deck string, params config.DeckParameters, sources map[string]*dataprocessing.Table) *BuildState {
	if sources == nil {
		sources = make(map[string]*dataprocessing.Table)
	}
	return &BuildState{
		ID:                id,
		Deck:              deck,
		Params:            params,
		Status:            BuildStatusPending,
		StartTime:         time.Now(),
		Steps:             make(map[string]*StepState),
		ReferenceCurrency: params.Currency(config.DefaultReferenceCurrency),
		sources:           sources,
		tables:            make(map[string]*dataprocessing.Table),
	}
}

// WithRates sets the exchange-rate source consulted by ExchangeRates
func (b *BuildState) WithRates(src rates.Source) *BuildState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ratesSrc = src
	b.rates = nil
	return b
}

// Start marks the build as running
func (b *BuildState) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Status = BuildStatusRunning
	b.StartTime = time.Now()
}

// Complete marks the build as completed
func (b *BuildState) Complete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	b.EndTime = &now
	b.Status = BuildStatusCompleted
}

// Fail marks the build as failed
func (b *BuildState) Fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	b.EndTime = &now
	b.Status = BuildStatusFailed
	b.Error = err
}

// GetStatus returns the build status
func (b *BuildState) GetStatus() BuildStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.Status
}

// Source returns a loaded source table
func (b *BuildState) Source(id string) (*dataprocessing.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.sources[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("source %q", id)).WithContext("source", id)
	}
	return t, nil
}

// HasSource reports whether a source was loaded
func (b *BuildState) HasSource(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.sources[id]
	return ok
}

// Table returns the table produced by an earlier step
func (b *BuildState) Table(id string) (*dataprocessing.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.tables[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("dataset %q", id)).WithContext("dataset", id)
	}
	return t, nil
}

// SetTable records a step's output
func (b *BuildState) SetTable(id string, t *dataprocessing.Table) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.tables[id]; !exists {
		b.order = append(b.order, id)
	}
	b.tables[id] = t
}

// Tables returns the produced tables in production order
func (b *BuildState) Tables() []*dataprocessing.Table {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*dataprocessing.Table, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.tables[id])
	}
	return out
}

// TableIDs returns the produced table IDs in production order
func (b *BuildState) TableIDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, len(b.order))
	copy(ids, b.order)
	return ids
}

// SetStep records a step's state
func (b *BuildState) SetStep(id string, s *StepState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.Steps[id]; !exists {
		b.stepOrder = append(b.stepOrder, id)
	}
	b.Steps[id] = s
}

// GetStep returns a step's state
func (b *BuildState) GetStep(id string) *StepState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.Steps[id]
}

// AddNulled counts cells replaced by null under NullOnError
func (b *BuildState) AddNulled(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nulled += n
}

// Nulled returns the number of cells replaced by null so far
func (b *BuildState) Nulled() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nulled
}

// ExchangeRates returns the rate table quoted against the reference currency.
// The table is fetched on first use and reused for the rest of the build.
func (b *BuildState) ExchangeRates(ctx context.Context) (dataprocessing.ExchangeRates, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rates != nil {
		return *b.rates, nil
	}
	if b.ratesSrc == nil {
		return dataprocessing.ExchangeRates{}, apperrors.NewConfigError("no exchange-rate source configured", nil)
	}

	table, err := b.ratesSrc.Rates(ctx, b.ReferenceCurrency)
	if err != nil {
		return dataprocessing.ExchangeRates{}, err
	}
	if !strings.EqualFold(table.Reference, b.ReferenceCurrency) {
		return dataprocessing.ExchangeRates{}, apperrors.NewConfigError(
			fmt.Sprintf("rates are quoted against %s, deck uses %s", table.Reference, b.ReferenceCurrency), nil)
	}
	b.rates = &table
	return table, nil
}
