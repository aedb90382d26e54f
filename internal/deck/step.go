package deck

import (
	"context"
	"sync"
	"time"

	"avdeck/internal/dataprocessing"
)

// Step produces one named dataset
type Step interface {
	// ID returns the unique identifier, also the name of the produced table
	ID() string

	// Name returns the human-readable name
	Name() string

	// Sources returns the manifest source IDs the step reads
	Sources() []string

	// Inputs returns the IDs of earlier steps whose tables the step consumes
	Inputs() []string

	// Execute builds the step's table from the build state
	Execute(ctx context.Context, state *BuildState) (*dataprocessing.Table, error)
}

// ExecuteFunc is the body of a step
type ExecuteFunc func(ctx context.Context, state *BuildState) (*dataprocessing.Table, error)

type funcStep struct {
	id      string
	name    string
	sources []string
	inputs  []string
	execute ExecuteFunc
}

// NewStep creates a step from a function
func NewStep(id, name string, sources, inputs []string, execute ExecuteFunc) Step {
	return &funcStep{id: id, name: name, sources: sources, inputs: inputs, execute: execute}
}

func (s *funcStep) ID() string        { return s.id }
func (s *funcStep) Name() string      { return s.name }
func (s *funcStep) Sources() []string { return s.sources }
func (s *funcStep) Inputs() []string  { return s.inputs }

func (s *funcStep) Execute(ctx context.Context, state *BuildState) (*dataprocessing.Table, error) {
	return s.execute(ctx, state)
}

// StepStatus represents the current status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// StepState is the runtime record of one step
type StepState struct {
	mu        sync.RWMutex
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Rows      int        `json:"rows"`
	Nulled    int        `json:"nulled_cells,omitempty"`
	Error     error      `json:"-"`
}

// NewStepState creates a pending step state
func NewStepState(id, name string) *StepState {
	return &StepState{ID: id, Name: name, Status: StepStatusPending}
}

// Start marks the step as active
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the step as completed with the produced row count
func (s *StepState) Complete(rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
	s.Rows = rows
}

// Fail marks the step as failed
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
}

// SetNulled records the cells the step replaced by null
func (s *StepState) SetNulled(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Nulled = n
}

// GetStatus returns the status
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns the execution time so far
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}
