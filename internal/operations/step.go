package operations

import (
	"context"
	"sync"
	"time"

	"seafoodpulse/pkg/contracts/domain"
)

// Step is a single unit of work in an operation
type Step interface {
	ID() string
	Name() string
	Description() string

	// Execute runs the step. Results for later steps go into state.Context.
	Execute(ctx context.Context, state *OperationState) error

	// Validate is called before Execute; an error skips the step.
	Validate(state *OperationState) error

	// Dependencies lists steps that must have completed in the same run
	Dependencies() []string
}

// StepState is the runtime state of a step
type StepState struct {
	mu        sync.RWMutex
	ID        string
	Name      string
	Status    domain.StepStatus
	StartTime *time.Time
	EndTime   *time.Time
	Progress  float64
	Message   string
	Error     error
	Attempts  int
	Metadata  map[string]any
}

// NewStepState creates a pending step state
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:       id,
		Name:     name,
		Status:   domain.StepStatusPending,
		Metadata: make(map[string]any),
	}
}

// Start marks the step active and counts an attempt
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if s.StartTime == nil {
		s.StartTime = &now
	}
	s.Status = domain.StepStatusActive
	s.Progress = 0
	s.Error = nil
	s.Attempts++
}

// Complete marks the step completed
func (s *StepState) Complete(message string) {
	s.finish(domain.StepStatusCompleted, message, nil)
	s.mu.Lock()
	s.Progress = 100
	s.mu.Unlock()
}

// Fail marks the step failed
func (s *StepState) Fail(err error) {
	s.finish(domain.StepStatusFailed, "", err)
}

// Skip marks the step skipped with a reason
func (s *StepState) Skip(reason string) {
	s.finish(domain.StepStatusSkipped, reason, nil)
}

func (s *StepState) finish(status domain.StepStatus, message string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = status
	s.Error = err
	if message != "" {
		s.Message = message
	}
}

// UpdateProgress sets progress (0-100) and a message
func (s *StepState) UpdateProgress(progress float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Progress = progress
	s.Message = message
}

// SetMetadata records a value shown alongside the step
func (s *StepState) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Metadata[key] = value
}

// CurrentStatus returns the status under lock
func (s *StepState) CurrentStatus() domain.StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Snapshot returns a copy safe to hand out
func (s *StepState) Snapshot() domain.StepSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.StepSnapshot{
		ID:        s.ID,
		Name:      s.Name,
		Status:    s.Status,
		Progress:  int(s.Progress),
		Message:   s.Message,
		Attempts:  s.Attempts,
		StartedAt: s.StartTime,
		EndedAt:   s.EndTime,
	}
	if s.Error != nil {
		snap.Error = s.Error.Error()
	}
	if len(s.Metadata) > 0 {
		snap.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			snap.Metadata[k] = v
		}
	}
	return snap
}

// BaseStep provides identity and a permissive Validate for step types
type BaseStep struct {
	id           string
	name         string
	description  string
	dependencies []string
}

// NewBaseStep creates a base step
func NewBaseStep(id, name, description string, dependencies ...string) BaseStep {
	if dependencies == nil {
		dependencies = []string{}
	}
	return BaseStep{id: id, name: name, description: description, dependencies: dependencies}
}

func (b *BaseStep) ID() string                           { return b.id }
func (b *BaseStep) Name() string                         { return b.name }
func (b *BaseStep) Description() string                  { return b.description }
func (b *BaseStep) Dependencies() []string               { return b.dependencies }
func (b *BaseStep) Validate(state *OperationState) error { return nil }
