package operations

import (
	"sync"
	"time"

	"seafoodpulse/pkg/contracts/domain"
)

// OperationState is the mutable state of one operation run
type OperationState struct {
	mu sync.RWMutex

	ID        string
	Status    domain.OperationStatus
	StartTime time.Time
	UpdatedAt time.Time
	EndTime   *time.Time
	Error     error

	steps       map[string]*StepState
	order       []string
	currentStep string

	// Context carries results from one step to the next
	Context map[string]any

	// Parameters from the request
	Parameters map[string]any

	notify func()
}

// NewOperationState creates a pending operation state
func NewOperationState(id string) *OperationState {
	now := time.Now()
	return &OperationState{
		ID:         id,
		Status:     domain.OperationStatusPending,
		StartTime:  now,
		UpdatedAt:  now,
		steps:      make(map[string]*StepState),
		Context:    make(map[string]any),
		Parameters: make(map[string]any),
	}
}

// Start marks the operation running
func (s *OperationState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = domain.OperationStatusRunning
	s.StartTime = time.Now()
	s.UpdatedAt = s.StartTime
}

// Complete marks the operation completed
func (s *OperationState) Complete() {
	s.finish(domain.OperationStatusCompleted, nil)
}

// Fail marks the operation failed
func (s *OperationState) Fail(err error) {
	s.finish(domain.OperationStatusFailed, err)
}

// Cancel marks the operation cancelled
func (s *OperationState) Cancel() {
	s.finish(domain.OperationStatusCancelled, nil)
}

func (s *OperationState) finish(status domain.OperationStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status.IsTerminal() {
		return
	}
	now := time.Now()
	s.EndTime = &now
	s.UpdatedAt = now
	s.Status = status
	s.Error = err
	s.currentStep = ""
}

// CurrentStatus returns the status under lock
func (s *OperationState) CurrentStatus() domain.OperationStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// AddStep appends a pending step; order of calls is the display order
func (s *OperationState) AddStep(step *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[step.ID]; !ok {
		s.order = append(s.order, step.ID)
	}
	s.steps[step.ID] = step
}

// Step returns the state of stepID, or nil
func (s *OperationState) Step(stepID string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps[stepID]
}

// SetCurrentStep records the step being executed
func (s *OperationState) SetCurrentStep(stepID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentStep = stepID
	s.UpdatedAt = time.Now()
}

// Touch bumps the update time
func (s *OperationState) Touch() {
	s.mu.Lock()
	s.UpdatedAt = time.Now()
	s.mu.Unlock()
}

// ReportProgress updates a step's progress and notifies listeners
func (s *OperationState) ReportProgress(stepID string, progress float64, message string) {
	st := s.Step(stepID)
	if st == nil {
		return
	}
	st.UpdateProgress(progress, message)
	s.Touch()

	s.mu.RLock()
	notify := s.notify
	s.mu.RUnlock()
	if notify != nil {
		notify()
	}
}

func (s *OperationState) setNotify(fn func()) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// SetContext stores a value for later steps
func (s *OperationState) SetContext(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Context[key] = value
}

// GetContext reads a value stored by an earlier step
func (s *OperationState) GetContext(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Context[key]
	return v, ok
}

// Parameter returns a request parameter as a string
func (s *OperationState) Parameter(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, _ := s.Parameters[key].(string)
	return v
}

// Progress is the mean step progress, with finished steps counting as 100
func (s *OperationState) Progress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progressLocked()
}

func (s *OperationState) progressLocked() int {
	if len(s.order) == 0 {
		if s.Status == domain.OperationStatusCompleted {
			return 100
		}
		return 0
	}
	var total float64
	for _, id := range s.order {
		st := s.steps[id]
		switch st.CurrentStatus() {
		case domain.StepStatusCompleted, domain.StepStatusSkipped, domain.StepStatusFailed:
			total += 100
		default:
			st.mu.RLock()
			total += st.Progress
			st.mu.RUnlock()
		}
	}
	return int(total / float64(len(s.order)))
}

// Snapshot returns an immutable copy for the API and WebSocket clients
func (s *OperationState) Snapshot() domain.OperationSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.OperationSnapshot{
		ID:          s.ID,
		Status:      s.Status,
		Progress:    s.progressLocked(),
		CurrentStep: s.currentStep,
		Steps:       make([]domain.StepSnapshot, 0, len(s.order)),
		StartedAt:   s.StartTime,
		UpdatedAt:   s.UpdatedAt,
		CompletedAt: s.EndTime,
	}
	for _, id := range s.order {
		snap.Steps = append(snap.Steps, s.steps[id].Snapshot())
	}
	if s.Error != nil {
		snap.Error = s.Error.Error()
	}
	return snap
}
