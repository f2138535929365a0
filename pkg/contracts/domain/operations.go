package domain

import (
	"time"
)

// OperationStatus is the lifecycle state of an operation run
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// IsTerminal reports whether no further transitions can happen
func (s OperationStatus) IsTerminal() bool {
	return s == OperationStatusCompleted || s == OperationStatusFailed || s == OperationStatusCancelled
}

// StepStatus is the lifecycle state of one step within an operation
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepSnapshot is the externally visible state of a step
type StepSnapshot struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    StepStatus     `json:"status"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
	Attempts  int            `json:"attempts,omitempty"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// OperationSnapshot is the externally visible state of an operation. It is
// what the API returns and what is pushed to WebSocket clients.
type OperationSnapshot struct {
	ID          string          `json:"operation_id"`
	Status      OperationStatus `json:"status"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"current_step,omitempty"`
	Steps       []StepSnapshot  `json:"steps"`
	StartedAt   time.Time       `json:"started_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
}
