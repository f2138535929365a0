package operations

import (
	"errors"
	"fmt"

	apperrors "seafoodpulse/internal/errors"
)

// ErrorType classifies operation errors
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeDependency   ErrorType = "dependency"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeInvalidState ErrorType = "invalid_state"
)

// OperationError is an error raised while running a step
type OperationError struct {
	Type      ErrorType      `json:"type"`
	Step      string         `json:"step,omitempty"`
	Message   string         `json:"message"`
	Cause     error          `json:"-"`
	Context   map[string]any `json:"context,omitempty"`
	Retryable bool           `json:"retryable"`
}

func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches sentinel errors by type and message
func (e *OperationError) Is(target error) bool {
	t, ok := target.(*OperationError)
	if !ok || e == nil {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message && t.Step == ""
}

// NewValidationError reports a step whose preconditions are not met
func NewValidationError(step, message string) *OperationError {
	return &OperationError{Type: ErrorTypeValidation, Step: step, Message: message}
}

// NewDependencyError reports a step whose dependency did not complete
func NewDependencyError(step, dependsOn string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeDependency,
		Step:    step,
		Message: fmt.Sprintf("dependency %s did not complete", dependsOn),
		Context: map[string]any{"depends_on": dependsOn},
	}
}

// NewExecutionError wraps a step failure
func NewExecutionError(step string, cause error, retryable bool) *OperationError {
	return &OperationError{
		Type:      ErrorTypeExecution,
		Step:      step,
		Message:   "step execution failed",
		Cause:     cause,
		Retryable: retryable,
	}
}

// NewTimeoutError reports a step that ran past its deadline
func NewTimeoutError(step, timeout string) *OperationError {
	return &OperationError{
		Type:      ErrorTypeTimeout,
		Step:      step,
		Message:   fmt.Sprintf("step exceeded timeout of %s", timeout),
		Context:   map[string]any{"timeout": timeout},
		Retryable: true,
	}
}

// NewCancellationError reports a cancelled operation
func NewCancellationError(step string) *OperationError {
	return &OperationError{Type: ErrorTypeCancellation, Step: step, Message: "operation was cancelled"}
}

// IsRetryable reports whether a step failure is worth another attempt.
// Network errors from the scraper are retryable even when not wrapped.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		if opErr.Retryable {
			return true
		}
		if opErr.Cause == nil {
			return false
		}
		err = opErr.Cause
	}
	return apperrors.IsType(err, apperrors.ErrTypeNetwork)
}

// GetErrorType returns the operation error type of err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ErrorTypeExecution
}

var (
	ErrOperationNotFound = &OperationError{Type: ErrorTypeNotFound, Message: "operation not found"}
	ErrStepNotFound      = &OperationError{Type: ErrorTypeNotFound, Message: "step not found"}
	ErrOperationExists   = &OperationError{Type: ErrorTypeInvalidState, Message: "operation already exists"}
	ErrOperationFinished = &OperationError{Type: ErrorTypeInvalidState, Message: "operation has already finished"}
)
