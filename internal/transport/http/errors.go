package http

import (
	"errors"
	"fmt"
	"net/http"

	apierrors "seafoodpulse/internal/errors"
	"seafoodpulse/internal/operations"
	"seafoodpulse/internal/services"
)

// toAPIError maps service and operation errors onto API errors. Errors it
// does not recognise pass through for the ErrorHandler to classify.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, services.ErrNoData):
		return apierrors.ErrNoData
	case errors.Is(err, services.ErrInsightsNotFound):
		return apierrors.NotFoundError("insights")
	case errors.Is(err, services.ErrInvalidInput):
		return apierrors.InvalidRequestWithError(err)
	case errors.Is(err, services.ErrServiceUnavailable):
		return apierrors.ErrServiceUnavailable
	case errors.Is(err, operations.ErrOperationNotFound):
		return apierrors.ErrOperationNotFound
	case errors.Is(err, operations.ErrOperationExists):
		return apierrors.New(http.StatusConflict, "CONFLICT", "operation already exists")
	case errors.Is(err, operations.ErrOperationFinished):
		return apierrors.New(http.StatusConflict, "CONFLICT", "operation has already finished")
	}

	var opErr *operations.OperationError
	if errors.As(err, &opErr) {
		switch opErr.Type {
		case operations.ErrorTypeNotFound:
			return apierrors.NotFoundError(fmt.Sprintf("step %q", opErr.Step))
		case operations.ErrorTypeValidation:
			return apierrors.ErrValidation("parameters", opErr.Message)
		case operations.ErrorTypeInvalidState:
			return apierrors.New(http.StatusConflict, "CONFLICT", opErr.Message)
		}
	}
	return err
}
