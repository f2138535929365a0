package http

import (
	"context"

	"seafoodpulse/internal/operations"
	"seafoodpulse/pkg/contracts/domain"
)

// OperationServiceInterface defines operation control for the API
type OperationServiceInterface interface {
	Start(ctx context.Context, req operations.OperationRequest) (domain.OperationSnapshot, error)
	Get(ctx context.Context, id string) (domain.OperationSnapshot, error)
	List(ctx context.Context) []domain.OperationSnapshot
	Cancel(ctx context.Context, id string) error
	Types(ctx context.Context) []operations.OperationType
}
