package services

import (
	"context"
	"log/slog"

	"seafoodpulse/internal/operations"
	"seafoodpulse/pkg/contracts/domain"
	"seafoodpulse/pkg/contracts/events"
)

// Broadcaster pushes events to WebSocket clients
type Broadcaster interface {
	BroadcastUpdate(eventType, subject, status string, data interface{})
}

// OperationService starts and tracks pipeline operations for the API
type OperationService struct {
	manager *operations.Manager
	hub     Broadcaster
	logger  *slog.Logger
}

// NewOperationService wraps manager. hub may be nil.
func NewOperationService(manager *operations.Manager, hub Broadcaster, logger *slog.Logger) *OperationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationService{
		manager: manager,
		hub:     hub,
		logger:  logger.With(slog.String("component", "operation_service")),
	}
}

// Start launches an operation in the background and returns its first
// snapshot. When the operation refreshes the market table a data:refreshed
// event follows its final snapshot.
func (s *OperationService) Start(ctx context.Context, req operations.OperationRequest) (domain.OperationSnapshot, error) {
	id, err := s.manager.Start(ctx, req)
	if err != nil {
		return domain.OperationSnapshot{}, err
	}
	s.logger.InfoContext(ctx, "operation started",
		slog.String("operation_id", id),
		slog.String("step", req.Step()))

	go s.watch(id)
	return s.manager.Get(id)
}

func (s *OperationService) watch(id string) {
	snap, err := s.manager.Wait(context.Background(), id)
	if err != nil {
		s.logger.Info("operation finished with error",
			slog.String("operation_id", id),
			slog.String("status", string(snap.Status)),
			slog.String("error", err.Error()))
	}
	if s.hub == nil {
		return
	}
	for _, step := range snap.Steps {
		if step.ID == operations.StepIDProcessing && step.Status == domain.StepStatusCompleted {
			s.hub.BroadcastUpdate(string(events.MessageTypeDataRefreshed), "market_records", string(step.Status),
				map[string]interface{}{"operation_id": id, "records": step.Metadata["records"]})
			return
		}
	}
}

// Get returns the snapshot of one operation
func (s *OperationService) Get(_ context.Context, id string) (domain.OperationSnapshot, error) {
	return s.manager.Get(id)
}

// List returns the known operations, newest first
func (s *OperationService) List(_ context.Context) []domain.OperationSnapshot {
	return s.manager.List()
}

// Cancel stops a running operation
func (s *OperationService) Cancel(ctx context.Context, id string) error {
	if err := s.manager.Cancel(id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "operation cancelled", slog.String("operation_id", id))
	return nil
}

// Types describes the registered steps
func (s *OperationService) Types(_ context.Context) []operations.OperationType {
	return s.manager.Registry().Types()
}
