package operations

import (
	"log/slog"
)

// StatusBroadcaster pushes operation snapshots to WebSocket clients.
// A nil hub makes it a no-op, which is what the CLI uses.
type StatusBroadcaster struct {
	hub    WebSocketHub
	logger *slog.Logger
}

// NewStatusBroadcaster creates a broadcaster for hub
func NewStatusBroadcaster(hub WebSocketHub, logger *slog.Logger) *StatusBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusBroadcaster{hub: hub, logger: logger}
}

// Publish sends the current snapshot of state
func (b *StatusBroadcaster) Publish(state *OperationState) {
	if b == nil || b.hub == nil || state == nil {
		return
	}
	snap := state.Snapshot()
	b.hub.BroadcastUpdate(EventTypeSnapshot, snap.ID, string(snap.Status), snap)
	b.logger.Debug("operation snapshot broadcast",
		slog.String("operation_id", snap.ID),
		slog.String("status", string(snap.Status)),
		slog.Int("progress", snap.Progress),
		slog.String("current_step", snap.CurrentStep))
}
