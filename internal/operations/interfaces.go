package operations

// WebSocketHub receives operation snapshots for connected clients
type WebSocketHub interface {
	BroadcastUpdate(eventType, step, status string, metadata interface{})
}
