// Package events defines the messages pushed to WebSocket clients.
package events

import (
	"time"
)

// MessageType identifies a WebSocket message
type MessageType string

const (
	// MessageTypeOperationSnapshot carries a full domain.OperationSnapshot
	MessageTypeOperationSnapshot MessageType = "operation:snapshot"

	// MessageTypeDataRefreshed announces new market records in the store
	MessageTypeDataRefreshed MessageType = "data:refreshed"

	MessageTypeConnection MessageType = "connection"
)

// Message is the envelope written to every client. Subject and Status are
// empty for snapshots, which identify themselves.
type Message struct {
	Type      MessageType `json:"type"`
	Subject   string      `json:"subject,omitempty"`
	Status    string      `json:"status,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}
