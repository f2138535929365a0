package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"seafoodpulse/internal/infrastructure"
	"seafoodpulse/pkg/contracts/events"
)

const broadcastQueueSize = 256

// Message is the envelope written to every client
type Message = events.Message

type outbound struct {
	msgType string
	payload []byte
}

// Hub keeps the set of connected clients and fans broadcasts out to them.
// Broadcasting never blocks the caller: when the queue is full the message
// is dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	running bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}

	logger  *slog.Logger
	metrics *hubMetrics

	totalConnections atomic.Int64
	messagesSent     atomic.Int64
	messagesDropped  atomic.Int64
}

// NewHub creates a hub. Call Start before serving clients.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan outbound, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
	}
	if m, err := newHubMetrics(); err == nil {
		h.metrics = m
	} else {
		h.logger.Warn("websocket metrics unavailable", slog.String("error", err.Error()))
	}
	return h
}

// Start runs the hub loop in a goroutine. It is idempotent.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop ends the hub loop and disconnects every client
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	close(h.quit)
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.logger.Info("hub stopped",
		slog.Int64("total_connections", h.totalConnections.Load()),
		slog.Int64("messages_sent", h.messagesSent.Load()))
}

func (h *Hub) run() {
	ctx := context.Background()
	for {
		select {
		case <-h.quit:
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			if payload, err := encode(Message{
				Type:      events.MessageTypeConnection,
				Status:    "connected",
				Data:      map[string]string{"client_id": c.id},
				Timestamp: time.Now().UTC(),
			}); err == nil {
				h.deliverLocked(ctx, c, outbound{msgType: string(events.MessageTypeConnection), payload: payload})
			}
			h.mu.Unlock()

			h.totalConnections.Add(1)
			h.metrics.connected(ctx)
			h.logger.Info("client registered",
				slog.String("client_id", c.id),
				slog.String("remote_addr", c.remoteAddr),
				slog.Int("clients", count))

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c]
			if ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				h.metrics.disconnected(ctx, time.Since(c.connectedAt))
				h.logger.Info("client unregistered",
					slog.String("client_id", c.id),
					slog.Duration("connected_for", time.Since(c.connectedAt)),
					slog.Int("clients", count))
			}

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				h.deliverLocked(ctx, c, msg)
			}
			h.mu.Unlock()
		}
	}
}

// deliverLocked queues msg for c, disconnecting clients that cannot keep
// up. h.mu must be held.
func (h *Hub) deliverLocked(ctx context.Context, c *Client, msg outbound) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg.payload:
		h.messagesSent.Add(1)
		h.metrics.sent(ctx, msg.msgType, len(msg.payload))
	default:
		delete(h.clients, c)
		close(c.send)
		h.messagesDropped.Add(1)
		h.metrics.drop(ctx, "client_buffer_full")
		h.logger.Warn("client send buffer full, disconnecting", slog.String("client_id", c.id))
	}
}

// BroadcastUpdate sends data to every client. Operation snapshots are sent
// as-is; other types carry subject and status alongside.
func (h *Hub) BroadcastUpdate(msgType, subject, status string, data interface{}) {
	msg := Message{Type: events.MessageType(msgType), Data: data, Timestamp: time.Now().UTC()}
	if msg.Type != events.MessageTypeOperationSnapshot {
		msg.Subject = subject
		msg.Status = status
	}
	h.Broadcast(msg)
}

// Broadcast queues msg for every connected client
func (h *Hub) Broadcast(msg Message) {
	payload, err := encode(msg)
	if err != nil {
		h.logger.Error("failed to encode message",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- outbound{msgType: string(msg.Type), payload: payload}:
	default:
		h.messagesDropped.Add(1)
		h.metrics.drop(context.Background(), "hub_queue_full")
		h.logger.Warn("broadcast queue full, message dropped", slog.String("type", string(msg.Type)))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubStats is a point-in-time view of the hub counters
type HubStats struct {
	ActiveClients    int   `json:"active_clients"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesDropped  int64 `json:"messages_dropped"`
}

// Stats returns the hub counters
func (h *Hub) Stats() HubStats {
	return HubStats{
		ActiveClients:    h.ClientCount(),
		TotalConnections: h.totalConnections.Load(),
		MessagesSent:     h.messagesSent.Load(),
		MessagesDropped:  h.messagesDropped.Load(),
	}
}

func encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
