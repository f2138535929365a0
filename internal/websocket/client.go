package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"seafoodpulse/internal/config"
	"seafoodpulse/internal/infrastructure"
)

const (
	writeWait       = 10 * time.Second
	defaultPongWait = 60 * time.Second
	maxMessageSize  = 512
	sendBufferSize  = 256
)

// Client is a middleman between one websocket connection and the hub
type Client struct {
	hub         *Hub
	conn        Connection
	send        chan []byte
	id          string
	remoteAddr  string
	connectedAt time.Time
	pongWait    time.Duration
	pingPeriod  time.Duration
	logger      *slog.Logger
}

// NewClient wraps conn. pongWait of zero uses the default; pings are sent
// at nine tenths of it.
func NewClient(hub *Hub, conn Connection, pongWait time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = hub.logger
	}
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}
	id := uuid.NewString()
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		id:          id,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		pongWait:    pongWait,
		pingPeriod:  pongWait * 9 / 10,
		logger:      logger.With(slog.String("client_id", id)),
	}
}

// ID returns the client identifier
func (c *Client) ID() string { return c.id }

// Register hands c to the hub. It returns false when the hub is stopped.
func (h *Hub) Register(c *Client) bool {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return false
	}
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) release(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// ReadPump drains the connection until it fails. Clients only send
// heartbeats, which are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.release(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("unexpected websocket close", slog.String("error", err.Error()))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	}
}

// WritePump writes queued messages and pings to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write failed", slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("websocket ping failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

// Handler upgrades requests and attaches them to hub
func Handler(hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     checkOrigin(allowedOrigins, hub.logger),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written an HTTP error
			hub.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		logger := infrastructure.LoggerWithContext(r.Context())
		client := NewClient(hub, wrapConn(conn), cfg.PongWait, infrastructure.WithComponent(logger, "websocket.client"))
		if cfg.PingPeriod > 0 && cfg.PingPeriod < client.pongWait {
			client.pingPeriod = cfg.PingPeriod
		}
		if !hub.Register(client) {
			conn.Close()
			return
		}
		go client.WritePump()
		go client.ReadPump()
	}
}

// checkOrigin accepts requests without an Origin header, same-host requests
// and the configured origins. "*" accepts everything.
func checkOrigin(allowed []string, logger *slog.Logger) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	_, allowAll := set["*"]

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		logger.WarnContext(r.Context(), "websocket origin rejected", slog.String("origin", origin))
		return false
	}
}
