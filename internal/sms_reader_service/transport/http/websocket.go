package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 5 * time.Second
	wsSendBuffer = 16
)

// WSMessage is the envelope pushed to UI clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// wsClient owns one connection; only its writer goroutine writes to conn.
type wsClient struct {
	conn *websocket.Conn
	send chan WSMessage
}

// WSHub tracks connected websocket clients and fans out broadcasts.
type WSHub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	logger   *slog.Logger
}

func NewWSHub(logger *slog.Logger) *WSHub {
	return &WSHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
		logger:  logger.With("component", "ws_hub"),
	}
}

// Broadcast queues a message for every client without blocking. A client whose
// queue is full is disconnected.
func (h *WSHub) Broadcast(messageType string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := WSMessage{Type: messageType, Payload: payload}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("Dropping slow websocket client", "type", messageType)
			h.removeLocked(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the client registered until it disconnects.
func (h *WSHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.WarnContext(r.Context(), "Websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan WSMessage, wsSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.DebugContext(r.Context(), "Websocket client connected", "remote", r.RemoteAddr)

	go h.writePump(c)

	defer func() {
		h.mu.Lock()
		h.removeLocked(c)
		h.mu.Unlock()
	}()

	// client messages are ignored; reading detects disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends queued messages until the queue is closed or a write fails.
func (h *WSHub) writePump(c *wsClient) {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.logger.Debug("Websocket write failed", "error", err, "remote", c.conn.RemoteAddr().String())
			return
		}
	}

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(time.Second))
}

// removeLocked unregisters c and closes its queue; h.mu must be held.
func (h *WSHub) removeLocked(c *wsClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Close disconnects every client.
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}
