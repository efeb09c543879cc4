// Package websocket pushes realtime notifications to connected browsers.
// Connections are grouped by user id; a message for a user reaches every
// open tab of that user.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Envelope is the frame written to clients
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// HubConfig holds websocket settings
type HubConfig struct {
	// AllowedOrigins lists accepted Origin headers; empty accepts any
	AllowedOrigins []string
}

// Hub tracks live connections per user and implements port.RealtimePusher
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[int64]map[*client]struct{}
	closed  bool
}

type client struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

// NewHub creates an empty hub
func NewHub(cfg HubConfig, logger *zap.Logger) *Hub {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
		logger:  logger,
		clients: make(map[int64]map[*client]struct{}),
	}
}

// Serve upgrades the request and registers the connection under userID.
// It returns once the connection is registered; pumps run in the background.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int64) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.Close()
		return fmt.Errorf("hub closed")
	}

	h.logger.Info("Realtime client connected", zap.Int64("user_id", userID))

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Push sends one event to every connection of userID.
// A user with no open connection is not an error.
func (h *Hub) Push(_ context.Context, userID int64, event string, payload interface{}) error {
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("failed to encode realtime event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("Realtime client too slow, dropping event",
				zap.Int64("user_id", userID),
				zap.String("event", event))
		}
	}
	return nil
}

// Connections returns the number of open connections of userID
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	var all []*client
	for _, group := range h.clients {
		for c := range group {
			all = append(all, c)
		}
	}
	h.clients = make(map[int64]map[*client]struct{})
	h.mu.Unlock()

	for _, c := range all {
		c.stop()
	}
	return nil
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	group, ok := h.clients[c.userID]
	if !ok {
		group = make(map[*client]struct{})
		h.clients[c.userID] = group
	}
	group[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if group, ok := h.clients[c.userID]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	c.stop()
}

// readPump discards inbound frames and detects disconnects
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		h.logger.Info("Realtime client disconnected", zap.Int64("user_id", c.userID))
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Realtime connection closed unexpectedly",
					zap.Int64("user_id", c.userID),
					zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.Error("Failed to write realtime event",
					zap.Int64("user_id", c.userID),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) stop() {
	c.once.Do(func() { close(c.send) })
}

var _ port.RealtimePusher = (*Hub)(nil)
