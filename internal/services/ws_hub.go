package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"direct-messenger-backend/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// wsClient is a registered connection. Writes are serialized per connection.
type wsClient struct {
	conn      *websocket.Conn
	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{conn: conn, done: make(chan struct{})}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *wsClient) write(data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsClient) ping(timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

// WSHub manages WebSocket connections, one per user. It implements Notifier.
type WSHub struct {
	mu           sync.RWMutex
	connections  map[string]*wsClient
	writeTimeout time.Duration
	pingInterval time.Duration
}

// NewWSHub creates a new WebSocket hub. With a positive pingInterval every
// registered connection is pinged on that period and dropped when a ping
// cannot be written.
func NewWSHub(writeTimeout, pingInterval time.Duration) *WSHub {
	return &WSHub{
		connections:  make(map[string]*wsClient),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
	}
}

// Register registers a new WebSocket connection for a user. An older
// connection of the same user is closed.
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.connections[userID]; ok {
		existing.close()
	} else {
		metrics.RealtimeConnections.Inc()
	}
	client := newWSClient(conn)
	h.connections[userID] = client
	if h.pingInterval > 0 {
		go h.keepAlive(userID, client)
	}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// keepAlive pings client until it is closed or a ping fails
func (h *WSHub) keepAlive(userID string, client *wsClient) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	timeout := h.writeTimeout
	if timeout <= 0 {
		timeout = h.pingInterval
	}

	for {
		select {
		case <-client.done:
			return
		case <-ticker.C:
			if err := client.ping(timeout); err != nil {
				log.Debug().Err(err).Str("user_id", userID).Msg("WebSocket ping failed")
				h.Unregister(userID, client.conn)
				return
			}
		}
	}
}

// Unregister removes the user's connection if it is still conn. A nil conn
// removes whatever is registered.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.connections[userID]
	if !ok || (conn != nil && client.conn != conn) {
		return
	}
	client.close()
	delete(h.connections, userID)
	metrics.RealtimeConnections.Dec()

	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
}

// SendToUser sends an event to a specific user
func (h *WSHub) SendToUser(userID string, evt Event) error {
	h.mu.RLock()
	client, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := client.write(data, h.writeTimeout); err != nil {
		h.Unregister(userID, client.conn)
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}

// Publish delivers evt to every connected user in userIDs. Users without a
// connection are skipped; failed writes drop the connection.
func (h *WSHub) Publish(userIDs []string, evt Event) {
	for _, id := range userIDs {
		if !h.IsOnline(id) {
			continue
		}
		if err := h.SendToUser(id, evt); err != nil {
			metrics.RealtimeDropped.Inc()
			log.Warn().
				Err(err).
				Str("user_id", id).
				Str("event", evt.Type).
				Msg("Failed to deliver event")
		}
	}
}

// IsOnline checks if a user has a live connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// Close closes every connection
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.connections {
		client.close()
		delete(h.connections, id)
		metrics.RealtimeConnections.Dec()
	}
}
