package handlers

import (
	"net/http"
	"strings"
	"time"

	"direct-messenger-backend/internal/middleware"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub keeps the live connection of each user
type Hub interface {
	Register(userID string, conn *websocket.Conn)
	Unregister(userID string, conn *websocket.Conn)
}

// WebSocketHandler serves the live event stream
type WebSocketHandler struct {
	hub      Hub
	tokens   middleware.TokenValidator
	pongWait time.Duration
}

// NewWebSocketHandler creates a new WebSocket handler. A connection that sends
// nothing, not even a pong, for pongWait is closed. Zero disables the limit.
func NewWebSocketHandler(hub Hub, tokens middleware.TokenValidator, pongWait time.Duration) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		tokens:   tokens,
		pongWait: pongWait,
	}
}

// HandleWebSocket handles GET /ws. With tokens enabled the user is taken from
// the token query parameter (or bearer header), otherwise from user_id.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	if h.pongWait > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(h.pongWait))
		})
	}

	// The stream is server to client; reading only drains control frames
	// and notices when the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			return
		}
	}
}

func (h *WebSocketHandler) identify(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !h.tokens.Enabled() {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			respondError(w, "user_id required", http.StatusBadRequest)
			return "", false
		}
		return userID, true
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return "", false
	}

	userID, err := h.tokens.Validate(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}
