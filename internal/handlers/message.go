package handlers

import (
	"net/http"

	"direct-messenger-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/thedevsaddam/govalidator"
)

// MessageHandler handles message-related HTTP requests
type MessageHandler struct {
	messages MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// GetMessages handles GET /api/v1/chats/{chat_id}/messages
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chat_id")

	messages, err := h.messages.List(r.Context(), chatID)
	if err != nil {
		respondServiceError(w, err, "Failed to list messages")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// SendMessageRequest is the body of POST /api/v1/chats/{chat_id}/messages
type SendMessageRequest struct {
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
}

// SendMessage handles POST /api/v1/chats/{chat_id}/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chat_id")

	var req SendMessageRequest
	rules := govalidator.MapData{
		"sender_id": []string{"required"},
		"text":      []string{"required"},
	}
	if !decodeJSON(w, r, &req, rules) {
		return
	}
	if err := middleware.AuthorizeActor(r.Context(), req.SenderID); err != nil {
		respondServiceError(w, err, "Failed to send message")
		return
	}

	msg, err := h.messages.Append(r.Context(), chatID, req.SenderID, req.Text)
	if err != nil {
		respondServiceError(w, err, "Failed to send message")
		return
	}

	log.Info().
		Str("chat_id", chatID).
		Str("message_id", msg.ID).
		Str("sender_id", msg.SenderID).
		Msg("Message sent")

	respondJSON(w, http.StatusCreated, map[string]any{"message": msg})
}
