package handlers

import (
	"net/http"

	"direct-messenger-backend/internal/middleware"
	"direct-messenger-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/thedevsaddam/govalidator"
)

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chats ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chats ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// GetChats handles GET /api/v1/chats?user_id=
func (h *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if err := middleware.AuthorizeActor(r.Context(), userID); err != nil {
		respondServiceError(w, err, "Failed to list chats")
		return
	}

	chats, err := h.chats.GetChatsForUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "Failed to list chats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"chats": chats})
}

// CreateChatRequest represents the request body for opening a chat
type CreateChatRequest struct {
	User1ID string `json:"user1_id"`
	User2ID string `json:"user2_id"`
}

// CreateChatResponse reports the chat and whether it was just created
type CreateChatResponse struct {
	ChatID string            `json:"chat_id"`
	Status models.ChatStatus `json:"status"`
}

// CreateChat handles POST /api/v1/chats
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req CreateChatRequest
	rules := govalidator.MapData{
		"user1_id": []string{"required"},
		"user2_id": []string{"required"},
	}
	if !decodeJSON(w, r, &req, rules) {
		return
	}
	if err := middleware.AuthorizeActor(r.Context(), req.User1ID); err != nil {
		respondServiceError(w, err, "Failed to create chat")
		return
	}

	chatID, status, err := h.chats.GetOrCreateChat(r.Context(), req.User1ID, req.User2ID)
	if err != nil {
		respondServiceError(w, err, "Failed to create chat")
		return
	}

	code := http.StatusOK
	if status == models.ChatCreated {
		code = http.StatusCreated
		log.Info().
			Str("chat_id", chatID).
			Str("user1_id", req.User1ID).
			Str("user2_id", req.User2ID).
			Msg("Chat created")
	}

	respondJSON(w, code, CreateChatResponse{ChatID: chatID, Status: status})
}
