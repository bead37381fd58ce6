package handlers

import (
	"context"

	"direct-messenger-backend/internal/models"
	"direct-messenger-backend/internal/services"
)

// AccountService is the account store as seen by the HTTP layer
type AccountService interface {
	Register(ctx context.Context, phone, password string) (*services.Session, error)
	Login(ctx context.Context, phone, password string) (*services.Session, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID, firstName, lastName, username string) (*models.User, error)
}

// PresenceService updates a user's online status
type PresenceService interface {
	SetPresence(ctx context.Context, userID string, isOnline bool) (*models.User, error)
}

// ChatService is the chat registry
type ChatService interface {
	GetChatsForUser(ctx context.Context, userID string) ([]*models.ChatSummary, error)
	GetOrCreateChat(ctx context.Context, userA, userB string) (string, models.ChatStatus, error)
}

// MessageService is the per-chat message log
type MessageService interface {
	Append(ctx context.Context, chatID, senderID, text string) (*models.Message, error)
	List(ctx context.Context, chatID string) ([]*models.Message, error)
}

// AdminService holds the developer-only operations
type AdminService interface {
	Authorize(ctx context.Context, actorUserID string) (bool, error)
	ListAllUsers(ctx context.Context, actorUserID string) ([]*models.User, error)
	SetBlocked(ctx context.Context, actorUserID, targetUserID string, isBlocked bool) (*models.User, error)
}
