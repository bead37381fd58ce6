package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"direct-messenger-backend/internal/apperr"
	"direct-messenger-backend/internal/metrics"
	"direct-messenger-backend/internal/models"
	"direct-messenger-backend/internal/repository"
)

// MessageService handles the per-chat message log
type MessageService struct {
	db       repository.TxBeginner
	notifier Notifier
}

// NewMessageService creates a new message service
func NewMessageService(db repository.TxBeginner, notifier Notifier) *MessageService {
	return &MessageService{
		db:       db,
		notifier: notifierOrNop(notifier),
	}
}

// Append adds a message to an existing chat. The chat row is locked for the
// duration of the insert so timestamps within a chat follow insertion order.
func (s *MessageService) Append(ctx context.Context, chatID, senderID, text string) (*models.Message, error) {
	if chatID == "" || senderID == "" {
		return nil, fmt.Errorf("chat_id and sender_id are required: %w", apperr.ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is required: %w", apperr.ErrInvalidInput)
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		var (
			msg  *models.Message
			chat *models.Chat
		)
		err := repository.WithTx(ctx, s.db, func(tx repository.DBTX) error {
			var err error
			chat, err = repository.NewChatRepository(tx).LockByID(ctx, chatID)
			if err != nil {
				return fmt.Errorf("chat %s: %w", chatID, err)
			}
			msg, err = repository.NewMessageRepository(tx).Append(ctx, &models.Message{
				ID:       repository.NewToken(messageIDLength),
				ChatID:   chatID,
				SenderID: senderID,
				Text:     text,
			})
			return err
		})
		if err == nil {
			metrics.MessagesAppended.Inc()
			s.notifier.Publish(recipients(chat, senderID), Event{
				Type:      EventMessageCreated,
				Timestamp: time.Now().UTC(),
				Data:      msg,
			})
			return msg, nil
		}
		if repository.IsIDCollision(err) {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique message id after %d attempts", maxIDAttempts)
}

// List returns the chat's messages oldest first. An unknown chat reads as empty.
func (s *MessageService) List(ctx context.Context, chatID string) ([]*models.Message, error) {
	if chatID == "" {
		return nil, fmt.Errorf("chat_id is required: %w", apperr.ErrInvalidInput)
	}
	return repository.NewMessageRepository(s.db).ListByChat(ctx, chatID)
}

// recipients returns the chat participants other than the sender
func recipients(chat *models.Chat, senderID string) []string {
	if senderID == chat.User1ID || senderID == chat.User2ID {
		if peer := chat.Peer(senderID); peer != senderID {
			return []string{peer}
		}
		return nil
	}
	if chat.User1ID == chat.User2ID {
		return []string{chat.User1ID}
	}
	return []string{chat.User1ID, chat.User2ID}
}
