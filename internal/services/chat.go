package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"direct-messenger-backend/internal/apperr"
	"direct-messenger-backend/internal/metrics"
	"direct-messenger-backend/internal/models"
	"direct-messenger-backend/internal/repository"
)

// ChatService handles the chat registry: one chat per unordered user pair
type ChatService struct {
	db       repository.TxBeginner
	notifier Notifier
}

// NewChatService creates a new chat service
func NewChatService(db repository.TxBeginner, notifier Notifier) *ChatService {
	return &ChatService{
		db:       db,
		notifier: notifierOrNop(notifier),
	}
}

// GetChatsForUser returns the user's chats, most recent first. A user with no
// chats gets an empty slice.
func (s *ChatService) GetChatsForUser(ctx context.Context, userID string) ([]*models.ChatSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required: %w", apperr.ErrInvalidInput)
	}
	return repository.NewChatRepository(s.db).ListForUser(ctx, userID)
}

// GetOrCreateChat returns the chat of the unordered pair {userA, userB},
// creating it if neither orientation exists. Concurrent calls for the same
// pair always resolve to the same chat: the insert is guarded by the pair
// unique index and a lost race re-reads the winner's row.
func (s *ChatService) GetOrCreateChat(ctx context.Context, userA, userB string) (string, models.ChatStatus, error) {
	if userA == "" || userB == "" {
		return "", "", fmt.Errorf("both user ids are required: %w", apperr.ErrInvalidInput)
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		var (
			chatID string
			status models.ChatStatus
		)
		err := repository.WithTx(ctx, s.db, func(tx repository.DBTX) error {
			chats := repository.NewChatRepository(tx)

			existing, err := chats.FindByPair(ctx, userA, userB)
			if err == nil {
				chatID, status = existing.ID, models.ChatExisting
				return nil
			}
			if !errors.Is(err, apperr.ErrNotFound) {
				return err
			}

			chat := &models.Chat{
				ID:      repository.NewToken(chatIDLength),
				User1ID: userA,
				User2ID: userB,
			}
			inserted, err := chats.CreateIfAbsent(ctx, chat)
			if err != nil {
				return err
			}
			if inserted {
				chatID, status = chat.ID, models.ChatCreated
				return nil
			}

			// a concurrent caller created the pair between our read and insert
			existing, err = chats.FindByPair(ctx, userA, userB)
			if err != nil {
				return err
			}
			chatID, status = existing.ID, models.ChatExisting
			return nil
		})
		if err == nil {
			metrics.ChatsResolved.WithLabelValues(string(status)).Inc()
			if status == models.ChatCreated && userA != userB {
				s.notifier.Publish([]string{userB}, Event{
					Type:      EventChatCreated,
					Timestamp: time.Now().UTC(),
					Data:      map[string]string{"chat_id": chatID, "user_id": userA},
				})
			}
			return chatID, status, nil
		}
		if repository.IsIDCollision(err) {
			continue
		}
		return "", "", err
	}

	return "", "", fmt.Errorf("failed to generate unique chat id after %d attempts", maxIDAttempts)
}
