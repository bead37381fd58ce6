package services

import (
	"context"
	"errors"
	"fmt"

	"direct-messenger-backend/internal/apperr"
	"direct-messenger-backend/internal/models"
	"direct-messenger-backend/internal/repository"
)

// PresenceService tracks the online flag and last-seen timestamp
type PresenceService struct {
	db       repository.TxBeginner
	notifier Notifier
}

// NewPresenceService creates a new presence service
func NewPresenceService(db repository.TxBeginner, notifier Notifier) *PresenceService {
	return &PresenceService{
		db:       db,
		notifier: notifierOrNop(notifier),
	}
}

// SetPresence sets is_online and refreshes last_seen whatever the target
// state, then tells the user's chat partners. An unknown user is acknowledged
// without a write and the returned user is nil.
func (s *PresenceService) SetPresence(ctx context.Context, userID string, isOnline bool) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required: %w", apperr.ErrInvalidInput)
	}

	var (
		user  *models.User
		peers []string
	)
	err := repository.WithTx(ctx, s.db, func(tx repository.DBTX) error {
		var err error
		user, err = repository.NewUserRepository(tx).SetPresence(ctx, userID, isOnline)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		peers, err = repository.NewChatRepository(tx).PeerIDs(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, nil
	}

	s.notifier.Publish(peers, presenceEvent(user))
	return user, nil
}
