package services

import (
	"context"
	"fmt"

	"direct-messenger-backend/internal/apperr"
	"direct-messenger-backend/internal/models"
	"direct-messenger-backend/internal/repository"
)

var errAccessDenied = fmt.Errorf("access denied: %w", apperr.ErrForbidden)

// AdminService gates privileged operations on the actor's is_developer flag
type AdminService struct {
	db repository.TxBeginner
}

// NewAdminService creates a new admin service
func NewAdminService(db repository.TxBeginner) *AdminService {
	return &AdminService{db: db}
}

// Authorize reports whether the actor may perform admin actions. Unknown
// actors and non-developers are indistinguishable: both yield false.
func (s *AdminService) Authorize(ctx context.Context, actorUserID string) (bool, error) {
	return authorize(ctx, s.db, actorUserID)
}

// ListAllUsers returns every user, newest first
func (s *AdminService) ListAllUsers(ctx context.Context, actorUserID string) ([]*models.User, error) {
	var users []*models.User
	err := repository.WithTx(ctx, s.db, func(tx repository.DBTX) error {
		ok, err := authorize(ctx, tx, actorUserID)
		if err != nil {
			return err
		}
		if !ok {
			return errAccessDenied
		}
		users, err = repository.NewUserRepository(tx).ListAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// SetBlocked sets the target's is_blocked flag and returns the updated target.
// The actor is checked before the target is looked at.
func (s *AdminService) SetBlocked(ctx context.Context, actorUserID, targetUserID string, isBlocked bool) (*models.User, error) {
	var user *models.User
	err := repository.WithTx(ctx, s.db, func(tx repository.DBTX) error {
		ok, err := authorize(ctx, tx, actorUserID)
		if err != nil {
			return err
		}
		if !ok {
			return errAccessDenied
		}
		if targetUserID == "" {
			return fmt.Errorf("target user_id is required: %w", apperr.ErrInvalidInput)
		}
		user, err = repository.NewUserRepository(tx).SetBlocked(ctx, targetUserID, isBlocked)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func authorize(ctx context.Context, db repository.DBTX, actorUserID string) (bool, error) {
	if actorUserID == "" {
		return false, nil
	}
	return repository.NewUserRepository(db).IsDeveloper(ctx, actorUserID)
}
