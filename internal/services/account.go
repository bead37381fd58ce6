package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"direct-messenger-backend/internal/apperr"
	"direct-messenger-backend/internal/models"
	"direct-messenger-backend/internal/repository"
)

const (
	userIDLength    = 8
	chatIDLength    = 12
	messageIDLength = 12

	// bound on retries when a generated id is already taken
	maxIDAttempts = 5

	defaultFirstName = "Пользователь"
)

// dummyPassword is compared against when the phone is unknown so a failed
// login costs the same either way
var dummyPassword = []byte("0000000000000000")

// Session is the result of a successful register or login
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// AccountService handles registration, login and profile management
type AccountService struct {
	db       repository.TxBeginner
	tokens   *TokenIssuer
	notifier Notifier
}

// NewAccountService creates a new account service
func NewAccountService(db repository.TxBeginner, tokens *TokenIssuer, notifier Notifier) *AccountService {
	return &AccountService{
		db:       db,
		tokens:   tokens,
		notifier: notifierOrNop(notifier),
	}
}

// Register creates a user for an unused phone number and logs them in
func (s *AccountService) Register(ctx context.Context, phone, password string) (*Session, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, fmt.Errorf("phone and password are required: %w", apperr.ErrInvalidInput)
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate := &models.User{
			ID:        repository.NewToken(userIDLength),
			Phone:     phone,
			Password:  password,
			FirstName: defaultFirstName,
			Username:  PlaceholderUsername(phone),
			IsOnline:  true,
		}

		var user *models.User
		err := repository.WithTx(ctx, s.db, func(tx repository.DBTX) error {
			created, err := repository.NewUserRepository(tx).Create(ctx, candidate)
			user = created
			return err
		})
		if err == nil {
			return s.session(user)
		}
		if repository.IsIDCollision(err) {
			continue
		}
		if errors.Is(err, apperr.ErrConflict) {
			return nil, fmt.Errorf("user already exists: %w", apperr.ErrConflict)
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique user id after %d attempts", maxIDAttempts)
}

// Login checks the credentials, marks the user online and announces the new
// presence to their chat partners
func (s *AccountService) Login(ctx context.Context, phone, password string) (*Session, error) {
	var (
		user  *models.User
		peers []string
	)
	err := repository.WithTx(ctx, s.db, func(tx repository.DBTX) error {
		users := repository.NewUserRepository(tx)

		found, err := users.GetByPhone(ctx, strings.TrimSpace(phone))
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		stored := dummyPassword
		if found != nil {
			stored = []byte(found.Password)
		}
		match := subtle.ConstantTimeCompare(stored, []byte(password)) == 1
		if found == nil || !match {
			return fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
		}

		user, err = users.MarkOnline(ctx, found.ID)
		if err != nil {
			return err
		}

		peers, err = repository.NewChatRepository(tx).PeerIDs(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(peers, presenceEvent(user))

	return s.session(user)
}

// GetByPhone retrieves a user by phone number
func (s *AccountService) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("phone is required: %w", apperr.ErrInvalidInput)
	}
	return repository.NewUserRepository(s.db).GetByPhone(ctx, phone)
}

// UpdateProfile overwrites first name, last name and username. Usernames are
// not required to be unique.
func (s *AccountService) UpdateProfile(ctx context.Context, userID, firstName, lastName, username string) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required: %w", apperr.ErrInvalidInput)
	}

	var user *models.User
	err := repository.WithTx(ctx, s.db, func(tx repository.DBTX) error {
		updated, err := repository.NewUserRepository(tx).UpdateProfile(ctx, userID, firstName, lastName, username)
		user = updated
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// PlaceholderUsername derives the default username from the trailing four
// digits of the phone number
func PlaceholderUsername(phone string) string {
	if len(phone) > 4 {
		phone = phone[len(phone)-4:]
	}
	return "user" + phone
}
