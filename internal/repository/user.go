package repository

import (
	"context"
	"time"

	"direct-messenger-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, phone, password, first_name, last_name, username,
		is_developer, is_blocked, is_online, last_seen, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and returns the stored row. A taken phone yields
// apperr.ErrConflict; an id collision is reported by IsIDCollision.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, phone, password, first_name, last_name, username, is_online, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING ` + userColumns
	created, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Phone, user.Password, user.FirstName, user.LastName, user.Username, user.IsOnline,
	))
	if err != nil {
		return nil, classify("failed to create user", err)
	}
	return created, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify("failed to get user", err)
	}
	return user, nil
}

// GetByPhone retrieves a user by phone number
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, phone))
	if err != nil {
		return nil, classify("failed to get user by phone", err)
	}
	return user, nil
}

// MarkOnline sets the user online and refreshes last_seen
func (r *UserRepository) MarkOnline(ctx context.Context, id string) (*models.User, error) {
	query := `
		UPDATE users SET is_online = TRUE, last_seen = now()
		WHERE id = $1
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify("failed to mark user online", err)
	}
	return user, nil
}

// UpdateProfile overwrites the user's display names and username
func (r *UserRepository) UpdateProfile(ctx context.Context, id, firstName, lastName, username string) (*models.User, error) {
	query := `
		UPDATE users SET first_name = $1, last_name = $2, username = $3
		WHERE id = $4
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, firstName, lastName, username, id))
	if err != nil {
		return nil, classify("failed to update profile", err)
	}
	return user, nil
}

// SetPresence sets is_online and always refreshes last_seen
func (r *UserRepository) SetPresence(ctx context.Context, id string, isOnline bool) (*models.User, error) {
	query := `
		UPDATE users SET is_online = $1, last_seen = now()
		WHERE id = $2
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, isOnline, id))
	if err != nil {
		return nil, classify("failed to set presence", err)
	}
	return user, nil
}

// SetBlocked sets the is_blocked flag
func (r *UserRepository) SetBlocked(ctx context.Context, id string, isBlocked bool) (*models.User, error) {
	query := `
		UPDATE users SET is_blocked = $1
		WHERE id = $2
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, isBlocked, id))
	if err != nil {
		return nil, classify("failed to set blocked", err)
	}
	return user, nil
}

// IsDeveloper reports the is_developer flag. A missing user reads as false.
func (r *UserRepository) IsDeveloper(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND is_developer)`
	var ok bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, classify("failed to check developer flag", err)
	}
	return ok, nil
}

// ListAll returns every user, most recently created first
func (r *UserRepository) ListAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, classify("failed to list users", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, classify("failed to scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("error iterating users", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user     models.User
		lastSeen pgtype.Timestamptz
	)
	err := row.Scan(
		&user.ID, &user.Phone, &user.Password, &user.FirstName, &user.LastName, &user.Username,
		&user.IsDeveloper, &user.IsBlocked, &user.IsOnline, &lastSeen, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.LastSeen = timePtr(lastSeen)
	return &user, nil
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
