package repository

import (
	"context"
	"errors"

	"direct-messenger-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ChatRepository handles database operations for chats
type ChatRepository struct {
	db DBTX
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db DBTX) *ChatRepository {
	return &ChatRepository{db: db}
}

// FindByPair looks the unordered pair up in both orientations
func (r *ChatRepository) FindByPair(ctx context.Context, userA, userB string) (*models.Chat, error) {
	query := `
		SELECT id, user1_id, user2_id, created_at
		FROM chats
		WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)
		LIMIT 1
	`
	var chat models.Chat
	err := r.db.QueryRow(ctx, query, userA, userB).Scan(
		&chat.ID, &chat.User1ID, &chat.User2ID, &chat.CreatedAt,
	)
	if err != nil {
		return nil, classify("failed to find chat by pair", err)
	}
	return &chat, nil
}

// CreateIfAbsent inserts the chat unless one already exists for the same
// unordered pair. It returns false, with no error, when the pair index
// rejected the insert.
func (r *ChatRepository) CreateIfAbsent(ctx context.Context, chat *models.Chat) (bool, error) {
	query := `
		INSERT INTO chats (id, user1_id, user2_id)
		VALUES ($1, $2, $3)
		ON CONFLICT ((LEAST(user1_id, user2_id)), (GREATEST(user1_id, user2_id))) DO NOTHING
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, chat.ID, chat.User1ID, chat.User2ID).Scan(&chat.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, classify("failed to create chat", err)
	}
	return true, nil
}

// LockByID locks the chat row for the rest of the transaction. A missing chat
// yields apperr.ErrNotFound.
func (r *ChatRepository) LockByID(ctx context.Context, id string) (*models.Chat, error) {
	query := `
		SELECT id, user1_id, user2_id, created_at
		FROM chats
		WHERE id = $1
		FOR UPDATE
	`
	var chat models.Chat
	err := r.db.QueryRow(ctx, query, id).Scan(
		&chat.ID, &chat.User1ID, &chat.User2ID, &chat.CreatedAt,
	)
	if err != nil {
		return nil, classify("failed to lock chat", err)
	}
	return &chat, nil
}

// ListForUser returns the user's chats with the other participant's public
// profile, most recent chat first
func (r *ChatRepository) ListForUser(ctx context.Context, userID string) ([]*models.ChatSummary, error) {
	query := `
		SELECT c.id, c.user1_id, c.user2_id, c.created_at,
		       u.id, u.phone, u.first_name, u.last_name, u.username,
		       u.is_developer, u.is_blocked, u.is_online, u.last_seen
		FROM chats c
		JOIN users u ON u.id = CASE WHEN c.user1_id = $1 THEN c.user2_id ELSE c.user1_id END
		WHERE c.user1_id = $1 OR c.user2_id = $1
		ORDER BY c.created_at DESC, c.id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, classify("failed to list chats", err)
	}
	defer rows.Close()

	chats := make([]*models.ChatSummary, 0)
	for rows.Next() {
		var (
			s        models.ChatSummary
			lastSeen pgtype.Timestamptz
		)
		err := rows.Scan(
			&s.ID, &s.User1ID, &s.User2ID, &s.CreatedAt,
			&s.OtherUserID, &s.Phone, &s.FirstName, &s.LastName, &s.Username,
			&s.IsDeveloper, &s.IsBlocked, &s.IsOnline, &lastSeen,
		)
		if err != nil {
			return nil, classify("failed to scan chat", err)
		}
		s.LastSeen = timePtr(lastSeen)
		chats = append(chats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("error iterating chats", err)
	}
	return chats, nil
}

// PeerIDs returns the distinct users that share a chat with userID
func (r *ChatRepository) PeerIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT DISTINCT CASE WHEN user1_id = $1 THEN user2_id ELSE user1_id END
		FROM chats
		WHERE (user1_id = $1 OR user2_id = $1) AND user1_id <> user2_id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, classify("failed to list chat peers", err)
	}
	defer rows.Close()

	peers := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classify("failed to scan chat peer", err)
		}
		peers = append(peers, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("error iterating chat peers", err)
	}
	return peers, nil
}
