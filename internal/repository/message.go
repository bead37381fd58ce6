package repository

import (
	"context"

	"direct-messenger-backend/internal/models"
)

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db DBTX
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append inserts a message with a store-assigned timestamp that never goes
// below the newest timestamp already in the chat. Callers must hold the chat
// row lock (ChatRepository.LockByID) so appends to one chat are serialized.
func (r *MessageRepository) Append(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (id, chat_id, sender_id, text, timestamp)
		VALUES ($1, $2, $3, $4, GREATEST(
			clock_timestamp(),
			COALESCE((SELECT MAX(m.timestamp) FROM messages m WHERE m.chat_id = $2), '-infinity'::timestamptz)
		))
		RETURNING id, chat_id, sender_id, text, timestamp
	`
	var stored models.Message
	err := r.db.QueryRow(ctx, query, msg.ID, msg.ChatID, msg.SenderID, msg.Text).Scan(
		&stored.ID, &stored.ChatID, &stored.SenderID, &stored.Text, &stored.Timestamp,
	)
	if err != nil {
		return nil, classify("failed to append message", err)
	}
	return &stored, nil
}

// ListByChat returns the chat's messages oldest first, insertion order
// breaking timestamp ties
func (r *MessageRepository) ListByChat(ctx context.Context, chatID string) ([]*models.Message, error) {
	query := `
		SELECT id, chat_id, sender_id, text, timestamp
		FROM messages
		WHERE chat_id = $1
		ORDER BY timestamp ASC, seq ASC
	`
	rows, err := r.db.Query(ctx, query, chatID)
	if err != nil {
		return nil, classify("failed to get messages", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Text, &msg.Timestamp)
		if err != nil {
			return nil, classify("failed to scan message", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("error iterating messages", err)
	}
	return messages, nil
}
