package models

import "time"

// User represents an account in the system
type User struct {
	ID          string     `json:"id"`
	Phone       string     `json:"phone"`
	Password    string     `json:"-"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Username    string     `json:"username"`
	IsDeveloper bool       `json:"is_developer"`
	IsBlocked   bool       `json:"is_blocked"`
	IsOnline    bool       `json:"is_online"`
	LastSeen    *time.Time `json:"last_seen"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Chat represents a direct chat between an unordered pair of users
type Chat struct {
	ID        string    `json:"id"`
	User1ID   string    `json:"user1_id"`
	User2ID   string    `json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Peer returns the participant that is not userID. For a chat a user holds
// with themselves the same id is returned.
func (c *Chat) Peer(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// ChatSummary is a chat as seen by one participant, carrying the other
// participant's public profile
type ChatSummary struct {
	ID          string     `json:"id"`
	User1ID     string     `json:"user1_id"`
	User2ID     string     `json:"user2_id"`
	CreatedAt   time.Time  `json:"created_at"`
	OtherUserID string     `json:"other_user_id"`
	Phone       string     `json:"phone"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Username    string     `json:"username"`
	IsDeveloper bool       `json:"is_developer"`
	IsBlocked   bool       `json:"is_blocked"`
	IsOnline    bool       `json:"is_online"`
	LastSeen    *time.Time `json:"last_seen"`
}

// Message represents a single entry of a chat's append-only log
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatStatus tells whether GetOrCreateChat found or inserted the chat
type ChatStatus string

const (
	ChatExisting ChatStatus = "existing"
	ChatCreated  ChatStatus = "created"
)
