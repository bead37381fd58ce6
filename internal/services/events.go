package services

import (
	"time"

	"direct-messenger-backend/internal/models"
)

// Event types delivered over the live event stream
const (
	EventMessageCreated  = "message.created"
	EventChatCreated     = "chat.created"
	EventPresenceChanged = "presence.changed"
)

// Event is a notification pushed to connected users after a commit
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// PresenceData is the payload of presence.changed
type PresenceData struct {
	UserID   string     `json:"user_id"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}

// Notifier delivers events to the given users. Delivery is best effort and
// never affects the outcome of the action that produced the event.
type Notifier interface {
	Publish(userIDs []string, evt Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish([]string, Event) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func presenceEvent(user *models.User) Event {
	return Event{
		Type:      EventPresenceChanged,
		Timestamp: time.Now().UTC(),
		Data: PresenceData{
			UserID:   user.ID,
			IsOnline: user.IsOnline,
			LastSeen: user.LastSeen,
		},
	}
}
