package realtime

import (
	"encoding/json"
	"time"

	"github.com/12305/devTinder-Frontend/internal/models"
)

// Event kinds on the wire. Client→server: join_chat, send_message,
// typing_start, typing_stop. Server→client: receive_message, typing_start,
// typing_stop, user_online, user_offline, online_users.
const (
	EventJoinChat       = "join_chat"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventTypingStart    = "typing_start"
	EventTypingStop     = "typing_stop"
	EventUserOnline     = "user_online"
	EventUserOffline    = "user_offline"
	EventOnlineUsers    = "online_users"
)

// Event is the wire envelope in both directions.
type Event struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessagePayload is the minimal message pushed live. It carries less than a
// history-fetched Message (no sender display fields); that degradation is
// accepted, the durable API remains the source of truth.
type MessagePayload struct {
	ID        string    `json:"_id,omitempty"`
	ChatID    string    `json:"chatId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToMessage converts the live payload into a timeline entry.
func (p MessagePayload) ToMessage() models.Message {
	return models.Message{
		ID:        p.ID,
		ChatID:    p.ChatID,
		SenderID:  p.SenderID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
	}
}

// TypingPayload scopes a typing signal to a conversation.
type TypingPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId,omitempty"`
}

// PresencePayload announces one identity going online or offline.
type PresencePayload struct {
	UserID string `json:"userId"`
}

// OnlineUsersPayload is the snapshot sent right after connecting.
type OnlineUsersPayload struct {
	UserIDs []string `json:"userIds"`
}

func marshalEvent(kind string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: kind, Payload: raw}, nil
}
