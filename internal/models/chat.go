package models

import "time"

// Message is a single chat message. Messages pushed over the realtime channel
// carry a minimal sender (id only); history-fetched messages include display
// fields.
type Message struct {
	ID       string `json:"_id"`
	ChatID   string `json:"chatId"`
	SenderID string `json:"senderId"`
	Sender   *User  `json:"sender,omitempty"`

	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	IsRead    bool       `json:"isRead"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
}

// Chat is a full conversation: its participants and the complete message
// history in ascending timestamp order.
type Chat struct {
	ID           string    `json:"_id"`
	Participants []User    `json:"participants"`
	Messages     []Message `json:"messages"`
}

// OtherParticipant returns the participant who is not the viewer. Chats are
// two-party; if the viewer is not among the participants it returns nil.
func (c *Chat) OtherParticipant(viewerID string) *User {
	for i := range c.Participants {
		if c.Participants[i].ID != viewerID {
			return &c.Participants[i]
		}
	}
	return nil
}

// UnreadFor derives the unread count for a viewer from read markers. Unread
// counts are never stored; they are always computed against the viewing
// identity.
func (c *Chat) UnreadFor(viewerID string) int {
	n := 0
	for i := range c.Messages {
		m := &c.Messages[i]
		if m.SenderID != viewerID && !m.IsRead {
			n++
		}
	}
	return n
}

// ChatSummary is one row of GET /chat/my-chats: the conversation plus its
// last message and the server-derived unread count for the viewer.
type ChatSummary struct {
	ID           string   `json:"_id"`
	Participants []User   `json:"participants"`
	LastMessage  *Message `json:"lastMessage,omitempty"`
	UnreadCount  int      `json:"unreadCount"`
}

// OtherParticipant returns the participant who is not the viewer, never an
// arbitrary pick: summaries include the viewer in participants and picking
// blindly can name the viewer as their own counterpart.
func (c *ChatSummary) OtherParticipant(viewerID string) *User {
	for i := range c.Participants {
		if c.Participants[i].ID != viewerID {
			return &c.Participants[i]
		}
	}
	return nil
}
