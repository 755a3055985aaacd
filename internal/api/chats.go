package api

import (
	"context"

	"github.com/12305/devTinder-Frontend/internal/models"
)

// MyChats returns the viewer's conversations in the server's display order,
// each with its last message and unread count.
func (c *Client) MyChats(ctx context.Context) ([]models.ChatSummary, error) {
	var out struct {
		Chats []models.ChatSummary `json:"chats"`
	}
	if err := c.do(ctx, "GET", "/chat/my-chats", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Chats, nil
}

// ChatMessages fetches a conversation's participants and full message history.
func (c *Client) ChatMessages(ctx context.Context, chatID string) (*models.Chat, error) {
	var out models.Chat
	if err := c.do(ctx, "GET", "/chat/"+chatID+"/messages", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage persists a message. The returned Message carries the
// server-assigned id and timestamp and is the authoritative copy for the
// sender's timeline.
func (c *Client) SendMessage(ctx context.Context, chatID, content string) (*models.Message, error) {
	body := map[string]string{"content": content}
	var out struct {
		Message models.Message `json:"message"`
	}
	if err := c.do(ctx, "POST", "/chat/"+chatID+"/messages", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Message, nil
}
