package conversations

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/12305/devTinder-Frontend/internal/models"
)

// API is the slice of the REST client the list needs. Matches and chats are
// independent requests with no ordering dependency.
type API interface {
	MyMatches(ctx context.Context) ([]models.User, error)
	MyChats(ctx context.Context) ([]models.ChatSummary, error)
}

// Presence answers "is this identity online right now"; the realtime manager
// implements it.
type Presence interface {
	IsOnline(userID string) bool
}

// ErrNoConversation means a match exists but its conversation does not yet.
var ErrNoConversation = errors.New("conversations: no conversation with this match yet")

// Entry is one row of the conversation list: the chat summary, the
// counterpart, and the presence status label shown under their name.
type Entry struct {
	Chat        models.ChatSummary
	Other       *models.User
	Status      string
	UnreadCount int
}

// List merges the viewer's matches and conversations into the two browsable
// views: the match grid and the annotated conversation list.
type List struct {
	api      API
	presence Presence
	viewerID string

	mu      sync.RWMutex
	matches []models.User
	chats   []models.ChatSummary
}

func NewList(api API, presence Presence, viewerID string) *List {
	return &List{api: api, presence: presence, viewerID: viewerID}
}

// Refresh fetches matches and conversations concurrently.
func (l *List) Refresh(ctx context.Context) error {
	var (
		wg       sync.WaitGroup
		matches  []models.User
		chats    []models.ChatSummary
		matchErr error
		chatsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		matches, matchErr = l.api.MyMatches(ctx)
	}()
	go func() {
		defer wg.Done()
		chats, chatsErr = l.api.MyChats(ctx)
	}()
	wg.Wait()

	if matchErr != nil {
		return matchErr
	}
	if chatsErr != nil {
		return chatsErr
	}

	l.mu.Lock()
	l.matches = matches
	l.chats = chats
	l.mu.Unlock()
	return nil
}

// Matches returns the matched identities for the grid view.
func (l *List) Matches() []models.User {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.User, len(l.matches))
	copy(out, l.matches)
	return out
}

// ConversationFor finds the existing conversation shared with a matched
// identity, scanning participants filtered by the viewer id. It returns
// ErrNoConversation when the match has no conversation yet.
func (l *List) ConversationFor(matchUserID string) (*models.ChatSummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.chats {
		other := l.chats[i].OtherParticipant(l.viewerID)
		if other != nil && other.ID == matchUserID {
			c := l.chats[i]
			return &c, nil
		}
	}
	return nil, ErrNoConversation
}

// Conversations returns the list view in server order, each entry annotated
// with its unread badge and the counterpart's presence status at now.
func (l *List) Conversations(now time.Time) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]Entry, 0, len(l.chats))
	for i := range l.chats {
		chat := l.chats[i]
		other := chat.OtherParticipant(l.viewerID)

		status := "Offline"
		if other != nil {
			p := other.Presence()
			if l.presence != nil && l.presence.IsOnline(other.ID) {
				p.IsOnline = true
			}
			status = p.StatusLabel(now)
		}

		entries = append(entries, Entry{
			Chat:        chat,
			Other:       other,
			Status:      status,
			UnreadCount: chat.UnreadCount,
		})
	}
	return entries
}
