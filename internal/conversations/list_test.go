package conversations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/12305/devTinder-Frontend/internal/models"
)

type fakeAPI struct {
	mu        sync.Mutex
	matches   []models.User
	chats     []models.ChatSummary
	matchErr  error
	chatsErr  error
	inFlight  int
	sawBoth   bool // true when both requests overlapped
	barrier   sync.WaitGroup
	barrierOn bool
}

func (f *fakeAPI) enter() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight == 2 {
		f.sawBoth = true
	}
	f.mu.Unlock()
	if f.barrierOn {
		f.barrier.Done()
		f.barrier.Wait()
	}
}

func (f *fakeAPI) leave() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeAPI) MyMatches(context.Context) ([]models.User, error) {
	f.enter()
	defer f.leave()
	return f.matches, f.matchErr
}

func (f *fakeAPI) MyChats(context.Context) ([]models.ChatSummary, error) {
	f.enter()
	defer f.leave()
	return f.chats, f.chatsErr
}

type staticPresence map[string]bool

func (p staticPresence) IsOnline(userID string) bool { return p[userID] }

func lastSeen(d time.Duration, now time.Time) *time.Time {
	ts := now.Add(-d)
	return &ts
}

func TestRefreshFetchesConcurrently(t *testing.T) {
	api := &fakeAPI{barrierOn: true}
	// Both requests must be in flight at once for either to proceed.
	api.barrier.Add(2)

	list := NewList(api, staticPresence{}, "me")
	require.NoError(t, list.Refresh(context.Background()))
	assert.True(t, api.sawBoth)
}

func TestRefreshPropagatesErrors(t *testing.T) {
	api := &fakeAPI{chatsErr: errors.New("boom")}
	list := NewList(api, staticPresence{}, "me")
	assert.Error(t, list.Refresh(context.Background()))

	api = &fakeAPI{matchErr: errors.New("boom")}
	list = NewList(api, staticPresence{}, "me")
	assert.Error(t, list.Refresh(context.Background()))
}

func TestConversationForFiltersViewer(t *testing.T) {
	api := &fakeAPI{
		matches: []models.User{{ID: "them"}, {ID: "new-match"}},
		chats: []models.ChatSummary{
			{ID: "chat-1", Participants: []models.User{{ID: "me"}, {ID: "them"}}},
		},
	}
	list := NewList(api, staticPresence{}, "me")
	require.NoError(t, list.Refresh(context.Background()))

	chat, err := list.ConversationFor("them")
	require.NoError(t, err)
	assert.Equal(t, "chat-1", chat.ID)

	// The viewer's own id never resolves to a conversation, even though the
	// viewer is a participant in every chat.
	_, err = list.ConversationFor("me")
	assert.ErrorIs(t, err, ErrNoConversation)

	// Matched but no conversation yet.
	_, err = list.ConversationFor("new-match")
	assert.ErrorIs(t, err, ErrNoConversation)
}

func TestConversationsAnnotatesPresenceAndUnread(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		chats: []models.ChatSummary{
			{
				ID:           "chat-1",
				Participants: []models.User{{ID: "me"}, {ID: "online-user"}},
				UnreadCount:  3,
			},
			{
				ID:           "chat-2",
				Participants: []models.User{{ID: "me"}, {ID: "recent", LastSeen: lastSeen(10*time.Minute, now)}},
			},
			{
				ID:           "chat-3",
				Participants: []models.User{{ID: "me"}, {ID: "stale", LastSeen: lastSeen(48*time.Hour, now)}},
			},
			{
				ID:           "chat-4",
				Participants: []models.User{{ID: "me"}, {ID: "never-seen"}},
			},
		},
	}
	list := NewList(api, staticPresence{"online-user": true}, "me")
	require.NoError(t, list.Refresh(context.Background()))

	entries := list.Conversations(now)
	require.Len(t, entries, 4)

	// Server order is preserved.
	assert.Equal(t, "chat-1", entries[0].Chat.ID)

	assert.Equal(t, "Online", entries[0].Status)
	assert.Equal(t, 3, entries[0].UnreadCount)
	assert.Equal(t, "10m ago", entries[1].Status)
	assert.Equal(t, "2d ago", entries[2].Status)
	assert.Equal(t, "Offline", entries[3].Status)
}

func TestMatchesView(t *testing.T) {
	api := &fakeAPI{matches: []models.User{{ID: "a"}, {ID: "b"}}}
	list := NewList(api, staticPresence{}, "me")
	require.NoError(t, list.Refresh(context.Background()))

	matches := list.Matches()
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
}
