package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/12305/devTinder-Frontend/internal/models"
	"github.com/12305/devTinder-Frontend/internal/realtime"
)

type fakeAPI struct {
	mu       sync.Mutex
	chat     *models.Chat
	fetchErr error

	selfID  string
	sendErr error
	sent    []string
}

func (f *fakeAPI) ChatMessages(_ context.Context, chatID string) (*models.Chat, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.chat, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, chatID, content string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, content)
	sender := f.selfID
	if sender == "" {
		sender = "me"
	}
	return &models.Message{ID: "srv-" + content, ChatID: chatID, SenderID: sender, Content: content, CreatedAt: time.Now()}, nil
}

type fakeChannel struct {
	mu       sync.Mutex
	joined   []string
	sent     []realtime.MessagePayload
	starts   int
	stops    int
	handlers map[string]realtime.Handler // kind -> handler, single chat in tests
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: make(map[string]realtime.Handler)}
}

func (f *fakeChannel) JoinChat(chatID string) {
	f.mu.Lock()
	f.joined = append(f.joined, chatID)
	f.mu.Unlock()
}

func (f *fakeChannel) SendMessage(p realtime.MessagePayload) {
	f.mu.Lock()
	f.sent = append(f.sent, p)
	f.mu.Unlock()
}

func (f *fakeChannel) TypingStart(chatID, userID string) {
	f.mu.Lock()
	f.starts++
	f.mu.Unlock()
}

func (f *fakeChannel) TypingStop(chatID, userID string) {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
}

func (f *fakeChannel) Subscribe(kind, chatID string, fn realtime.Handler) *realtime.Subscription {
	f.mu.Lock()
	f.handlers[kind] = fn
	f.mu.Unlock()
	return &realtime.Subscription{}
}

// deliver pushes a server event at the controller the way the manager would.
func (f *fakeChannel) deliver(t *testing.T, kind string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	f.mu.Lock()
	fn := f.handlers[kind]
	f.mu.Unlock()
	require.NotNil(t, fn, "no handler subscribed for %s", kind)
	fn(realtime.Event{Event: kind, Payload: raw})
}

func (f *fakeChannel) typingCounts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
}

func (n *recordingNotifier) Success(msg string) {}
func (n *recordingNotifier) Info(msg string)    {}
func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	n.errors = append(n.errors, msg)
	n.mu.Unlock()
}

func testChat() *models.Chat {
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	return &models.Chat{
		ID: "chat-1",
		Participants: []models.User{
			{ID: "me", FirstName: "Me"},
			{ID: "them", FirstName: "Them"},
		},
		Messages: []models.Message{
			{ID: "m1", ChatID: "chat-1", SenderID: "them", Content: "hey", CreatedAt: base},
			{ID: "m2", ChatID: "chat-1", SenderID: "me", Content: "hello", CreatedAt: base.Add(time.Minute)},
		},
	}
}

func openSession(t *testing.T, api *fakeAPI, ch *fakeChannel) *Session {
	t.Helper()
	s := NewSession("chat-1", "me", api, ch, &recordingNotifier{})
	require.NoError(t, s.Open(context.Background()))
	require.Equal(t, StateReady, s.State())
	return s
}

func TestOpenLoadsHistoryThenSubscribes(t *testing.T) {
	api := &fakeAPI{chat: testChat()}
	ch := newFakeChannel()
	s := openSession(t, api, ch)
	defer s.Close()

	msgs := s.Timeline()
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)

	ch.mu.Lock()
	assert.Equal(t, []string{"chat-1"}, ch.joined)
	assert.Len(t, ch.handlers, 3)
	ch.mu.Unlock()
}

func TestOpenFailureTransitionsToErrored(t *testing.T) {
	api := &fakeAPI{fetchErr: errors.New("boom")}
	ch := newFakeChannel()
	notifier := &recordingNotifier{}
	s := NewSession("chat-1", "me", api, ch, notifier)

	require.Error(t, s.Open(context.Background()))
	assert.Equal(t, StateErrored, s.State())

	notifier.mu.Lock()
	assert.Len(t, notifier.errors, 1)
	notifier.mu.Unlock()

	// Nothing was subscribed: a failed screen cannot leak events.
	ch.mu.Lock()
	assert.Empty(t, ch.handlers)
	ch.mu.Unlock()
}

func TestLiveMessagesMergeIntoTimeline(t *testing.T) {
	ch := newFakeChannel()
	s := openSession(t, &fakeAPI{chat: testChat()}, ch)
	defer s.Close()

	ch.deliver(t, realtime.EventReceiveMessage, realtime.MessagePayload{
		ID: "m3", ChatID: "chat-1", SenderID: "them", Content: "live", CreatedAt: time.Now(),
	})
	msgs := s.Timeline()
	require.Len(t, msgs, 3)
	assert.Equal(t, "live", msgs[2].Content)

	// Tagged for another conversation: ignored.
	ch.deliver(t, realtime.EventReceiveMessage, realtime.MessagePayload{
		ID: "x1", ChatID: "chat-2", SenderID: "them", Content: "stray",
	})
	assert.Len(t, s.Timeline(), 3)

	// Replay of a message already in history: deduplicated by id.
	ch.deliver(t, realtime.EventReceiveMessage, realtime.MessagePayload{
		ID: "m1", ChatID: "chat-1", SenderID: "them", Content: "hey",
	})
	assert.Len(t, s.Timeline(), 3)
}

func TestSendClearsDraftImmediatelyAndAppendsAuthoritativeMessage(t *testing.T) {
	api := &fakeAPI{chat: testChat()}
	ch := newFakeChannel()
	s := openSession(t, api, ch)
	defer s.Close()

	s.Input("hi there")
	result, err := s.Send(context.Background())
	require.NoError(t, err)

	assert.Empty(t, s.Draft())
	require.NotNil(t, result.Message)
	assert.Equal(t, "srv-hi there", result.Message.ID)

	msgs := s.Timeline()
	require.Len(t, msgs, 3)
	assert.Equal(t, "srv-hi there", msgs[2].ID)

	// The low-latency copy went out for the counterpart's screen.
	ch.mu.Lock()
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "chat-1", ch.sent[0].ChatID)
	assert.Equal(t, "srv-hi there", ch.sent[0].ID)
	ch.mu.Unlock()
}

func TestSendFailureRestoresDraftAndAppendsNothing(t *testing.T) {
	api := &fakeAPI{chat: testChat(), sendErr: errors.New("network down")}
	ch := newFakeChannel()
	notifier := &recordingNotifier{}
	s := NewSession("chat-1", "me", api, ch, notifier)
	require.NoError(t, s.Open(context.Background()))
	defer s.Close()

	s.Input("important text")
	result, err := s.Send(context.Background())
	require.Error(t, err)

	assert.Equal(t, "important text", result.RestoredInput)
	assert.Equal(t, "important text", s.Draft())
	assert.Len(t, s.Timeline(), 2) // no partial send left behind

	ch.mu.Lock()
	assert.Empty(t, ch.sent)
	ch.mu.Unlock()

	notifier.mu.Lock()
	assert.Len(t, notifier.errors, 1)
	notifier.mu.Unlock()
}

func TestSendDedupesAgainstLiveEcho(t *testing.T) {
	api := &fakeAPI{chat: testChat()}
	ch := newFakeChannel()
	s := openSession(t, api, ch)
	defer s.Close()

	s.Input("hi")
	_, err := s.Send(context.Background())
	require.NoError(t, err)

	// The server echoes the same message back through the room.
	ch.deliver(t, realtime.EventReceiveMessage, realtime.MessagePayload{
		ID: "srv-hi", ChatID: "chat-1", SenderID: "me", Content: "hi",
	})
	assert.Len(t, s.Timeline(), 3)
}

func TestSendEmptyDraft(t *testing.T) {
	s := openSession(t, &fakeAPI{chat: testChat()}, newFakeChannel())
	defer s.Close()

	s.Input("   ")
	_, err := s.Send(context.Background())
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestTypingBurstEmitsOneStartAndOneStop(t *testing.T) {
	ch := newFakeChannel()
	s := openSession(t, &fakeAPI{chat: testChat()}, ch)
	defer s.Close()
	s.idle = 50 * time.Millisecond

	// Keystrokes closer together than the idle window: one burst.
	s.Input("h")
	s.Input("he")
	s.Input("hey")

	starts, stops := ch.typingCounts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 0, stops)

	assert.Eventually(t, func() bool {
		_, stops := ch.typingCounts()
		return stops == 1
	}, time.Second, 5*time.Millisecond)

	// A new burst starts over.
	s.Input("hey!")
	starts, _ = ch.typingCounts()
	assert.Equal(t, 2, starts)
}

func TestSendStopsTypingSignal(t *testing.T) {
	ch := newFakeChannel()
	s := openSession(t, &fakeAPI{chat: testChat()}, ch)
	defer s.Close()

	s.Input("hi")
	_, err := s.Send(context.Background())
	require.NoError(t, err)

	starts, stops := ch.typingCounts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)

	// No stray idle-timer stop later on.
	time.Sleep(typingIdle + 100*time.Millisecond)
	_, stops = ch.typingCounts()
	assert.Equal(t, 1, stops)
}

func TestCounterpartTypingFlag(t *testing.T) {
	ch := newFakeChannel()
	s := openSession(t, &fakeAPI{chat: testChat()}, ch)
	defer s.Close()

	ch.deliver(t, realtime.EventTypingStart, realtime.TypingPayload{ChatID: "chat-1", UserID: "them"})
	assert.True(t, s.OtherTyping())

	ch.deliver(t, realtime.EventTypingStop, realtime.TypingPayload{ChatID: "chat-1", UserID: "them"})
	assert.False(t, s.OtherTyping())

	// Our own signal echoed back is ignored.
	ch.deliver(t, realtime.EventTypingStart, realtime.TypingPayload{ChatID: "chat-1", UserID: "me"})
	assert.False(t, s.OtherTyping())
}

func TestCloseStopsMergingEvents(t *testing.T) {
	ch := newFakeChannel()
	s := openSession(t, &fakeAPI{chat: testChat()}, ch)

	s.Close()
	assert.Equal(t, StateClosed, s.State())

	// A straggler event after teardown must not mutate the timeline.
	ch.deliver(t, realtime.EventReceiveMessage, realtime.MessagePayload{
		ID: "late", ChatID: "chat-1", SenderID: "them", Content: "late",
	})
	assert.Len(t, s.Timeline(), 2)

	ch.deliver(t, realtime.EventTypingStart, realtime.TypingPayload{ChatID: "chat-1", UserID: "them"})
	assert.False(t, s.OtherTyping())
}

// Two matched users with the same chat open: the sender sees the message
// immediately from the durable response; the counterpart sees it from the
// live emission, without refetching.
func TestSendReachesCounterpartLive(t *testing.T) {
	chA := newFakeChannel()
	a := NewSession("chat-1", "userA", &fakeAPI{chat: testChat(), selfID: "userA"}, chA, &recordingNotifier{})
	require.NoError(t, a.Open(context.Background()))
	defer a.Close()

	chB := newFakeChannel()
	b := NewSession("chat-1", "userB", &fakeAPI{chat: testChat()}, chB, &recordingNotifier{})
	require.NoError(t, b.Open(context.Background()))
	defer b.Close()

	a.Input("hi")
	result, err := a.Send(context.Background())
	require.NoError(t, err)

	// A's timeline shows "hi" attributed to A immediately.
	msgsA := a.Timeline()
	assert.Equal(t, "hi", msgsA[len(msgsA)-1].Content)
	assert.Equal(t, "userA", result.Message.SenderID)

	// The fire-and-forget emission reaches B's open screen.
	chA.mu.Lock()
	require.Len(t, chA.sent, 1)
	payload := chA.sent[0]
	chA.mu.Unlock()
	assert.Equal(t, "userA", payload.SenderID)
	chB.deliver(t, realtime.EventReceiveMessage, payload)

	msgsB := b.Timeline()
	assert.Equal(t, "hi", msgsB[len(msgsB)-1].Content)
	assert.Equal(t, "userA", msgsB[len(msgsB)-1].SenderID)
}

func TestRowsEndToEndThroughSession(t *testing.T) {
	s := openSession(t, &fakeAPI{chat: testChat()}, newFakeChannel())
	defer s.Close()

	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	rows := s.Rows(now)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Today", rows[0].Separator)
}
