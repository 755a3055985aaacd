package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/12305/devTinder-Frontend/internal/models"
	"github.com/12305/devTinder-Frontend/internal/realtime"
	"github.com/12305/devTinder-Frontend/pkg/logger"
	"github.com/12305/devTinder-Frontend/pkg/notify"
)

// State is the lifecycle of one open chat screen.
type State int

const (
	StateLoading State = iota
	StateReady
	StateErrored
	StateClosed
)

// API is the slice of the REST client the controller needs: the durable
// history and send paths.
type API interface {
	ChatMessages(ctx context.Context, chatID string) (*models.Chat, error)
	SendMessage(ctx context.Context, chatID, content string) (*models.Message, error)
}

// Channel is the slice of the realtime manager the controller needs.
type Channel interface {
	JoinChat(chatID string)
	SendMessage(p realtime.MessagePayload)
	TypingStart(chatID, userID string)
	TypingStop(chatID, userID string)
	Subscribe(kind, chatID string, fn realtime.Handler) *realtime.Subscription
}

var (
	ErrNotReady     = errors.New("chat: session is not ready")
	ErrEmptyMessage = errors.New("chat: message is empty")
)

// typingIdle is how long after the last keystroke the typing signal stops.
const typingIdle = time.Second

// SendResult reports which branch a send took. Exactly one field is set:
// Message on durable confirmation, RestoredInput when the send failed and the
// cleared draft was handed back for retry.
type SendResult struct {
	Message       *models.Message
	RestoredInput string
}

// Session drives one open chat screen: it fetches the history, then merges
// the live message/typing streams into a single timeline-and-typing view.
// The live subscription is only created after the history fetch resolves, so
// history is always established before the first live merge.
type Session struct {
	chatID   string
	selfID   string
	api      API
	channel  Channel
	notifier notify.Notifier
	log      zerolog.Logger

	idle time.Duration // typing idle window, overridable in tests

	mu           sync.Mutex
	state        State
	participants []models.User
	tl           *timeline
	otherTyping  bool
	draft        string
	typingActive bool
	idleTimer    *time.Timer
	subs         []*realtime.Subscription
}

func NewSession(chatID, selfID string, api API, channel Channel, notifier notify.Notifier) *Session {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Session{
		chatID:   chatID,
		selfID:   selfID,
		api:      api,
		channel:  channel,
		notifier: notifier,
		log:      logger.With("chat").With().Str("chatId", chatID).Logger(),
		idle:     typingIdle,
		state:    StateLoading,
		tl:       newTimeline(),
	}
}

// Open fetches the conversation and, on success, moves to ready and
// subscribes to the live streams. On failure the session is errored and the
// caller navigates back to the conversation list.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.mu.Unlock()

	conv, err := s.api.ChatMessages(ctx, s.chatID)
	if err != nil {
		s.mu.Lock()
		if s.state == StateLoading { // stale guard: screen may be gone already
			s.state = StateErrored
		}
		s.mu.Unlock()
		s.notifier.Error("Could not load this conversation")
		return err
	}

	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.participants = conv.Participants
	s.tl.load(conv.Messages)
	s.state = StateReady
	s.subs = []*realtime.Subscription{
		s.channel.Subscribe(realtime.EventReceiveMessage, s.chatID, s.onMessage),
		s.channel.Subscribe(realtime.EventTypingStart, s.chatID, s.onTypingStart),
		s.channel.Subscribe(realtime.EventTypingStop, s.chatID, s.onTypingStop),
	}
	s.mu.Unlock()

	s.channel.JoinChat(s.chatID)
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Participants() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, len(s.participants))
	copy(out, s.participants)
	return out
}

// Timeline returns the merged messages in ascending timestamp order.
func (s *Session) Timeline() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl.snapshot()
}

// Rows returns the timeline with day separators, computed against now.
func (s *Session) Rows(now time.Time) []Row {
	return Rows(s.Timeline(), now)
}

// OtherTyping reports whether the counterpart is typing right now.
func (s *Session) OtherTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otherTyping
}

func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Input records the draft text on each keystroke and drives the typing
// signal: the first keystroke of a burst emits typing_start and arms the idle
// timer; every keystroke re-arms it; expiry emits typing_stop. One start per
// burst, one stop per idle period.
func (s *Session) Input(text string) {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return
	}
	s.draft = text

	start := false
	if !s.typingActive && text != "" {
		s.typingActive = true
		start = true
	}
	if s.typingActive {
		if s.idleTimer != nil {
			s.idleTimer.Stop()
		}
		s.idleTimer = time.AfterFunc(s.idle, s.typingIdleExpired)
	}
	s.mu.Unlock()

	if start {
		s.channel.TypingStart(s.chatID, s.selfID)
	}
}

func (s *Session) typingIdleExpired() {
	s.mu.Lock()
	stop := s.state == StateReady && s.typingActive
	s.typingActive = false
	s.mu.Unlock()

	if stop {
		s.channel.TypingStop(s.chatID, s.selfID)
	}
}

// Send submits the current draft. The draft and the typing flag are cleared
// immediately; the durable POST response is the authoritative message
// appended to the timeline, and a fire-and-forget realtime copy gives the
// counterpart near-instant delivery. On failure nothing is appended and the
// cleared text is handed back via SendResult.RestoredInput.
func (s *Session) Send(ctx context.Context) (SendResult, error) {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return SendResult{}, ErrNotReady
	}
	content := strings.TrimSpace(s.draft)
	if content == "" {
		s.mu.Unlock()
		return SendResult{}, ErrEmptyMessage
	}
	s.draft = ""
	stopTyping := s.typingActive
	s.typingActive = false
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	s.mu.Unlock()

	if stopTyping {
		s.channel.TypingStop(s.chatID, s.selfID)
	}

	msg, err := s.api.SendMessage(ctx, s.chatID, content)
	if err != nil {
		s.mu.Lock()
		// Restore the text for retry unless the user already typed on.
		if s.state == StateReady && s.draft == "" {
			s.draft = content
		}
		s.mu.Unlock()
		s.notifier.Error("Message not sent")
		return SendResult{RestoredInput: content}, err
	}

	s.mu.Lock()
	if s.state == StateReady { // stale guard
		s.tl.append(*msg)
	}
	s.mu.Unlock()

	s.channel.SendMessage(realtime.MessagePayload{
		ID:        msg.ID,
		ChatID:    s.chatID,
		SenderID:  s.selfID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})
	return SendResult{Message: msg}, nil
}

// Close tears the screen down: every subscription is released so no event
// leaks into other screens, and a dangling typing flag is cleared.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	subs := s.subs
	s.subs = nil
	stopTyping := s.typingActive
	s.typingActive = false
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	if stopTyping {
		s.channel.TypingStop(s.chatID, s.selfID)
	}
}

func (s *Session) onMessage(ev realtime.Event) {
	var p realtime.MessagePayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		s.log.Warn().Err(err).Msg("bad message payload")
		return
	}
	if p.ChatID != s.chatID {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return
	}
	s.tl.append(p.ToMessage())
}

func (s *Session) onTypingStart(ev realtime.Event) {
	s.setOtherTyping(ev, true)
}

func (s *Session) onTypingStop(ev realtime.Event) {
	s.setOtherTyping(ev, false)
}

func (s *Session) setOtherTyping(ev realtime.Event, typing bool) {
	var p realtime.TypingPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return
	}
	// Our own signals echo back through the room; ignore them.
	if p.ChatID != s.chatID || p.UserID == s.selfID {
		return
	}

	s.mu.Lock()
	if s.state == StateReady {
		s.otherTyping = typing
	}
	s.mu.Unlock()
}
