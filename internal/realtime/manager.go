package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/12305/devTinder-Frontend/pkg/logger"
)

// PresenceAPI is the slice of the REST client the manager needs for its
// best-effort online/offline announcements.
type PresenceAPI interface {
	SetOnlineStatus(ctx context.Context, online bool) error
}

// Handler receives one event. Handlers run on the read loop goroutine and
// must not block.
type Handler func(Event)

type subKey struct {
	kind   string
	chatID string
}

// Subscription is an explicit handle on a (kind, chatId) subscription.
// Holders must Cancel it when their screen goes away or events leak across
// screens.
type Subscription struct {
	id  string
	key subKey
	m   *Manager
}

// Cancel releases the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil || s.m == nil {
		return
	}
	s.m.mu.Lock()
	if handlers, ok := s.m.subs[s.key]; ok {
		delete(handlers, s.id)
		if len(handlers) == 0 {
			delete(s.m.subs, s.key)
		}
	}
	s.m.mu.Unlock()
	s.m = nil
}

const (
	handshakeTimeout = 10 * time.Second
	reconnectBase    = time.Second
	reconnectMax     = 30 * time.Second
)

// Manager owns the single realtime connection of an authenticated session.
// It republishes incoming events to (kind, chatId)-scoped subscribers and
// tracks which identities are currently online. Nothing else opens or closes
// the connection.
type Manager struct {
	url string
	api PresenceAPI
	log zerolog.Logger

	writeMu sync.Mutex // serializes writes to conn

	mu     sync.Mutex
	conn   *websocket.Conn
	token  string
	closed bool
	joined map[string]struct{}
	online map[string]struct{}
	subs   map[subKey]map[string]Handler
	done   chan struct{}
}

func NewManager(socketURL string, api PresenceAPI) *Manager {
	return &Manager{
		url:    socketURL,
		api:    api,
		log:    logger.With("realtime"),
		joined: make(map[string]struct{}),
		online: make(map[string]struct{}),
		subs:   make(map[subKey]map[string]Handler),
	}
}

// Connect opens the connection authenticated with the session credential.
// An existing connection is torn down first: at most one exists per session.
func (m *Manager) Connect(ctx context.Context, token string) error {
	m.mu.Lock()
	if m.conn != nil {
		m.closeConnLocked()
	}
	m.closed = false
	m.token = token
	m.mu.Unlock()

	conn, err := m.dial(ctx, token)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	m.mu.Lock()
	m.conn = conn
	m.done = done
	m.mu.Unlock()

	m.announce(ctx, true)
	go m.readLoop(conn, done)
	return nil
}

func (m *Manager) dial(ctx context.Context, token string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, m.url+"?token="+token, nil)
	return conn, err
}

// Close tears the connection down and announces offline, best-effort. The
// manager can be connected again afterwards (new login).
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.closeConnLocked()
	m.mu.Unlock()

	m.announce(context.Background(), false)
}

func (m *Manager) closeConnLocked() {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
}

// announce pushes presence over the REST API. Failures are logged only; they
// never block or fail the connection lifecycle.
func (m *Manager) announce(ctx context.Context, online bool) {
	if m.api == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.api.SetOnlineStatus(ctx, online); err != nil {
		m.log.Warn().Err(err).Bool("online", online).Msg("presence announce failed")
	}
}

func (m *Manager) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			select {
			case <-done:
				return // deliberate close
			default:
			}
			m.log.Warn().Err(err).Msg("connection dropped, reconnecting")
			m.reconnect(done)
			return
		}
		m.dispatch(ev)
	}
}

// reconnect redials with capped backoff until it succeeds or the manager is
// closed, then rejoins every chat room and re-announces presence.
func (m *Manager) reconnect(done chan struct{}) {
	backoff := reconnectBase
	for {
		select {
		case <-done:
			return
		case <-time.After(backoff):
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return
		}
		token := m.token
		m.mu.Unlock()

		conn, err := m.dial(context.Background(), token)
		if err != nil {
			m.log.Warn().Err(err).Dur("backoff", backoff).Msg("reconnect failed")
			if backoff *= 2; backoff > reconnectMax {
				backoff = reconnectMax
			}
			continue
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			conn.Close()
			return
		}
		m.conn = conn
		rooms := make([]string, 0, len(m.joined))
		for id := range m.joined {
			rooms = append(rooms, id)
		}
		m.mu.Unlock()

		m.log.Info().Int("rooms", len(rooms)).Msg("reconnected")
		for _, id := range rooms {
			m.emit(EventJoinChat, TypingPayload{ChatID: id})
		}
		m.announce(context.Background(), true)

		go m.readLoop(conn, done)
		return
	}
}

// Subscribe registers a handler for one event kind scoped to a conversation.
// Presence kinds use an empty chatID (they are not conversation-scoped).
func (m *Manager) Subscribe(kind, chatID string, fn Handler) *Subscription {
	key := subKey{kind: kind, chatID: chatID}
	sub := &Subscription{id: uuid.New().String(), key: key, m: m}

	m.mu.Lock()
	if m.subs[key] == nil {
		m.subs[key] = make(map[string]Handler)
	}
	m.subs[key][sub.id] = fn
	m.mu.Unlock()
	return sub
}

func (m *Manager) dispatch(ev Event) {
	chatID := ""
	switch ev.Event {
	case EventUserOnline, EventUserOffline:
		var p PresencePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil || p.UserID == "" {
			return
		}
		m.mu.Lock()
		if ev.Event == EventUserOnline {
			m.online[p.UserID] = struct{}{} // idempotent add
		} else {
			delete(m.online, p.UserID)
		}
		m.mu.Unlock()
	case EventOnlineUsers:
		var p OnlineUsersPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		m.mu.Lock()
		m.online = make(map[string]struct{}, len(p.UserIDs))
		for _, id := range p.UserIDs {
			m.online[id] = struct{}{}
		}
		m.mu.Unlock()
	case EventReceiveMessage, EventTypingStart, EventTypingStop:
		// Conversation-scoped: route by the chatId in the payload.
		var scope struct {
			ChatID string `json:"chatId"`
		}
		if err := json.Unmarshal(ev.Payload, &scope); err != nil || scope.ChatID == "" {
			return
		}
		chatID = scope.ChatID
	default:
		m.log.Debug().Str("event", ev.Event).Msg("unhandled event kind")
		return
	}

	m.mu.Lock()
	handlers := make([]Handler, 0, len(m.subs[subKey{ev.Event, chatID}]))
	for _, fn := range m.subs[subKey{ev.Event, chatID}] {
		handlers = append(handlers, fn)
	}
	m.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// JoinChat enters a conversation's room so its events reach this client. The
// room is re-entered automatically after a reconnect.
func (m *Manager) JoinChat(chatID string) {
	m.mu.Lock()
	m.joined[chatID] = struct{}{}
	m.mu.Unlock()
	m.emit(EventJoinChat, TypingPayload{ChatID: chatID})
}

// SendMessage emits the low-latency copy of a message. Fire-and-forget: the
// durable POST is the source of truth, this only speeds up the counterpart's
// view.
func (m *Manager) SendMessage(p MessagePayload) {
	m.emit(EventSendMessage, p)
}

func (m *Manager) TypingStart(chatID, userID string) {
	m.emit(EventTypingStart, TypingPayload{ChatID: chatID, UserID: userID})
}

func (m *Manager) TypingStop(chatID, userID string) {
	m.emit(EventTypingStop, TypingPayload{ChatID: chatID, UserID: userID})
}

func (m *Manager) emit(kind string, payload interface{}) {
	ev, err := marshalEvent(kind, payload)
	if err != nil {
		m.log.Error().Err(err).Str("event", kind).Msg("marshal failed")
		return
	}

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		m.log.Debug().Str("event", kind).Msg("emit skipped, not connected")
		return
	}

	m.writeMu.Lock()
	err = conn.WriteJSON(ev)
	m.writeMu.Unlock()
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		m.log.Warn().Err(err).Str("event", kind).Msg("emit failed")
	}
}

// IsOnline reports whether the identity is currently online.
func (m *Manager) IsOnline(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.online[userID]
	return ok
}

// OnlineUsers returns the ids currently online.
func (m *Manager) OnlineUsers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.online))
	for id := range m.online {
		ids = append(ids, id)
	}
	return ids
}
