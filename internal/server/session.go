package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Tyrowin/roomchat/internal/auth"
	"github.com/Tyrowin/roomchat/internal/hub"
	"github.com/Tyrowin/roomchat/internal/protocol"
	"github.com/Tyrowin/roomchat/internal/store"
)

// SessionState is the lifecycle phase of a Session.
type SessionState int

const (
	// StateConnecting means the transport is accepted but the identity is
	// not yet resolved.
	StateConnecting SessionState = iota
	// StateActive means frames are being processed.
	StateActive
	// StateClosed is terminal.
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MessageStore persists chat messages. userID is nil for anonymous posts.
type MessageStore interface {
	CreateMessage(ctx context.Context, chatID string, userID *string, content string) (*store.ChatMessage, error)
}

// anonymousAnnounceName names anonymous users in join and leave notices.
const anonymousAnnounceName = "A user"

// SessionDeps are the collaborators shared by every session.
type SessionDeps struct {
	Registry      *hub.Registry
	Dispatcher    *hub.Dispatcher
	Store         MessageStore
	AnonymousName string
	AutoReply     AutoReplyConfig
	// Now stamps outbound frames; defaults to time.Now.
	Now func() time.Time
}

// Session drives one connection: it interprets inbound frames, keeps room
// membership in the shared Registry and persists chat messages. Frames are
// handled sequentially by the connection's read pump.
type Session struct {
	conn hub.Conn
	deps SessionDeps

	mu       sync.Mutex
	state    SessionState
	identity auth.Identity

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup
}

// NewSession creates a session in StateConnecting. parent bounds the
// lifetime of deferred work such as auto replies.
func NewSession(parent context.Context, conn hub.Conn, deps SessionDeps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = hub.NewDispatcher(deps.Registry)
	}
	if deps.AnonymousName == "" {
		deps.AnonymousName = defaultAnonymousName
	}

	ctx, cancel := context.WithCancel(parent)
	return &Session{
		conn:   conn,
		deps:   deps,
		state:  StateConnecting,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Activate binds the resolved identity and starts accepting frames. It
// returns false unless the session was still connecting.
func (s *Session) Activate(identity auth.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnecting {
		return false
	}
	s.identity = identity
	s.state = StateActive
	log.Printf("Session %s active as %s", s.conn.ID(), describeIdentity(identity))
	return true
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the identity the session acts as.
func (s *Session) Identity() auth.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Close releases every room subscription and cancels pending deferred
// work. Calling it more than once is harmless.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.mu.Unlock()

	s.cancel()
	left := s.deps.Registry.RemoveFromAllRooms(s.conn)
	s.tasks.Wait()
	log.Printf("Session %s closed; left %d room(s), %d room(s) still active",
		s.conn.ID(), len(left), s.deps.Registry.RoomCount())
}

// HandleFrame decodes and applies one inbound frame. Frames arriving
// outside StateActive are ignored.
func (s *Session) HandleFrame(raw []byte) {
	if s.State() != StateActive {
		return
	}

	msg, err := protocol.Decode(raw)
	if err != nil {
		log.Printf("Rejected frame from %s: %v", s.conn.ID(), err)
		s.notify("", frameErrorText(err))
		return
	}

	switch m := msg.(type) {
	case protocol.Subscribe:
		s.subscribe(m.ChatID)
	case protocol.Unsubscribe:
		s.unsubscribe(m.ChatID)
	case protocol.ChatMessage:
		s.postMessage(m)
	case protocol.SystemMessage:
		s.notify(m.ChatID, "Error processing your message: system messages are reserved for the server")
	default:
		s.notify("", fmt.Sprintf("Error processing your message: unsupported type %q", msg.Type()))
	}
}

// RateLimited tells the client a frame was dropped.
func (s *Session) RateLimited() {
	if s.State() != StateActive {
		return
	}
	s.notify("", "Rate limit exceeded; message discarded")
}

func (s *Session) subscribe(chatID string) {
	rejoin := s.deps.Registry.IsSubscribed(chatID, s.conn)
	s.deps.Registry.Subscribe(chatID, s.conn)

	if !rejoin {
		s.deps.Dispatcher.BroadcastToRoom(chatID,
			protocol.Notice(chatID, s.announceName()+" joined the chat", s.deps.Now()),
			s.conn)
	}

	others := s.deps.Registry.SubscriberCount(chatID) - 1
	if others < 0 {
		others = 0
	}
	s.notify(chatID, fmt.Sprintf("Welcome to the chat! There are %d other users online", others))
}

func (s *Session) unsubscribe(chatID string) {
	if !s.deps.Registry.Unsubscribe(chatID, s.conn) {
		return
	}

	s.deps.Dispatcher.BroadcastToRoom(chatID,
		protocol.Notice(chatID, s.announceName()+" left the chat", s.deps.Now()),
		s.conn)
}

func (s *Session) postMessage(m protocol.ChatMessage) {
	identity := s.Identity()

	saved, err := s.deps.Store.CreateMessage(s.ctx, m.ChatID, identity.UserRef(), m.Content)
	if err != nil {
		log.Printf("Failed to persist message from %s to chat %s: %v", s.conn.ID(), m.ChatID, err)
		s.notify(m.ChatID, persistErrorText(err))
		return
	}

	createdAt := saved.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.deps.Now()
	}
	out := protocol.ChatMessage{
		ChatID:    m.ChatID,
		UserID:    identity.UserID,
		UserName:  s.authorName(identity, m.UserName),
		Content:   saved.Content,
		CreatedAt: createdAt,
	}

	if err := hub.SendTo(s.conn, out); err != nil {
		log.Printf("Failed to confirm message to %s: %v", s.conn.ID(), err)
	}
	s.deps.Dispatcher.BroadcastToRoom(m.ChatID, out, s.conn)

	if s.deps.AutoReply.Enabled() {
		s.scheduleAutoReply(m.ChatID)
	}
}

// scheduleAutoReply posts the configured reply to chatID after the delay
// unless the session closes first.
func (s *Session) scheduleAutoReply(chatID string) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.tasks.Add(1)
	s.mu.Unlock()

	cfg := s.deps.AutoReply
	go func() {
		defer s.tasks.Done()

		timer := time.NewTimer(cfg.Delay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		var userRef *string
		if cfg.UserID != "" {
			userRef = &cfg.UserID
		}
		saved, err := s.deps.Store.CreateMessage(s.ctx, chatID, userRef, cfg.Content)
		if err != nil {
			if s.ctx.Err() == nil {
				log.Printf("Auto reply to chat %s failed: %v", chatID, err)
			}
			return
		}
		if s.ctx.Err() != nil {
			return
		}

		createdAt := saved.CreatedAt
		if createdAt.IsZero() {
			createdAt = s.deps.Now()
		}
		s.deps.Dispatcher.BroadcastToRoom(chatID, protocol.ChatMessage{
			ChatID:    chatID,
			UserID:    cfg.UserID,
			UserName:  cfg.UserName,
			Content:   saved.Content,
			CreatedAt: createdAt,
		}, nil)
	}()
}

func (s *Session) notify(chatID, content string) {
	if err := hub.SendTo(s.conn, protocol.Notice(chatID, content, s.deps.Now())); err != nil {
		log.Printf("Failed to notify %s: %v", s.conn.ID(), err)
	}
}

func (s *Session) announceName() string {
	if name := s.Identity().UserName; name != "" {
		return name
	}
	return anonymousAnnounceName
}

// authorName picks the display name for a post: the authenticated name,
// then the name the client supplied, then the anonymous label.
func (s *Session) authorName(identity auth.Identity, claimed string) string {
	if identity.UserName != "" {
		return identity.UserName
	}
	if claimed != "" {
		return claimed
	}
	return s.deps.AnonymousName
}

func describeIdentity(identity auth.Identity) string {
	if identity.IsAnonymous() {
		return "anonymous"
	}
	return fmt.Sprintf("user %s", identity.UserID)
}

func frameErrorText(err error) string {
	switch {
	case errors.Is(err, protocol.ErrUnknownMessageType):
		return "Error processing your message: unknown message type"
	case errors.Is(err, protocol.ErrMissingField):
		return "Error processing your message: " + err.Error()
	default:
		return "Error processing your message: malformed frame"
	}
}

func persistErrorText(err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return "Failed to send your message: chat not found"
	}
	return "Failed to send your message. Please try again."
}
