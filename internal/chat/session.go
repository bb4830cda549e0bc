// Package chat holds the chat transcript and the lifecycle of the query
// currently in flight.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/user/hrassist/internal/gateway"
	"github.com/user/hrassist/internal/types"
)

// State is the lifecycle state of the pending exchange.
type State string

const (
	StateAwaitingInput State = "awaiting_input"
	StateSending       State = "sending"
)

var (
	ErrEmptyQuery        = errors.New("query is empty")
	ErrBusy              = errors.New("a query is already in flight")
	ErrOffline           = errors.New("AI service is offline")
	ErrSuggestionsClosed = errors.New("suggestions are only offered before the first exchange")
	ErrNoSuchSuggestion  = errors.New("no such suggestion")
)

const (
	WelcomeText = "Hello! I'm your HR Assistant. I can help you find information about company policies, benefits, leave procedures, and more. What would you like to know?"

	ServerErrorText       = "There seems to be a server issue. Please check if the inference service is running."
	ConnectionRefusedText = "Cannot connect to the server. Please make sure the backend is running."
	GenericErrorText      = "I'm having trouble processing your request. Please try again."

	OfflinePlaceholder = "AI service is offline. Please start the inference service."
	InputPlaceholder   = "Type your HR question here..."
)

// Querier answers one question.
type Querier interface {
	SendQuery(ctx context.Context, text string) (*types.ChatReply, error)
}

// Option configures optional behavior on a Session.
type Option func(*Session)

// WithHealth sets the source of backend health used for input gating.
func WithHealth(fn func() types.HealthStatus) Option {
	return func(s *Session) { s.health = fn }
}

// WithNotifier sets the notification collaborator.
func WithNotifier(n types.Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithTranscriptStore persists every appended message.
func WithTranscriptStore(store types.TranscriptStore) Option {
	return func(s *Session) { s.store = store }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is one conversation. Exchanges are strictly serialized: a
// submission is rejected while another is in flight, so every user message
// is followed by exactly one assistant message.
type Session struct {
	id       types.SessionID
	querier  Querier
	health   func() types.HealthStatus
	notifier types.Notifier
	store    types.TranscriptStore
	now      func() time.Time

	mu       sync.RWMutex
	state    State
	messages []types.ChatMessage
	input    string
	lastAt   time.Time
}

// NewSession creates a session seeded with the welcome message.
func NewSession(querier Querier, opts ...Option) *Session {
	s := &Session{
		id:      types.NewSessionID(),
		querier: querier,
		health:  types.UnknownHealth,
		now:     time.Now,
		state:   StateAwaitingInput,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	seed := s.appendLocked(types.SenderAssistant, WelcomeText, nil, "", false)
	s.mu.Unlock()
	s.persist(seed)
	return s
}

// ID identifies the session in the transcript store.
func (s *Session) ID() types.SessionID {
	return s.id
}

// State returns the lifecycle state of the pending exchange.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []types.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the transcript.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Offline reports whether the AI backend is known to be unavailable.
func (s *Session) Offline() bool {
	return s.health().AIOffline()
}

// InputEnabled reports whether the input control accepts text.
func (s *Session) InputEnabled() bool {
	return s.State() != StateSending && !s.Offline()
}

// CanSend reports whether the send action is available.
func (s *Session) CanSend() bool {
	return s.InputEnabled() && strings.TrimSpace(s.Input()) != ""
}

// Placeholder is the hint shown in an empty input control.
func (s *Session) Placeholder() string {
	if s.Offline() {
		return OfflinePlaceholder
	}
	return InputPlaceholder
}

// SetInput replaces the input buffer.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = text
}

// Input returns the input buffer.
func (s *Session) Input() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.input
}

// Send submits the input buffer.
func (s *Session) Send(ctx context.Context) (*types.ChatMessage, error) {
	return s.Submit(ctx, s.Input())
}

// Submit runs one exchange and returns the assistant message it appended.
// ErrEmptyQuery, ErrOffline and ErrBusy reject the submission without
// touching the transcript. Backend failures are not returned: they become
// an assistant message with IsError set.
func (s *Session) Submit(ctx context.Context, text string) (*types.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	if s.Offline() {
		return nil, ErrOffline
	}

	s.mu.Lock()
	if s.state == StateSending {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	question := s.appendLocked(types.SenderUser, text, nil, "", false)
	s.state = StateSending
	s.input = ""
	s.mu.Unlock()
	s.persist(question)

	reply, err := s.querier.SendQuery(ctx, text)

	s.mu.Lock()
	var answer types.ChatMessage
	if err != nil {
		answer = s.appendLocked(types.SenderAssistant, errorText(err), nil, "", true)
	} else {
		answer = s.appendLocked(types.SenderAssistant, reply.Text, reply.Sources, reply.Confidence, false)
	}
	s.state = StateAwaitingInput
	s.mu.Unlock()
	s.persist(answer)

	if err != nil {
		slog.Error("chat query failed", "session_id", string(s.id), "error", err)
		if s.notifier != nil {
			s.notifier.Notify(types.Event{
				Topic:       "chat.failed",
				Level:       types.LevelError,
				Title:       "Error",
				Description: answer.Text,
			})
		}
	}
	return &answer, nil
}

// appendLocked adds a message with a fresh ID and a timestamp no earlier
// than its predecessor. Caller must hold mu.
func (s *Session) appendLocked(sender types.Sender, text string, sources []types.Source, confidence types.Confidence, isError bool) types.ChatMessage {
	at := s.now()
	if at.Before(s.lastAt) {
		at = s.lastAt
	}
	s.lastAt = at

	if sources == nil {
		sources = []types.Source{}
	}
	msg := types.ChatMessage{
		ID:         types.NewMessageID(),
		Text:       text,
		Sender:     sender,
		Timestamp:  at,
		Sources:    sources,
		Confidence: confidence,
		IsError:    isError,
	}
	s.messages = append(s.messages, msg)
	return msg
}

func (s *Session) persist(msg types.ChatMessage) {
	if s.store == nil {
		return
	}
	if err := s.store.Append(context.Background(), s.id, &msg); err != nil {
		slog.Warn("transcript append failed", "session_id", string(s.id), "error", err)
	}
}

// errorText picks the user-facing message for a failed query.
func errorText(err error) string {
	var chatErr *gateway.ChatError
	if !errors.As(err, &chatErr) {
		return GenericErrorText
	}
	switch chatErr.Kind {
	case gateway.KindServerError:
		return ServerErrorText
	case gateway.KindConnectionRefused:
		return ConnectionRefusedText
	default:
		return GenericErrorText
	}
}
