package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"esmalte/internal/logger"
	"esmalte/internal/reveal"
	"esmalte/pkg/esmaltetypes"
)

// Completer produces an assistant reply for a full conversation.
type Completer interface {
	GetChatCompletion(ctx context.Context, messages []esmaltetypes.Message) (string, error)
}

// ChatService owns the in-memory conversation and drives the send pipeline:
// validate, append the user turn, request a completion, append the assistant
// turn, persist. Sends are strictly serialized; a send arriving while another
// is in flight is rejected rather than queued.
type ChatService struct {
	completer Completer
	store     *ConversationStore
	identity  esmaltetypes.IdentityProvider
	apology   string

	mu              sync.Mutex
	messages        []esmaltetypes.Message
	lastStableIndex int
	inFlight        bool
}

// NewChatService creates a ChatService with an empty conversation.
func NewChatService(completer Completer, store *ConversationStore, identity esmaltetypes.IdentityProvider, apology string) *ChatService {
	return &ChatService{
		completer:       completer,
		store:           store,
		identity:        identity,
		apology:         apology,
		lastStableIndex: reveal.NoStableMessages,
	}
}

// Name returns the service name.
func (s *ChatService) Name() string {
	return "chat"
}

// SendMessage runs one conversation turn and returns the assistant reply.
// Empty input and concurrent sends are rejected. A completion failure does
// not fail the turn: the apology reply is recorded in its place so the
// conversation stays well-formed.
func (s *ChatService) SendMessage(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("message cannot be empty")
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return "", fmt.Errorf("a message is already being processed")
	}
	s.inFlight = true
	s.messages = append(s.messages, esmaltetypes.Message{Role: esmaltetypes.RoleUser, Content: text})
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	reply, err := s.completer.GetChatCompletion(ctx, snapshot)
	if err != nil {
		logger.Error("Completion failed", "error", err)
		reply = s.apology
	}

	s.mu.Lock()
	s.messages = append(s.messages, esmaltetypes.Message{Role: esmaltetypes.RoleAssistant, Content: reply})
	snapshot = s.snapshotLocked()
	s.mu.Unlock()

	// Persist before admitting the next send, so saves never interleave.
	if err := s.store.Save(ctx, snapshot, s.identity.Current()); err != nil {
		logger.Warn("Failed to persist conversation", "error", err)
	}

	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
	return reply, nil
}

func (s *ChatService) snapshotLocked() []esmaltetypes.Message {
	snapshot := make([]esmaltetypes.Message, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}

// Messages returns a copy of the conversation.
func (s *ChatService) Messages() []esmaltetypes.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// HasMessages reports whether the conversation holds any turns.
func (s *ChatService) HasMessages() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages) > 0
}

// UserMessageCount returns the number of user turns in the conversation.
func (s *ChatService) UserMessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, msg := range s.messages {
		if msg.Role == esmaltetypes.RoleUser {
			count++
		}
	}
	return count
}

// LastStableIndex returns the index of the newest message that was present
// when the conversation was loaded. Messages past it were produced live and
// are the ones the presenter animates.
func (s *ChatService) LastStableIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStableIndex
}

// RestoreLocal replaces the conversation with the locally saved one. All
// restored messages are stable.
func (s *ChatService) RestoreLocal() {
	restored := s.store.LoadLocal()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = restored
	s.lastStableIndex = len(restored) - 1
	if len(restored) == 0 {
		s.lastStableIndex = reveal.NoStableMessages
	}
}

// LoadSession replaces the conversation with a stored remote session owned
// by the current identity. All loaded messages are stable. A missing session,
// one owned by another identity, or an anonymous caller yields an empty
// conversation.
func (s *ChatService) LoadSession(ctx context.Context, sessionID string) (int, error) {
	loaded, err := s.store.LoadSession(ctx, sessionID, s.identity.Current())
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = loaded
	s.lastStableIndex = len(loaded) - 1
	if len(loaded) == 0 {
		s.lastStableIndex = reveal.NoStableMessages
	}
	return len(loaded), nil
}

// StartNewChat discards the in-memory conversation and unbinds it from any
// remote session, so the next send starts a fresh document. The locally
// saved history is left intact.
func (s *ChatService) StartNewChat() {
	s.mu.Lock()
	s.messages = nil
	s.lastStableIndex = reveal.NoStableMessages
	s.mu.Unlock()
	s.store.StartNewSession()
}

// ClearHistory discards the conversation, the local slot and the remote
// binding, so a subsequent send starts a fresh session.
func (s *ChatService) ClearHistory() error {
	s.mu.Lock()
	s.messages = nil
	s.lastStableIndex = reveal.NoStableMessages
	s.mu.Unlock()
	return s.store.Clear()
}
