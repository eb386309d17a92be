package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"esmalte/internal/logger"
	"esmalte/pkg/esmaltetypes"
)

// TitleMaxLength is the truncation bound applied when deriving a session
// title from the first user message.
const TitleMaxLength = 50

// ConversationStore coordinates the two persistence backends: the local
// single-slot file used for anonymous sessions and offline fallback, and the
// remote document store used for signed-in users. It is the sole owner of the
// current remote session ID; no other component tracks which remote document
// the conversation belongs to.
type ConversationStore struct {
	local        *LocalStore
	remote       esmaltetypes.SessionStore
	defaultTitle string

	currentChatID string
}

// NewConversationStore creates a ConversationStore over the given backends.
// remote may be nil when no remote store is configured, in which case all
// persistence is local.
func NewConversationStore(local *LocalStore, remote esmaltetypes.SessionStore, defaultTitle string) *ConversationStore {
	return &ConversationStore{local: local, remote: remote, defaultTitle: defaultTitle}
}

// Name returns the service name.
func (s *ConversationStore) Name() string {
	return "conversation_store"
}

// Initialize prepares the local backend.
func (s *ConversationStore) Initialize() error {
	return s.local.Initialize()
}

// CurrentSessionID returns the remote session ID the conversation is bound
// to, or "" when the conversation has not been persisted remotely.
func (s *ConversationStore) CurrentSessionID() string {
	return s.currentChatID
}

// Save persists the conversation snapshot. Signed-in users get a remote
// document (created on first save, replaced wholesale afterwards) with the
// local slot as fallback when the remote store fails; anonymous users get the
// local slot only. Empty conversations are not persisted.
func (s *ConversationStore) Save(ctx context.Context, messages []esmaltetypes.Message, identity *esmaltetypes.Identity) error {
	if len(messages) == 0 {
		return nil
	}
	stored := esmaltetypes.ToChatMessages(messages, time.Now().UTC())

	if identity == nil || s.remote == nil {
		return s.local.Save(stored)
	}

	if err := s.saveRemote(ctx, stored, identity); err != nil {
		logger.Warn("Remote save failed, falling back to local storage", "error", err)
		return s.local.Save(stored)
	}
	return nil
}

func (s *ConversationStore) saveRemote(ctx context.Context, stored []esmaltetypes.ChatMessage, identity *esmaltetypes.Identity) error {
	if s.currentChatID == "" {
		id, err := s.remote.CreateSession(ctx, identity.ID, s.DeriveTitle(stored), stored)
		if err != nil {
			return err
		}
		s.currentChatID = id
		logger.Debug("Created remote session", "session_id", id)
		return nil
	}
	return s.remote.UpdateSession(ctx, s.currentChatID, stored)
}

// LoadLocal returns the conversation held in the local slot, stripped of
// storage timestamps.
func (s *ConversationStore) LoadLocal() []esmaltetypes.Message {
	return esmaltetypes.ToMessages(s.local.Load())
}

// LoadSession fetches one of the identity's stored sessions and adopts it as
// the current conversation: subsequent saves update that document. When the
// caller is anonymous, or the identity owns no session with that ID, the
// result is an empty conversation and the current binding is left untouched.
func (s *ConversationStore) LoadSession(ctx context.Context, sessionID string, identity *esmaltetypes.Identity) ([]esmaltetypes.Message, error) {
	if s.remote == nil {
		return nil, fmt.Errorf("no remote store configured")
	}
	if identity == nil {
		return []esmaltetypes.Message{}, nil
	}
	session, err := s.remote.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if session == nil || session.UserID != identity.ID {
		return []esmaltetypes.Message{}, nil
	}
	s.currentChatID = session.ID
	return esmaltetypes.ToMessages(session.Messages), nil
}

// ListSessions returns the identity's stored sessions, newest first.
func (s *ConversationStore) ListSessions(ctx context.Context, identity *esmaltetypes.Identity) ([]esmaltetypes.ChatSession, error) {
	if s.remote == nil {
		return nil, fmt.Errorf("no remote store configured")
	}
	if identity == nil {
		return nil, fmt.Errorf("not signed in")
	}
	return s.remote.ListSessions(ctx, identity.ID)
}

// DeleteSession removes a remote session. When the deleted session is the
// current one, the conversation is unbound so the next save creates a fresh
// document.
func (s *ConversationStore) DeleteSession(ctx context.Context, sessionID string) error {
	if s.remote == nil {
		return fmt.Errorf("no remote store configured")
	}
	if err := s.remote.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	if s.currentChatID == sessionID {
		s.currentChatID = ""
	}
	return nil
}

// StartNewSession unbinds the conversation from any remote document so the
// next save creates a fresh one. The local slot is left untouched; an
// anonymous history survives the reset.
func (s *ConversationStore) StartNewSession() {
	s.currentChatID = ""
}

// Clear empties the local slot and unbinds the conversation from any remote
// document.
func (s *ConversationStore) Clear() error {
	s.currentChatID = ""
	return s.local.Clear()
}

// DeriveTitle builds a session title from the first user message, truncated
// to TitleMaxLength runes with an ellipsis. Conversations with no user
// message get the default title.
func (s *ConversationStore) DeriveTitle(messages []esmaltetypes.ChatMessage) string {
	for _, msg := range messages {
		if msg.Role != esmaltetypes.RoleUser {
			continue
		}
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		if utf8.RuneCountInString(text) <= TitleMaxLength {
			return text
		}
		return string([]rune(text)[:TitleMaxLength]) + "..."
	}
	return s.defaultTitle
}
