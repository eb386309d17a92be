// Package esmaltetypes defines the shared domain types and collaborator
// interfaces for Esmalte. This file declares the interfaces behind which the
// external collaborators (completion provider, identity provider, remote
// document store) live.
package esmaltetypes

import "context"

// CompletionConfig carries the fixed sampling configuration for a completion
// request. Model selection and temperature are configuration constants, not
// runtime parameters.
type CompletionConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// LLMClient abstracts a hosted chat-completion provider. Implementations
// receive the full conversation, system preamble included, and return a
// single completion string.
type LLMClient interface {
	// SendChatCompletion sends a chat completion request and returns the
	// full response text.
	SendChatCompletion(ctx context.Context, messages []Message, config CompletionConfig) (string, error)

	// GetProviderName returns the name of the LLM provider (e.g. "groq",
	// "anthropic").
	GetProviderName() string

	// IsConfigured returns true if the client has valid configuration and
	// can make requests.
	IsConfigured() bool
}

// SessionStore abstracts the remote document store that persists chat
// sessions for signed-in users.
type SessionStore interface {
	// CreateSession stores a new session owned by userID and returns its id.
	// The store assigns the creation and update timestamps.
	CreateSession(ctx context.Context, userID, title string, messages []ChatMessage) (string, error)

	// UpdateSession overwrites the message list of an existing session and
	// refreshes its update timestamp.
	UpdateSession(ctx context.Context, sessionID string, messages []ChatMessage) error

	// ListSessions returns the sessions owned by userID, newest first, up to
	// the store's result bound.
	ListSessions(ctx context.Context, userID string) ([]ChatSession, error)

	// GetSession returns a session by id, or (nil, nil) when it does not
	// exist.
	GetSession(ctx context.Context, sessionID string) (*ChatSession, error)

	// DeleteSession removes a session by id.
	DeleteSession(ctx context.Context, sessionID string) error
}

// IdentityProvider abstracts the authentication collaborator. It yields the
// signed-in identity or nil for anonymous usage.
type IdentityProvider interface {
	// Current returns the current identity, or nil when anonymous.
	Current() *Identity

	// Subscribe returns a channel that receives the identity after every
	// sign-in or sign-out. The channel is never closed by the provider.
	Subscribe() <-chan *Identity

	// SignIn authenticates with the provider. May fail; the failure is
	// surfaced to the user and retryable.
	SignIn(ctx context.Context, token string) (*Identity, error)

	// SignOut clears the current identity. May fail.
	SignOut(ctx context.Context) error
}
