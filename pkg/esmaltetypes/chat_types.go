// Package esmaltetypes defines the shared domain types and collaborator
// interfaces for Esmalte. This file contains the conversation types exchanged
// with the completion provider and persisted by the session stores.
package esmaltetypes

import "time"

// Message roles. The role sequence is the literal context window sent to the
// completion provider, so the values match the provider wire format.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message represents a single entry in the conversation history. Messages are
// immutable once created and appended in chronological order, oldest first.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatMessage is the stored form of a Message: the wire shape plus the
// persistence-only timestamp. The timestamp is stripped before a loaded
// session re-enters the conversation.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ChatSession represents one remotely persisted conversation owned by a
// signed-in user.
type ChatSession struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Identity is an authenticated user's stable reference, used to scope
// remotely persisted conversations. A nil *Identity means anonymous.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// ToChatMessages converts wire messages to their stored shape, stamping each
// with the supplied time.
func ToChatMessages(messages []Message, now time.Time) []ChatMessage {
	stored := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		stored = append(stored, ChatMessage{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: now,
		})
	}
	return stored
}

// ToMessages strips the storage-only fields from stored messages.
func ToMessages(stored []ChatMessage) []Message {
	messages := make([]Message, 0, len(stored))
	for _, msg := range stored {
		messages = append(messages, Message{Role: msg.Role, Content: msg.Content})
	}
	return messages
}
