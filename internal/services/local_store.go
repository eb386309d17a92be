package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"esmalte/pkg/esmaltetypes"
)

// LocalStore persists the current conversation in a single JSON file inside
// the user's config directory. It holds exactly one conversation at a time:
// every Save replaces the previous slot wholesale.
type LocalStore struct {
	path        string
	initialized bool
}

// NewLocalStore creates a new LocalStore writing to the given file path.
func NewLocalStore(path string) *LocalStore {
	return &LocalStore{path: path}
}

// Name returns the service name.
func (s *LocalStore) Name() string {
	return "local_store"
}

// Initialize ensures the parent directory exists.
func (s *LocalStore) Initialize() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create local storage directory: %w", err)
	}
	s.initialized = true
	return nil
}

// Save replaces the stored conversation with the given messages.
func (s *LocalStore) Save(messages []esmaltetypes.ChatMessage) error {
	if !s.initialized {
		return fmt.Errorf("local store not initialized")
	}
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}
	return nil
}

// Load returns the stored conversation, or an empty slice when no
// conversation has been saved yet or the slot cannot be decoded.
func (s *LocalStore) Load() []esmaltetypes.ChatMessage {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []esmaltetypes.ChatMessage{}
	}
	var messages []esmaltetypes.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		// A corrupt slot is treated as empty rather than surfaced: the
		// conversation history is best-effort convenience data.
		return []esmaltetypes.ChatMessage{}
	}
	if messages == nil {
		return []esmaltetypes.ChatMessage{}
	}
	return messages
}

// Clear removes the stored conversation. Clearing an empty slot is not an
// error.
func (s *LocalStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	return nil
}
