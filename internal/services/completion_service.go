package services

import (
	"context"
	"fmt"

	"esmalte/internal/logger"
	"esmalte/pkg/esmaltetypes"
)

// CompletionService sends the conversation to the completion provider. It
// injects the fixed system preamble when the caller-supplied sequence carries
// no system-role entry and applies the fixed model and temperature.
type CompletionService struct {
	factory *ClientFactory
	config  *Config

	// client, when set, bypasses the factory. Used by tests.
	client esmaltetypes.LLMClient
}

// NewCompletionService creates a new CompletionService.
func NewCompletionService(factory *ClientFactory, config *Config) *CompletionService {
	return &CompletionService{factory: factory, config: config}
}

// NewCompletionServiceWithClient creates a CompletionService bound to a fixed
// client instead of the factory's configured provider.
func NewCompletionServiceWithClient(client esmaltetypes.LLMClient, config *Config) *CompletionService {
	return &CompletionService{client: client, config: config}
}

// GetChatCompletion sends the full conversation plus the system preamble and
// returns the raw completion text.
func (s *CompletionService) GetChatCompletion(ctx context.Context, messages []esmaltetypes.Message) (string, error) {
	client := s.client
	if client == nil {
		var err error
		client, err = s.factory.GetClient()
		if err != nil {
			return "", fmt.Errorf("failed to get completion client: %w", err)
		}
	}
	return s.completeWith(ctx, client, messages)
}

// completeWith runs one completion request against the given client.
func (s *CompletionService) completeWith(ctx context.Context, client esmaltetypes.LLMClient, messages []esmaltetypes.Message) (string, error) {
	outgoing := s.withSystemPreamble(messages)

	logger.Debug("Sending completion request",
		"provider", client.GetProviderName(),
		"model", s.config.Model,
		"message_count", len(outgoing))

	content, err := client.SendChatCompletion(ctx, outgoing, esmaltetypes.CompletionConfig{
		Model:       s.config.Model,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// withSystemPreamble prepends the system preamble unless the conversation
// already contains a system-role entry.
func (s *CompletionService) withSystemPreamble(messages []esmaltetypes.Message) []esmaltetypes.Message {
	for _, msg := range messages {
		if msg.Role == esmaltetypes.RoleSystem {
			return messages
		}
	}

	outgoing := make([]esmaltetypes.Message, 0, len(messages)+1)
	outgoing = append(outgoing, esmaltetypes.Message{
		Role:    esmaltetypes.RoleSystem,
		Content: s.config.Strings.SystemPrompt,
	})
	return append(outgoing, messages...)
}

// MockLLMClient is a configurable in-memory LLMClient for tests.
type MockLLMClient struct {
	Response string
	Err      error

	// LastMessages records the outgoing sequence of the most recent call.
	LastMessages []esmaltetypes.Message
	Calls        int
}

// SendChatCompletion returns the canned response or error.
func (m *MockLLMClient) SendChatCompletion(_ context.Context, messages []esmaltetypes.Message, _ esmaltetypes.CompletionConfig) (string, error) {
	m.Calls++
	m.LastMessages = messages
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// GetProviderName returns the provider name for this client.
func (m *MockLLMClient) GetProviderName() string { return "mock" }

// IsConfigured always reports true for the mock.
func (m *MockLLMClient) IsConfigured() bool { return true }
