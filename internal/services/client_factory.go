package services

import (
	"fmt"
	"sync"

	"esmalte/internal/logger"
	"esmalte/pkg/esmaltetypes"
)

// ClientFactory creates and caches LLM clients per provider. Clients are
// created lazily and reused for the lifetime of the factory.
type ClientFactory struct {
	config *Config

	mu      sync.Mutex
	clients map[string]esmaltetypes.LLMClient
}

// NewClientFactory creates a new ClientFactory backed by the given
// configuration.
func NewClientFactory(config *Config) *ClientFactory {
	return &ClientFactory{
		config:  config,
		clients: make(map[string]esmaltetypes.LLMClient),
	}
}

// GetClient returns the client for the configured default provider.
func (f *ClientFactory) GetClient() (esmaltetypes.LLMClient, error) {
	return f.GetClientForProvider(f.config.Provider)
}

// GetClientForProvider returns an LLM client for the specified provider,
// creating it on first use.
func (f *ClientFactory) GetClientForProvider(provider string) (esmaltetypes.LLMClient, error) {
	if provider == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, exists := f.clients[provider]; exists {
		return client, nil
	}

	apiKey, err := f.config.APIKey(provider)
	if err != nil {
		return nil, err
	}

	var client esmaltetypes.LLMClient
	switch provider {
	case "groq":
		client = NewOpenAICompatibleClient("groq", apiKey, "https://api.groq.com/openai/v1")
	case "openai":
		client = NewOpenAIClient(apiKey)
	case "openrouter":
		client = NewOpenAICompatibleClient("openrouter", apiKey, "https://openrouter.ai/api/v1")
	case "anthropic":
		client = NewAnthropicClient(apiKey)
	case "gemini":
		client = NewGeminiClient(apiKey)
	default:
		return nil, fmt.Errorf("unsupported provider '%s'. Supported providers: groq, openai, openrouter, anthropic, gemini", provider)
	}

	f.clients[provider] = client
	logger.Debug("Created provider client", "provider", provider)
	return client, nil
}
