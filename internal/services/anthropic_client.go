package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"esmalte/internal/logger"
	"esmalte/pkg/esmaltetypes"
)

// AnthropicClient implements the LLMClient interface for Anthropic's API.
// The underlying SDK client is created lazily on the first request.
type AnthropicClient struct {
	apiKey string
	client *anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client with lazy initialization.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{apiKey: apiKey}
}

// GetProviderName returns the provider name for this client.
func (c *AnthropicClient) GetProviderName() string {
	return "anthropic"
}

// IsConfigured returns true if the client has a valid API key.
func (c *AnthropicClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *AnthropicClient) initializeClientIfNeeded() error {
	if c.client != nil {
		return nil
	}

	if c.apiKey == "" {
		return fmt.Errorf("anthropic API key not configured")
	}

	client := anthropic.NewClient(option.WithAPIKey(c.apiKey))
	c.client = &client

	logger.Debug("Anthropic client initialized", "provider", "anthropic")
	return nil
}

// SendChatCompletion sends a chat completion request to Anthropic. System
// messages in the conversation are folded into the request's system prompt,
// which Anthropic keeps separate from the turn list.
func (c *AnthropicClient) SendChatCompletion(ctx context.Context, messages []esmaltetypes.Message, config esmaltetypes.CompletionConfig) (string, error) {
	logger.Debug("Anthropic SendChatCompletion starting", "model", config.Model)

	if err := c.initializeClientIfNeeded(); err != nil {
		return "", fmt.Errorf("failed to initialize Anthropic client: %w", err)
	}

	turns, systemPrompt := convertMessagesToAnthropic(messages)

	maxTokens := int64(1024)
	if config.MaxTokens > 0 {
		maxTokens = int64(config.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(config.Model),
		MaxTokens:   maxTokens,
		Messages:    turns,
		Temperature: anthropic.Float(config.Temperature),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		logger.Error("Anthropic request failed", "error", err)
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("no response content returned")
	}

	var content string
	for _, block := range message.Content {
		content += block.Text
	}
	if content == "" {
		return "", fmt.Errorf("empty response content")
	}

	logger.Debug("Anthropic response received", "content_length", len(content))
	return content, nil
}

// convertMessagesToAnthropic converts conversation messages to Anthropic
// format. Returns the turn list and the combined system instructions found
// in the conversation.
func convertMessagesToAnthropic(messages []esmaltetypes.Message) ([]anthropic.MessageParam, string) {
	turns := make([]anthropic.MessageParam, 0, len(messages))
	var system []string

	for _, msg := range messages {
		switch msg.Role {
		case esmaltetypes.RoleUser:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case esmaltetypes.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		case esmaltetypes.RoleSystem:
			system = append(system, msg.Content)
		default:
			continue
		}
	}

	return turns, strings.Join(system, "\n\n")
}
