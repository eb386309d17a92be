package services

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"esmalte/internal/logger"
	"esmalte/pkg/esmaltetypes"
)

// OpenAIClient implements the LLMClient interface for OpenAI's API and for
// any OpenAI-compatible endpoint reachable through a custom base URL (Groq,
// OpenRouter). The underlying SDK client is created lazily on the first
// request.
type OpenAIClient struct {
	providerName string
	apiKey       string
	baseURL      string
	client       *openai.Client
}

// NewOpenAIClient creates a new OpenAI client with lazy initialization.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		providerName: "openai",
		apiKey:       apiKey,
	}
}

// NewOpenAICompatibleClient creates a client for an OpenAI-compatible
// provider served at baseURL.
func NewOpenAICompatibleClient(providerName, apiKey, baseURL string) *OpenAIClient {
	return &OpenAIClient{
		providerName: providerName,
		apiKey:       apiKey,
		baseURL:      baseURL,
	}
}

// GetProviderName returns the provider name for this client.
func (c *OpenAIClient) GetProviderName() string {
	return c.providerName
}

// IsConfigured returns true if the client has a valid API key.
func (c *OpenAIClient) IsConfigured() bool {
	return c.apiKey != ""
}

// initializeClientIfNeeded initializes the SDK client if it hasn't been
// initialized yet.
func (c *OpenAIClient) initializeClientIfNeeded() error {
	if c.client != nil {
		return nil
	}

	if c.apiKey == "" {
		return fmt.Errorf("%s API key not configured", c.providerName)
	}

	options := []option.RequestOption{option.WithAPIKey(c.apiKey)}
	if c.baseURL != "" {
		options = append(options, option.WithBaseURL(c.baseURL))
	}

	client := openai.NewClient(options...)
	c.client = &client

	logger.Debug("OpenAI-compatible client initialized", "provider", c.providerName, "base_url", c.baseURL)
	return nil
}

// SendChatCompletion sends a chat completion request and returns the full
// response text.
func (c *OpenAIClient) SendChatCompletion(ctx context.Context, messages []esmaltetypes.Message, config esmaltetypes.CompletionConfig) (string, error) {
	logger.Debug("SendChatCompletion starting", "provider", c.providerName, "model", config.Model)

	if err := c.initializeClientIfNeeded(); err != nil {
		return "", fmt.Errorf("failed to initialize %s client: %w", c.providerName, err)
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(config.Model),
		Messages:    convertMessagesToOpenAI(messages),
		Temperature: openai.Float(config.Temperature),
	}
	if config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(config.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("Completion request failed", "provider", c.providerName, "error", err)
		return "", fmt.Errorf("%s request failed: %w", c.providerName, err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	content := completion.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response content")
	}

	logger.Debug("Completion received", "provider", c.providerName, "content_length", len(content))
	return content, nil
}

// convertMessagesToOpenAI converts conversation messages to the SDK's
// parameter format. Unknown roles are skipped.
func convertMessagesToOpenAI(messages []esmaltetypes.Message) []openai.ChatCompletionMessageParamUnion {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case esmaltetypes.RoleUser:
			converted = append(converted, openai.UserMessage(msg.Content))
		case esmaltetypes.RoleAssistant:
			converted = append(converted, openai.AssistantMessage(msg.Content))
		case esmaltetypes.RoleSystem:
			converted = append(converted, openai.SystemMessage(msg.Content))
		default:
			continue
		}
	}
	return converted
}
