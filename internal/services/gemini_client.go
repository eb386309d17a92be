package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"esmalte/internal/logger"
	"esmalte/pkg/esmaltetypes"
)

// GeminiClient implements the LLMClient interface for the Google Gemini API.
// The underlying SDK client is created lazily on the first request.
type GeminiClient struct {
	apiKey string
	client *genai.Client
}

// NewGeminiClient creates a new Gemini client with lazy initialization.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey}
}

// GetProviderName returns the provider name for this client.
func (c *GeminiClient) GetProviderName() string {
	return "gemini"
}

// IsConfigured returns true if the client has a valid API key.
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *GeminiClient) initializeClientIfNeeded(ctx context.Context) error {
	if c.client != nil {
		return nil
	}

	if c.apiKey == "" {
		return fmt.Errorf("google API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: c.apiKey})
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client

	logger.Debug("Gemini client initialized", "provider", "gemini")
	return nil
}

// SendChatCompletion sends a chat completion request to Google Gemini.
// System messages become the request's system instruction; Gemini models use
// the role "model" for assistant turns.
func (c *GeminiClient) SendChatCompletion(ctx context.Context, messages []esmaltetypes.Message, config esmaltetypes.CompletionConfig) (string, error) {
	logger.Debug("Gemini SendChatCompletion starting", "model", config.Model)

	if err := c.initializeClientIfNeeded(ctx); err != nil {
		return "", fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	contents, systemPrompt := convertMessagesToGemini(messages)

	temperature := float32(config.Temperature)
	genConfig := &genai.GenerateContentConfig{Temperature: &temperature}
	if systemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if config.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(config.MaxTokens)
	}

	result, err := c.client.Models.GenerateContent(ctx, config.Model, contents, genConfig)
	if err != nil {
		logger.Error("Gemini request failed", "error", err)
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Thought {
				continue
			}
			builder.WriteString(part.Text)
		}
	}

	content := builder.String()
	if content == "" {
		return "", fmt.Errorf("empty response content")
	}

	logger.Debug("Gemini response received", "content_length", len(content))
	return content, nil
}

// convertMessagesToGemini converts conversation messages to Gemini format.
// Returns the turn contents and the combined system instructions.
func convertMessagesToGemini(messages []esmaltetypes.Message) ([]*genai.Content, string) {
	contents := make([]*genai.Content, 0, len(messages))
	var system []string

	for _, msg := range messages {
		var role string
		switch msg.Role {
		case esmaltetypes.RoleUser:
			role = "user"
		case esmaltetypes.RoleAssistant:
			// Gemini uses "model" instead of "assistant".
			role = "model"
		case esmaltetypes.RoleSystem:
			system = append(system, msg.Content)
			continue
		default:
			continue
		}
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: msg.Content}},
			Role:  role,
		})
	}

	if len(contents) == 0 {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: ""}},
			Role:  "user",
		})
	}

	return contents, strings.Join(system, "\n\n")
}
