package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esmalte/pkg/esmaltetypes"
)

func testConfig() *Config {
	return &Config{
		Provider:    "groq",
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		Strings: Strings{
			SystemPrompt: "Você é uma consultora de esmaltes.",
			Apology:      "Desculpe, ocorreu um erro.",
			DefaultTitle: "Nova conversa",
		},
	}
}

func TestCompletionService_InjectsSystemPreamble(t *testing.T) {
	mock := &MockLLMClient{Response: "resposta"}
	service := NewCompletionServiceWithClient(mock, testConfig())

	reply, err := service.GetChatCompletion(context.Background(), []esmaltetypes.Message{
		{Role: esmaltetypes.RoleUser, Content: "quero um vermelho"},
	})
	require.NoError(t, err)
	assert.Equal(t, "resposta", reply)

	require.Len(t, mock.LastMessages, 2)
	assert.Equal(t, esmaltetypes.RoleSystem, mock.LastMessages[0].Role)
	assert.Equal(t, "Você é uma consultora de esmaltes.", mock.LastMessages[0].Content)
	assert.Equal(t, esmaltetypes.RoleUser, mock.LastMessages[1].Role)
}

func TestCompletionService_KeepsExistingSystemMessage(t *testing.T) {
	mock := &MockLLMClient{Response: "ok"}
	service := NewCompletionServiceWithClient(mock, testConfig())

	_, err := service.GetChatCompletion(context.Background(), []esmaltetypes.Message{
		{Role: esmaltetypes.RoleSystem, Content: "prompt customizado"},
		{Role: esmaltetypes.RoleUser, Content: "oi"},
	})
	require.NoError(t, err)

	require.Len(t, mock.LastMessages, 2)
	assert.Equal(t, "prompt customizado", mock.LastMessages[0].Content)
}

func TestCompletionService_PreambleEvenMidConversation(t *testing.T) {
	mock := &MockLLMClient{Response: "ok"}
	service := NewCompletionServiceWithClient(mock, testConfig())

	_, err := service.GetChatCompletion(context.Background(), []esmaltetypes.Message{
		{Role: esmaltetypes.RoleUser, Content: "oi"},
		{Role: esmaltetypes.RoleAssistant, Content: "olá"},
		{Role: esmaltetypes.RoleUser, Content: "me sugere algo"},
	})
	require.NoError(t, err)

	require.Len(t, mock.LastMessages, 4)
	assert.Equal(t, esmaltetypes.RoleSystem, mock.LastMessages[0].Role)
}

func TestCompletionService_PropagatesProviderError(t *testing.T) {
	mock := &MockLLMClient{Err: assert.AnError}
	service := NewCompletionServiceWithClient(mock, testConfig())

	_, err := service.GetChatCompletion(context.Background(), []esmaltetypes.Message{
		{Role: esmaltetypes.RoleUser, Content: "oi"},
	})
	assert.Error(t, err)
}
