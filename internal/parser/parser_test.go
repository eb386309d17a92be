package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esmalte/pkg/esmaltetypes"
)

func TestExtractTagContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		tag      string
		expected string
	}{
		{
			name:     "simple tag pair",
			content:  "<reasoning-container>hello</reasoning-container>",
			tag:      "reasoning-container",
			expected: "hello",
		},
		{
			name:     "interior is trimmed",
			content:  "<reasoning-container>\n  tom coral combina  \n</reasoning-container>",
			tag:      "reasoning-container",
			expected: "tom coral combina",
		},
		{
			name:     "case insensitive tag names",
			content:  "<Reasoning-Container>oi</REASONING-CONTAINER>",
			tag:      "reasoning-container",
			expected: "oi",
		},
		{
			name:     "spans multiple lines",
			content:  "<reasoning-container>linha um\nlinha dois</reasoning-container>",
			tag:      "reasoning-container",
			expected: "linha um\nlinha dois",
		},
		{
			name:     "first non-greedy match only",
			content:  "<x>um</x> depois <x>dois</x>",
			tag:      "x",
			expected: "um",
		},
		{
			name:     "absent tag is empty, not an error",
			content:  "apenas texto",
			tag:      "reasoning-container",
			expected: "",
		},
		{
			name:     "empty input",
			content:  "",
			tag:      "reasoning-container",
			expected: "",
		},
		{
			name:     "unterminated tag does not match",
			content:  "<reasoning-container>sem fechamento",
			tag:      "reasoning-container",
			expected: "",
		},
		{
			name:     "tag name with regex metacharacters is literal",
			content:  "<a.b>x</a.b>",
			tag:      "a.b",
			expected: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractTagContent(tt.content, tt.tag))
		})
	}
}

func TestExtractTagContent_MetacharacterTagDoesNotMatchOtherText(t *testing.T) {
	// "a.b" must not behave as a wildcard matching "<axb>".
	assert.Equal(t, "", ExtractTagContent("<axb>x</axb>", "a.b"))
}

func TestExtractSuggestionItems(t *testing.T) {
	content := "<suggestion-container><item>tom nude</item><item>glitter dourado</item></suggestion-container>"
	items := ExtractSuggestionItems(content)

	require.Len(t, items, 2)
	assert.Equal(t, esmaltetypes.SuggestionItem{ID: 0, Content: "tom nude"}, items[0])
	assert.Equal(t, esmaltetypes.SuggestionItem{ID: 1, Content: "glitter dourado"}, items[1])
}

func TestExtractSuggestionItems_EmptyItemsDiscardedAndIDsRenumbered(t *testing.T) {
	content := "<suggestion-container><item>tom nude</item><item></item><item>   </item><item>glitter</item></suggestion-container>"
	items := ExtractSuggestionItems(content)

	require.Len(t, items, 2)
	assert.Equal(t, 0, items[0].ID)
	assert.Equal(t, "tom nude", items[0].Content)
	assert.Equal(t, 1, items[1].ID)
	assert.Equal(t, "glitter", items[1].Content)
}

func TestExtractSuggestionItems_MissingContainer(t *testing.T) {
	assert.Empty(t, ExtractSuggestionItems("sem sugestoes aqui"))
	assert.Empty(t, ExtractSuggestionItems(""))
}

func TestExtractSuggestionItems_ItemsWithoutContainerAreIgnored(t *testing.T) {
	// Historical response variants emitted bare items without the outer
	// container; the container-required form is canonical and bare items
	// must not be picked up.
	content := "<item>vermelho cereja</item><item>nude rosado</item>"
	assert.Empty(t, ExtractSuggestionItems(content))
}

func TestExtractSuggestionItems_UnterminatedItemOmitted(t *testing.T) {
	content := "<suggestion-container><item>completo</item><item>sem fim</suggestion-container>"
	items := ExtractSuggestionItems(content)

	require.Len(t, items, 1)
	assert.Equal(t, "completo", items[0].Content)
}

func TestParseResponse_WellFormed(t *testing.T) {
	content := "<reasoning-container>Como o humor esta animado, cores vibrantes.</reasoning-container>" +
		"<suggestion-container><item>francesinha colorida</item><item>tons pasteis</item></suggestion-container>"

	parsed := ParseResponse(content)

	assert.Equal(t, "Como o humor esta animado, cores vibrantes.", parsed.Reasoning)
	require.Len(t, parsed.Suggestions, 2)
	assert.Equal(t, "francesinha colorida", parsed.Suggestions[0].Content)
	assert.Equal(t, "tons pasteis", parsed.Suggestions[1].Content)
}

func TestParseResponse_FallbackToRawText(t *testing.T) {
	parsed := ParseResponse("apenas texto")

	assert.Equal(t, "apenas texto", parsed.Reasoning)
	assert.Empty(t, parsed.Suggestions)
}

func TestParseResponse_SuggestionsWithoutReasoning(t *testing.T) {
	content := "<suggestion-container><item>tom nude</item></suggestion-container>"
	parsed := ParseResponse(content)

	// Fallback carries the raw text, independent of suggestion extraction.
	assert.Equal(t, content, parsed.Reasoning)
	require.Len(t, parsed.Suggestions, 1)
	assert.Equal(t, "tom nude", parsed.Suggestions[0].Content)
}

func TestParseResponse_FirstPairOnlyScenario(t *testing.T) {
	content := "<reasoning-container>Oi! <item>x</item></reasoning-container>" +
		"<suggestion-container><item>tom nude</item><item></item><item>glitter</item></suggestion-container>"

	parsed := ParseResponse(content)

	assert.Equal(t, "Oi! <item>x</item>", parsed.Reasoning)
	require.Len(t, parsed.Suggestions, 2)
	assert.Equal(t, esmaltetypes.SuggestionItem{ID: 0, Content: "tom nude"}, parsed.Suggestions[0])
	assert.Equal(t, esmaltetypes.SuggestionItem{ID: 1, Content: "glitter"}, parsed.Suggestions[1])
}

func TestParseResponse_ExtractionDoesNotDoubleStrip(t *testing.T) {
	content := "<reasoning-container>tom coral para a semana</reasoning-container>"
	first := ParseResponse(content)

	// Reasoning already extracted carries no tags, so re-parsing reduces to
	// the identity fallback.
	second := ParseResponse(first.Reasoning)
	assert.Equal(t, first.Reasoning, second.Reasoning)
	assert.Empty(t, second.Suggestions)
}

func TestParseResponse_EmptyInput(t *testing.T) {
	parsed := ParseResponse("")

	assert.Equal(t, "", parsed.Reasoning)
	assert.Empty(t, parsed.Suggestions)
}

func TestHasResponseTags(t *testing.T) {
	assert.True(t, HasResponseTags("<reasoning-container>oi</reasoning-container>"))
	assert.True(t, HasResponseTags("<suggestion-container></suggestion-container>"))
	assert.False(t, HasResponseTags("apenas texto"))
	assert.False(t, HasResponseTags("<item>solto</item>"))
}
