// Package parser extracts the structured sections from raw model completions.
// The wire format wraps a reasoning narrative in a reasoning-container tag
// pair and zero or more item tags inside a suggestion-container tag pair.
// Extraction is best effort over loosely tagged text, not XML parsing: every
// function in this package is total and never fails on malformed input.
package parser

import (
	"regexp"
	"strings"

	"esmalte/pkg/esmaltetypes"
)

// Wire format tag names.
const (
	ReasoningTag  = "reasoning-container"
	SuggestionTag = "suggestion-container"
)

// itemPattern matches one suggestion item. It deliberately does not span
// lines: an unterminated or multi-line item fails to match and is silently
// omitted.
var itemPattern = regexp.MustCompile(`<item>(.*?)</item>`)

// ExtractTagContent returns the trimmed interior of the first non-greedy
// opening/closing pair named tagName, matched case-insensitively across
// lines. It returns "" when the pair is absent; absence is a normal, silent
// outcome.
func ExtractTagContent(content, tagName string) string {
	quoted := regexp.QuoteMeta(tagName)
	pattern, err := regexp.Compile(`(?is)<` + quoted + `>(.*?)</` + quoted + `>`)
	if err != nil {
		return ""
	}

	match := pattern.FindStringSubmatch(content)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// ExtractSuggestionItems returns the suggestion items found inside the
// suggestion-container section, in document order. Items that trim to empty
// text are discarded; IDs are assigned only to the surviving items, numbered
// from 0 in final output order. A missing section yields an empty slice.
func ExtractSuggestionItems(content string) []esmaltetypes.SuggestionItem {
	section := ExtractTagContent(content, SuggestionTag)
	if section == "" {
		return []esmaltetypes.SuggestionItem{}
	}

	items := []esmaltetypes.SuggestionItem{}
	for _, match := range itemPattern.FindAllStringSubmatch(section, -1) {
		text := strings.TrimSpace(match[1])
		if text == "" {
			continue
		}
		items = append(items, esmaltetypes.SuggestionItem{
			ID:      len(items),
			Content: text,
		})
	}
	return items
}

// ParseResponse builds the structured view of a raw completion. When the
// reasoning section is absent the entire raw content is used as reasoning, so
// a tag-less response is never displayed as blank; the fallback is
// independent of whether suggestions were found.
func ParseResponse(content string) esmaltetypes.ParsedResponse {
	reasoning := ExtractTagContent(content, ReasoningTag)
	suggestions := ExtractSuggestionItems(content)

	if reasoning == "" {
		reasoning = content
	}

	return esmaltetypes.ParsedResponse{
		Reasoning:   reasoning,
		Suggestions: suggestions,
	}
}

var (
	reasoningPresent  = regexp.MustCompile(`(?is)<` + ReasoningTag + `>.*?</` + ReasoningTag + `>`)
	suggestionPresent = regexp.MustCompile(`(?is)<` + SuggestionTag + `>.*?</` + SuggestionTag + `>`)
)

// HasResponseTags reports whether the content carries at least one
// well-formed wire-format section, even an empty one.
func HasResponseTags(content string) bool {
	return reasoningPresent.MatchString(content) || suggestionPresent.MatchString(content)
}
