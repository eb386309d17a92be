package esmaltetypes

// SuggestionItem is one discrete recommendation extracted from the suggestion
// section of a model completion. Identity is positional: IDs are assigned
// only to surviving non-empty items, numbered from 0 in final output order.
type SuggestionItem struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
}

// ParsedResponse is the structured view of a raw model completion. Reasoning
// is never empty for non-empty input: when no reasoning section is found the
// entire raw content is carried as reasoning. Suggestions may be empty.
type ParsedResponse struct {
	Reasoning   string           `json:"reasoning"`
	Suggestions []SuggestionItem `json:"suggestions"`
}
