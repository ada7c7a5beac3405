package domain

// NewsEvent is one headline from the news feed.
type NewsEvent struct {
	ID          string           `json:"_id"`
	Time        int64            `json:"time"` // Unix timestamp in milliseconds
	Title       string           `json:"title"`
	Source      string           `json:"source,omitempty"`
	URL         string           `json:"url,omitempty"`
	Symbols     []string         `json:"symbols,omitempty"`
	Suggestions []NewsSuggestion `json:"suggestions,omitempty"`
}

// NewsSuggestion is a loosely structured ticker association attached to a
// headline by the feed. Coins carry exchange-qualified symbols.
type NewsSuggestion struct {
	Coin    string              `json:"coin,omitempty"`
	Symbols []SuggestionSymbol  `json:"symbols,omitempty"`
}

// SuggestionSymbol pairs an exchange name with a tradable symbol.
type SuggestionSymbol struct {
	Exchange string `json:"exchange,omitempty"`
	Symbol   string `json:"symbol"`
}
