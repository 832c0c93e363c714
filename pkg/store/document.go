package store

// Document is a single retrieved passage. Backends create it; nothing mutates it afterwards.
type Document struct {
	Content string `json:"content"`
	Source  string `json:"source"`

	// Score is nil when the backend has no relevance score (web results).
	Score *float64 `json:"score,omitempty"`

	// Metadata is optional. A nil map means the backend attached nothing.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Score is a helper for building optional scores inline.
func Score(v float64) *float64 {
	return &v
}
