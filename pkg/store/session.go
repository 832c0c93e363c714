package store

import "time"

// Query is one incoming retrieval request.
type Query struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

// TurnRecord is the per-turn summary kept in a user's session.
type TurnRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	QueryText     string    `json:"query"`
	StrategyUsed  Strategy  `json:"strategy_used"`
	DocumentCount int       `json:"document_count"`
	Reasoning     string    `json:"reasoning"`
	KeyExcerpts   []string  `json:"key_points"`
}

const (
	MaxKeyExcerpts     = 3
	KeyExcerptMaxChars = 200
)

// NewTurnRecord summarizes a finished turn. Excerpts are taken from the first
// MaxKeyExcerpts documents as "<source>: <first 200 chars>".
func NewTurnRecord(now time.Time, queryText string, strategy Strategy, reasoning string, docs []Document) TurnRecord {
	excerpts := make([]string, 0, MaxKeyExcerpts)
	for i, doc := range docs {
		if i >= MaxKeyExcerpts {
			break
		}
		source := doc.Source
		if source == "" {
			source = "unknown"
		}
		excerpts = append(excerpts, source+": "+Truncate(doc.Content, KeyExcerptMaxChars))
	}

	return TurnRecord{
		Timestamp:     now,
		QueryText:     queryText,
		StrategyUsed:  strategy,
		DocumentCount: len(docs),
		Reasoning:     reasoning,
		KeyExcerpts:   excerpts,
	}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
