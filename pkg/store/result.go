package store

// RetrievalResult is the terminal output of one orchestration run.
type RetrievalResult struct {
	Query              string      `json:"query"`
	UserID             string      `json:"user_id"`
	Documents          []Document  `json:"documents"`
	StrategyUsed       Strategy    `json:"strategy_used"`
	Confidence         float64     `json:"confidence"`
	Reasoning          string      `json:"reasoning"`
	ContextUsed        bool        `json:"context_used"`
	DocumentCount      int         `json:"document_count"`
	ConversationLength int         `json:"conversation_length"`
	Diagnostics        Diagnostics `json:"diagnostics"`
}

// HedgeReason explains why both backends ran.
type HedgeReason string

const (
	HedgeNone          HedgeReason = ""
	HedgeLowConfidence HedgeReason = "low_confidence"
	HedgeClassifier    HedgeReason = "classifier_both"
)

// Diagnostics carries per-run telemetry that callers may surface or ignore.
type Diagnostics struct {
	Route              Strategy    `json:"route"`
	ClassifiedStrategy Strategy    `json:"classified_strategy"`
	HedgeReason        HedgeReason `json:"hedge_reason,omitempty"`
	ClassifierFallback bool        `json:"classifier_fallback"`
	HistoryDegraded    bool        `json:"history_degraded"`
	MemoryDegraded     bool        `json:"memory_degraded"`
	IndexedCount       int         `json:"indexed_count"`
	WebCount           int         `json:"web_count"`
	Truncated          bool        `json:"truncated"`
	ElapsedMs          int64       `json:"elapsed_ms"`
}
