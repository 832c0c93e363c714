package orchestrator

import (
	"time"

	"context-retriever-be/pkg/store"
)

// Assemble turns a finished run into its result. It has no side effects.
func Assemble(r *run, finished time.Time) *store.RetrievalResult {
	docs := r.documents
	if docs == nil {
		docs = []store.Document{}
	}

	return &store.RetrievalResult{
		Query:              r.query.Text,
		UserID:             r.query.UserID,
		Documents:          docs,
		StrategyUsed:       r.route.Strategy(),
		Confidence:         r.decision.Confidence,
		Reasoning:          r.decision.Reasoning,
		ContextUsed:        r.decision.ContextUsed,
		DocumentCount:      len(docs),
		ConversationLength: len(r.history),
		Diagnostics: store.Diagnostics{
			Route:              r.route.Strategy(),
			ClassifiedStrategy: r.decision.Strategy,
			HedgeReason:        r.hedge,
			ClassifierFallback: r.decision.Fallback,
			HistoryDegraded:    r.historyDegraded,
			MemoryDegraded:     r.memoryDegraded,
			IndexedCount:       len(r.indexedDocs),
			WebCount:           len(r.webDocs),
			Truncated:          r.truncated,
			ElapsedMs:          finished.Sub(r.started).Milliseconds(),
		},
	}
}
