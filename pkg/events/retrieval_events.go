package events

import (
	"time"

	"context-retriever-be/pkg/store"
)

const (
	TypeTurnCompleted    = "RETRIEVAL_TURN_COMPLETED"
	TypeDocumentIngested = "DOCUMENT_INGESTED"
)

// NewTurnCompleted describes a finished retrieval turn. Document contents are
// not included.
func NewTurnCompleted(res *store.RetrievalResult, requestID string) BaseEvent {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"request_id":          requestID,
			"user_id":             res.UserID,
			"strategy_used":       string(res.StrategyUsed),
			"classified_strategy": string(res.Diagnostics.ClassifiedStrategy),
			"hedge_reason":        string(res.Diagnostics.HedgeReason),
			"confidence":          res.Confidence,
			"document_count":      res.DocumentCount,
			"conversation_length": res.ConversationLength,
			"classifier_fallback": res.Diagnostics.ClassifierFallback,
			"memory_degraded":     res.Diagnostics.MemoryDegraded,
			"elapsed_ms":          res.Diagnostics.ElapsedMs,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewDocumentIngested(jobID string, sources []string, chunks, failed int) BaseEvent {
	return BaseEvent{
		Type: TypeDocumentIngested,
		Data: map[string]interface{}{
			"job_id":  jobID,
			"sources": sources,
			"chunks":  chunks,
			"failed":  failed,
		},
		OccurredAt: time.Now().UTC(),
	}
}
