package orchestrator

import (
	"time"

	"context-retriever-be/pkg/session"
	"context-retriever-be/pkg/store"
)

// run is the request-scoped state of one orchestration. Nothing in it is shared
// with other runs.
type run struct {
	query   store.Query
	started time.Time
	ticket  *session.Ticket

	history         []store.TurnRecord
	historyDegraded bool

	decision store.StrategyDecision
	route    State
	hedge    store.HedgeReason

	indexedDocs []store.Document
	webDocs     []store.Document
	documents   []store.Document
	truncated   bool

	memoryDegraded bool
}
