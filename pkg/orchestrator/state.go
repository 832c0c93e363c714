package orchestrator

import (
	"context-retriever-be/pkg/store"
)

// State is one step of a retrieval run.
type State int

const (
	StateAnalyzeContext State = iota
	StateIndexedRetrieve
	StateWebRetrieve
	StateBothRetrieve
	StateCombine
	StateUpdateMemory
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAnalyzeContext:
		return "analyze_context"
	case StateIndexedRetrieve:
		return "indexed_retrieve"
	case StateWebRetrieve:
		return "web_retrieve"
	case StateBothRetrieve:
		return "both_retrieve"
	case StateCombine:
		return "combine"
	case StateUpdateMemory:
		return "update_memory"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Strategy reports which backends a retrieve state runs.
func (s State) Strategy() store.Strategy {
	switch s {
	case StateWebRetrieve:
		return store.StrategyWeb
	case StateBothRetrieve:
		return store.StrategyBoth
	default:
		return store.StrategyIndexed
	}
}

// Route is the routing policy out of AnalyzeContext. Decisions below the
// confidence threshold hedge across both backends whatever the classified strategy.
func Route(decision store.StrategyDecision, confidenceThreshold float64) (State, store.HedgeReason) {
	if decision.Confidence < confidenceThreshold {
		return StateBothRetrieve, store.HedgeLowConfidence
	}
	switch decision.Strategy {
	case store.StrategyWeb:
		return StateWebRetrieve, store.HedgeNone
	case store.StrategyBoth:
		return StateBothRetrieve, store.HedgeClassifier
	default:
		return StateIndexedRetrieve, store.HedgeNone
	}
}

// next is the transition function. Every path is
// AnalyzeContext -> one retrieve state -> Combine -> UpdateMemory -> Done.
func next(current State, route State) State {
	switch current {
	case StateAnalyzeContext:
		return route
	case StateIndexedRetrieve, StateWebRetrieve, StateBothRetrieve:
		return StateCombine
	case StateCombine:
		return StateUpdateMemory
	default:
		return StateDone
	}
}
