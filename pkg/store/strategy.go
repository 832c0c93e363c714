package store

import (
	"fmt"
	"strings"
)

// Strategy names the retrieval backend(s) used for a query.
type Strategy string

const (
	StrategyIndexed Strategy = "indexed"
	StrategyWeb     Strategy = "web"
	StrategyBoth    Strategy = "both"
)

// ParseStrategy accepts the canonical names plus "custom", the older name of the indexed backend.
func ParseStrategy(raw string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "indexed", "custom", "index", "local":
		return StrategyIndexed, nil
	case "web", "web_search":
		return StrategyWeb, nil
	case "both", "hybrid":
		return StrategyBoth, nil
	default:
		return "", fmt.Errorf("unknown strategy %q", raw)
	}
}

func (s Strategy) String() string {
	return string(s)
}

// StrategyDecision is produced once per turn by the classifier.
type StrategyDecision struct {
	Strategy    Strategy `json:"strategy"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	ContextUsed bool     `json:"context_used"`

	// Fallback marks the default decision returned when classification failed.
	Fallback bool `json:"-"`
}

const FallbackReasoning = "default fallback"

// FallbackDecision is the decision used whenever the classifier cannot produce one.
func FallbackDecision() StrategyDecision {
	return StrategyDecision{
		Strategy:    StrategyIndexed,
		Confidence:  0.5,
		Reasoning:   FallbackReasoning,
		ContextUsed: false,
		Fallback:    true,
	}
}
