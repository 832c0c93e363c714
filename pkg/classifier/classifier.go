// Package classifier asks a language model which retrieval backend fits a query.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"context-retriever-be/internal/constant"
	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/pkg/llm"
	"context-retriever-be/pkg/store"
)

type IClassifier interface {
	// Classify never fails; any problem yields store.FallbackDecision().
	Classify(ctx context.Context, query string, history []store.TurnRecord) store.StrategyDecision
}

type Classifier struct {
	provider llm.LLMProvider
	timeout  time.Duration
	logger   logger.ILogger
}

var _ IClassifier = (*Classifier)(nil)

func NewClassifier(provider llm.LLMProvider, timeout time.Duration, log logger.ILogger) *Classifier {
	return &Classifier{
		provider: provider,
		timeout:  timeout,
		logger:   log,
	}
}

func (c *Classifier) Classify(ctx context.Context, query string, history []store.TurnRecord) store.StrategyDecision {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: fmt.Sprintf(constant.StrategySystemPrompt, Summarize(history))},
		{Role: constant.ChatMessageRoleUser, Content: fmt.Sprintf(constant.StrategyHumanPrompt, query)},
	}

	reply, err := c.provider.Chat(ctx, messages, llm.WithTemperature(0), llm.WithJSONMode())
	if err != nil {
		c.logger.Warn("Classifier", "LLM call failed, using fallback decision", map[string]interface{}{
			"error":   err.Error(),
			"timeout": errors.Is(err, context.DeadlineExceeded),
		})
		return store.FallbackDecision()
	}

	decision, err := parseDecision(reply)
	if err != nil {
		c.logger.Warn("Classifier", "Unparseable decision, using fallback", map[string]interface{}{
			"error": err.Error(),
			"reply": store.Truncate(reply, 200),
		})
		return store.FallbackDecision()
	}

	c.logger.Debug("Classifier", "Strategy decided", map[string]interface{}{
		"strategy":     decision.Strategy,
		"confidence":   decision.Confidence,
		"context_used": decision.ContextUsed,
	})
	return decision
}

type rawDecision struct {
	Strategy    *string          `json:"strategy"`
	Confidence  *json.RawMessage `json:"confidence"`
	Reasoning   string           `json:"reasoning"`
	ContextUsed bool             `json:"context_used"`
}

// parseDecision extracts the decision document from a model reply. Code fences
// and surrounding prose are tolerated; the strategy and a numeric confidence are required.
func parseDecision(reply string) (store.StrategyDecision, error) {
	response := strings.TrimSpace(reply)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	jsonStart := strings.Index(response, "{")
	jsonEnd := strings.LastIndex(response, "}")
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return store.StrategyDecision{}, errors.New("no JSON object in reply")
	}
	response = response[jsonStart : jsonEnd+1]

	var raw rawDecision
	if err := json.Unmarshal([]byte(response), &raw); err != nil {
		return store.StrategyDecision{}, fmt.Errorf("decode decision: %w", err)
	}
	if raw.Strategy == nil {
		return store.StrategyDecision{}, errors.New("missing strategy")
	}
	strategy, err := store.ParseStrategy(*raw.Strategy)
	if err != nil {
		return store.StrategyDecision{}, err
	}
	if raw.Confidence == nil {
		return store.StrategyDecision{}, errors.New("missing confidence")
	}
	var confidence float64
	if err := json.Unmarshal(*raw.Confidence, &confidence); err != nil {
		return store.StrategyDecision{}, fmt.Errorf("confidence is not a number: %s", string(*raw.Confidence))
	}

	return store.StrategyDecision{
		Strategy:    strategy,
		Confidence:  clamp(confidence),
		Reasoning:   raw.Reasoning,
		ContextUsed: raw.ContextUsed,
	}, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
