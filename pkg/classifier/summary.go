package classifier

import (
	"fmt"
	"strings"

	"context-retriever-be/internal/constant"
	"context-retriever-be/pkg/store"
)

const (
	maxDigestTurns      = 5
	maxDigestQueryChars = 100
)

// Summarize renders the bounded conversation digest given to the model.
// Only the most recent five turns are listed, each query cut to 100 characters.
func Summarize(history []store.TurnRecord) string {
	if len(history) == 0 {
		return constant.NoPreviousConversation
	}

	var sb strings.Builder
	sb.WriteString("Recent conversation topics:\n")
	for i, turn := range history {
		if i >= maxDigestTurns {
			break
		}
		fmt.Fprintf(&sb, "%d. Query: %s...\n", i+1, store.Truncate(turn.QueryText, maxDigestQueryChars))
		fmt.Fprintf(&sb, "   Strategy: %s, Documents: %d\n", turn.StrategyUsed, turn.DocumentCount)
	}
	return sb.String()
}
