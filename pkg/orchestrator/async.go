package orchestrator

import (
	"context"

	"context-retriever-be/pkg/store"
)

type AsyncResult struct {
	Result *store.RetrievalResult
	Err    error
}

// RetrieveAsync reserves the user's ordering slot immediately and runs the turn
// in the background. The channel receives exactly one value and is then closed.
func (o *Orchestrator) RetrieveAsync(ctx context.Context, query string, userID string) <-chan AsyncResult {
	out := make(chan AsyncResult, 1)

	q, err := validate(query, userID)
	if err != nil {
		out <- AsyncResult{Err: err}
		close(out)
		return out
	}

	ticket := o.sequencer.Reserve(q.UserID)
	go func() {
		defer close(out)
		defer ticket.Release()
		out <- AsyncResult{Result: o.execute(ctx, q, ticket)}
	}()
	return out
}
