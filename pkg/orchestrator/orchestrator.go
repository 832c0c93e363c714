// Package orchestrator runs one retrieval turn: classify the query against the
// user's recent history, query one or both backends, merge, and record the turn.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/pkg/backend"
	"context-retriever-be/pkg/classifier"
	"context-retriever-be/pkg/metrics"
	"context-retriever-be/pkg/session"
	"context-retriever-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyQuery    = fmt.Errorf("%w: query must not be empty", ErrInvalidInput)
	ErrMissingUserID = fmt.Errorf("%w: user_id is required", ErrInvalidInput)
)

type IOrchestrator interface {
	Retrieve(ctx context.Context, query string, userID string) (*store.RetrievalResult, error)
	RetrieveAsync(ctx context.Context, query string, userID string) <-chan AsyncResult
	ClearSession(ctx context.Context, userID string) error
	GetHistory(ctx context.Context, userID string) ([]store.TurnRecord, error)
}

type Orchestrator struct {
	cfg        store.RetrievalConfig
	classifier classifier.IClassifier
	indexed    backend.Backend
	web        backend.Backend
	sessions   session.Store
	sequencer  *session.Sequencer
	logger     logger.ILogger
	tracer     trace.Tracer
	now        func() time.Time
}

var _ IOrchestrator = (*Orchestrator)(nil)

func New(
	cfg store.RetrievalConfig,
	cls classifier.IClassifier,
	indexed backend.Backend,
	web backend.Backend,
	sessions session.Store,
	log logger.ILogger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg.Normalize(),
		classifier: cls,
		indexed:    indexed,
		web:        web,
		sessions:   sessions,
		sequencer:  session.NewSequencer(),
		logger:     log,
		tracer:     otel.Tracer("orchestrator"),
		now:        time.Now,
	}
}

func validate(query, userID string) (store.Query, error) {
	if strings.TrimSpace(query) == "" {
		return store.Query{}, ErrEmptyQuery
	}
	if strings.TrimSpace(userID) == "" {
		return store.Query{}, ErrMissingUserID
	}
	return store.Query{Text: query, UserID: userID}, nil
}

// Retrieve runs one turn for userID. Only invalid input is returned as an error;
// backend, classifier and session faults degrade the result instead.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, userID string) (*store.RetrievalResult, error) {
	q, err := validate(query, userID)
	if err != nil {
		return nil, err
	}

	// Reserved before any I/O so this turn's session write lands after every
	// turn the same user submitted earlier.
	ticket := o.sequencer.Reserve(q.UserID)
	defer ticket.Release()

	return o.execute(ctx, q, ticket), nil
}

func (o *Orchestrator) execute(ctx context.Context, q store.Query, ticket *session.Ticket) *store.RetrievalResult {
	ctx, span := o.tracer.Start(ctx, "orchestrator.Retrieve", trace.WithAttributes(
		attribute.String("user.id", q.UserID),
	))
	defer span.End()

	r := &run{
		query:   q,
		started: o.now(),
		ticket:  ticket,
	}

	for state := StateAnalyzeContext; state != StateDone; state = next(state, r.route) {
		o.step(ctx, state, r)
	}

	result := Assemble(r, o.now())
	metrics.IncRoute(string(result.StrategyUsed), string(r.hedge))
	metrics.ObserveRun(r.started)

	span.SetAttributes(
		attribute.String("retrieval.route", string(result.StrategyUsed)),
		attribute.String("retrieval.hedge_reason", string(r.hedge)),
		attribute.Int("retrieval.documents", result.DocumentCount),
	)

	o.logger.Info("Orchestrator", "Retrieval completed", map[string]interface{}{
		"user_id":      q.UserID,
		"strategy":     result.StrategyUsed,
		"classified":   r.decision.Strategy,
		"confidence":   r.decision.Confidence,
		"hedge_reason": r.hedge,
		"documents":    result.DocumentCount,
		"elapsed_ms":   result.Diagnostics.ElapsedMs,
	})
	return result
}

func (o *Orchestrator) step(ctx context.Context, state State, r *run) {
	ctx, span := o.tracer.Start(ctx, "orchestrator."+state.String())
	defer span.End()

	switch state {
	case StateAnalyzeContext:
		o.analyzeContext(ctx, r)
	case StateIndexedRetrieve:
		r.indexedDocs = o.search(ctx, o.indexed, r.query.Text)
	case StateWebRetrieve:
		r.webDocs = o.search(ctx, o.web, r.query.Text)
	case StateBothRetrieve:
		o.bothRetrieve(ctx, r)
	case StateCombine:
		o.combine(r)
	case StateUpdateMemory:
		o.updateMemory(ctx, r)
	}
}

func (o *Orchestrator) analyzeContext(ctx context.Context, r *run) {
	readCtx, cancel := context.WithTimeout(ctx, o.cfg.SessionTimeout)
	history, err := o.sessions.History(readCtx, r.query.UserID)
	cancel()
	if err != nil {
		o.logger.Warn("Orchestrator", "Session history unavailable, continuing without context", map[string]interface{}{
			"user_id": r.query.UserID,
			"error":   err.Error(),
		})
		metrics.IncSessionDegraded("history")
		history = []store.TurnRecord{}
		r.historyDegraded = true
	}
	r.history = history

	classifyCtx, cancel := context.WithTimeout(ctx, o.cfg.ClassifierTimeout)
	r.decision = o.classifier.Classify(classifyCtx, r.query.Text, history)
	cancel()
	if r.decision.Fallback {
		metrics.IncClassifierFallback()
	}

	r.route, r.hedge = Route(r.decision, o.cfg.ConfidenceThreshold)
}

// search bounds one backend call. A timeout looks like an empty result.
func (o *Orchestrator) search(ctx context.Context, b backend.Backend, query string) []store.Document {
	searchCtx, cancel := context.WithTimeout(ctx, o.cfg.BackendTimeout)
	defer cancel()

	docs := b.Search(searchCtx, query)
	if docs == nil {
		docs = []store.Document{}
	}
	return docs
}

func (o *Orchestrator) bothRetrieve(ctx context.Context, r *run) {
	var g errgroup.Group
	g.Go(func() error {
		r.indexedDocs = o.search(ctx, o.indexed, r.query.Text)
		return nil
	})
	g.Go(func() error {
		r.webDocs = o.search(ctx, o.web, r.query.Text)
		return nil
	})
	_ = g.Wait()
}

// combine concatenates indexed then web documents and caps the total.
func (o *Orchestrator) combine(r *run) {
	combined := make([]store.Document, 0, len(r.indexedDocs)+len(r.webDocs))
	combined = append(combined, r.indexedDocs...)
	combined = append(combined, r.webDocs...)

	if len(combined) > o.cfg.MaxDocs {
		combined = combined[:o.cfg.MaxDocs]
		r.truncated = true
	}
	r.documents = combined
}

func (o *Orchestrator) updateMemory(ctx context.Context, r *run) {
	record := store.NewTurnRecord(o.now(), r.query.Text, r.route.Strategy(), r.decision.Reasoning, r.documents)

	// The write must survive the caller giving up on the request. Every earlier
	// turn is bounded by its own step timeouts, so the wait for it is too.
	detached := context.WithoutCancel(ctx)
	_ = r.ticket.Wait(detached)

	appendCtx, cancel := context.WithTimeout(detached, o.cfg.SessionTimeout)
	defer cancel()
	if err := o.sessions.Append(appendCtx, r.query.UserID, record); err != nil {
		o.logger.Warn("Orchestrator", "Session write dropped", map[string]interface{}{
			"user_id": r.query.UserID,
			"error":   err.Error(),
		})
		metrics.IncSessionDegraded("append")
		r.memoryDegraded = true
	}
}

// ClearSession deletes the user's history, including turns submitted before the
// call that have not been recorded yet. Clearing an unknown user is not an error.
func (o *Orchestrator) ClearSession(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUserID
	}

	ticket := o.sequencer.Reserve(userID)
	defer ticket.Release()
	if err := ticket.Wait(ctx); err != nil {
		return err
	}
	return o.sessions.Clear(ctx, userID)
}

// GetHistory returns the user's turns, newest first.
func (o *Orchestrator) GetHistory(ctx context.Context, userID string) ([]store.TurnRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	return o.sessions.History(ctx, userID)
}
