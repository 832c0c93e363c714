package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"context-retriever-be/internal/dto"
	"context-retriever-be/internal/entity"
	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/internal/repository/contract"
	"context-retriever-be/internal/repository/specification"
	"context-retriever-be/internal/repository/unitofwork"
	"context-retriever-be/pkg/events"
	"context-retriever-be/pkg/ingest"
	"context-retriever-be/pkg/orchestrator"
	"context-retriever-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

type fakeOrchestrator struct {
	history []store.TurnRecord
	err     error
	cleared []string
}

func (f *fakeOrchestrator) Retrieve(_ context.Context, query string, userID string) (*store.RetrievalResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &store.RetrievalResult{Query: query, UserID: userID, StrategyUsed: store.StrategyIndexed}, nil
}

func (f *fakeOrchestrator) RetrieveAsync(ctx context.Context, query string, userID string) <-chan orchestrator.AsyncResult {
	out := make(chan orchestrator.AsyncResult, 1)
	res, err := f.Retrieve(ctx, query, userID)
	out <- orchestrator.AsyncResult{Result: res, Err: err}
	close(out)
	return out
}

func (f *fakeOrchestrator) ClearSession(_ context.Context, userID string) error {
	f.cleared = append(f.cleared, userID)
	return f.err
}

func (f *fakeOrchestrator) GetHistory(context.Context, string) ([]store.TurnRecord, error) {
	return f.history, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type recordingNotifier struct {
	frames map[string][]dto.ChatOutbound
}

func (n *recordingNotifier) SendToUser(userID string, frame dto.ChatOutbound) {
	n.frames[userID] = append(n.frames[userID], frame)
}

func TestRetrieverService_Retrieve(t *testing.T) {
	pub := &recordingPublisher{}
	notifier := &recordingNotifier{frames: map[string][]dto.ChatOutbound{}}
	svc := NewRetrieverService(&fakeOrchestrator{}, pub, notifier, logger.NewNopLogger())

	res, err := svc.Retrieve(context.Background(), "alice", &dto.RetrieveRequest{Query: "go generics"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RequestId)
	assert.Equal(t, "go generics", res.Query)
	assert.Equal(t, "alice", res.UserID)

	assert.Len(t, notifier.frames["alice"], 1)
	assert.Eventually(t, func() bool {
		types := pub.types()
		return len(types) == 1 && types[0] == events.TypeTurnCompleted
	}, time.Second, 10*time.Millisecond)
}

func TestRetrieverService_RetrievePropagatesInvalidInput(t *testing.T) {
	svc := NewRetrieverService(&fakeOrchestrator{err: orchestrator.ErrEmptyQuery}, nil, nil, logger.NewNopLogger())

	_, err := svc.Retrieve(context.Background(), "alice", &dto.RetrieveRequest{Query: " "})
	assert.ErrorIs(t, err, orchestrator.ErrInvalidInput)
}

func TestRetrieverService_History(t *testing.T) {
	orch := &fakeOrchestrator{history: []store.TurnRecord{
		{QueryText: "second", StrategyUsed: store.StrategyWeb, KeyExcerpts: []string{"web_search: x"}},
		{QueryText: "first", StrategyUsed: store.StrategyIndexed},
	}}
	svc := NewRetrieverService(orch, nil, nil, logger.NewNopLogger())

	res, err := svc.History(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, res.Turns, 2)
	assert.Equal(t, "second", res.Turns[0].Query)
	assert.Equal(t, "web", res.Turns[0].StrategyUsed)
	assert.Equal(t, []string{"web_search: x"}, res.Turns[0].KeyPoints)

	require.NoError(t, svc.ClearSession(context.Background(), "alice"))
	assert.Equal(t, []string{"alice"}, orch.cleared)
}

type fakeIngester struct {
	mu    sync.Mutex
	calls int
	err   error
	docs  []schema.Document
}

func (f *fakeIngester) Ingest(_ context.Context, docs []schema.Document) (*ingest.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.docs = docs
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Report{Sources: []string{"notes.txt"}, Chunks: len(docs)}, nil
}

func (f *fakeIngester) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newIngestionService(t *testing.T, ingester DocumentIngester, pub events.Publisher) IIngestionService {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	svc := NewIngestionService(pubSub, pubSub, "DOCUMENT_UPLOADED", ingester, pub, logger.NewNopLogger())
	require.NoError(t, svc.Consume(context.Background()))
	return svc
}

func TestIngestionService_UploadIsConsumed(t *testing.T) {
	ingester := &fakeIngester{}
	pub := &recordingPublisher{}
	svc := newIngestionService(t, ingester, pub)

	res, err := svc.Upload(context.Background(), "/tmp/notes.txt", []byte("Goroutines are cheap."))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", res.FileName)
	assert.Equal(t, "queued", res.Status)

	assert.Eventually(t, func() bool { return ingester.callCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		types := pub.types()
		return len(types) == 1 && types[0] == events.TypeDocumentIngested
	}, time.Second, 10*time.Millisecond)

	ingester.mu.Lock()
	defer ingester.mu.Unlock()
	require.Len(t, ingester.docs, 1)
	assert.Equal(t, "notes.txt", ingester.docs[0].Metadata["source"])
}

func TestIngestionService_RetriesThenGivesUp(t *testing.T) {
	ingester := &fakeIngester{err: errors.New("embedding service down")}
	svc := newIngestionService(t, ingester, nil)

	_, err := svc.Upload(context.Background(), "notes.md", []byte("# Title"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return ingester.callCount() == maxIngestAttempts }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, maxIngestAttempts, ingester.callCount())
}

func TestIngestionService_UploadRejects(t *testing.T) {
	svc := newIngestionService(t, &fakeIngester{}, nil)

	_, err := svc.Upload(context.Background(), "sheet.xlsx", []byte("x"))
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFile)

	_, err = svc.Upload(context.Background(), "empty.txt", []byte("  \n"))
	assert.ErrorIs(t, err, ingest.ErrNothingToIngest)
}

type statsRepo struct {
	contract.DocumentRepository
	docs  []*entity.Document
	specs []specification.Specification
}

func (*statsRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return 3, nil
}

func (*statsRepo) Sources(context.Context) ([]contract.SourceCount, error) {
	return []contract.SourceCount{{Source: "a.txt", Count: 2}, {Source: "b.md", Count: 1}}, nil
}

func (r *statsRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.specs = specs
	return r.docs, nil
}

type statsUoW struct {
	unitofwork.UnitOfWork
	repo *statsRepo
}

func (u statsUoW) DocumentRepository() contract.DocumentRepository { return u.repo }

type statsFactory struct {
	repo *statsRepo
}

func (f statsFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return statsUoW{repo: f.repo} }

type stubBackend struct{}

func (stubBackend) Name() string { return "indexed" }

func (stubBackend) Search(_ context.Context, query string) []store.Document {
	return []store.Document{{Content: "about " + query, Source: "a.txt"}}
}

func TestDocumentService(t *testing.T) {
	svc := NewDocumentService(statsFactory{repo: &statsRepo{}}, stubBackend{})

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalDocuments)
	assert.Equal(t, []dto.SourceStatResponse{{Source: "a.txt", Chunks: 2}, {Source: "b.md", Chunks: 1}}, stats.Sources)

	docs, err := svc.Search(context.Background(), "channels")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "about channels", docs[0].Content)

	docs, err = svc.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentService_ListAndShow(t *testing.T) {
	repo := &statsRepo{docs: []*entity.Document{
		{Id: 1, Source: "a.txt", Content: "first"},
		{Id: 2, Source: "a.txt", Content: "second"},
	}}
	svc := NewDocumentService(statsFactory{repo: repo}, stubBackend{})

	list, err := svc.List(context.Background(), &dto.ListDocumentsRequest{Source: "a.txt", Contains: "sec"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Contains(t, repo.specs, specification.Specification(specification.BySource{Source: "a.txt"}))
	assert.Contains(t, repo.specs, specification.Specification(specification.ContentContains{Query: "sec"}))
	assert.Contains(t, repo.specs, specification.Specification(specification.Pagination{Limit: defaultListLimit}))

	doc, err := svc.Show(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "first", doc.Content)

	repo.docs = nil
	_, err = svc.Show(context.Background(), 99)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}
