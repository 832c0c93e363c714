package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"context-retriever-be/internal/entity"
	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/internal/repository/contract"
	"context-retriever-be/internal/repository/specification"
	"context-retriever-be/internal/repository/unitofwork"
	"context-retriever-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

type memoryRepo struct {
	mu      sync.Mutex
	docs    []*entity.Document
	deleted []string
	failAdd bool
}

func (r *memoryRepo) CreateBulk(_ context.Context, docs []*entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAdd {
		return errors.New("insert failed")
	}
	for _, d := range docs {
		d.Id = int64(len(r.docs) + 1)
		r.docs = append(r.docs, d)
	}
	return nil
}

func (r *memoryRepo) DeleteBySource(_ context.Context, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, source)
	kept := r.docs[:0]
	for _, d := range r.docs {
		if d.Source != source {
			kept = append(kept, d)
		}
	}
	r.docs = kept
	return nil
}

func (r *memoryRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.Document, error) {
	return r.docs, nil
}

func (r *memoryRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return int64(len(r.docs)), nil
}

func (r *memoryRepo) Sources(context.Context) ([]contract.SourceCount, error) { return nil, nil }

func (r *memoryRepo) SearchSimilarWithScore(context.Context, []float32, int, float64) ([]*contract.ScoredDocument, error) {
	return nil, nil
}

type fakeUoW struct {
	repo       *memoryRepo
	committed  bool
	rolledBack bool
}

func (u *fakeUoW) Begin(context.Context) error { return nil }
func (u *fakeUoW) Commit() error               { u.committed = true; return nil }
func (u *fakeUoW) Rollback() error             { u.rolledBack = true; return nil }
func (u *fakeUoW) DocumentRepository() contract.DocumentRepository {
	return u.repo
}

type fakeFactory struct {
	repo *memoryRepo
	last *fakeUoW
}

func (f *fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	f.last = &fakeUoW{repo: f.repo}
	return f.last
}

type fakeEmbedder struct {
	failOn string
}

func (e *fakeEmbedder) Generate(_ context.Context, text string, _ string) (*embedding.EmbeddingResponse, error) {
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, errors.New("embedding failed")
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0, 0}}}, nil
}

func newTestPipeline(t *testing.T, factory *fakeFactory, embedder embedding.EmbeddingProvider) *Pipeline {
	t.Helper()
	p, err := NewPipeline(factory, embedder, logger.NewNopLogger(), WithPoolSize(2), WithChunking(50, 10))
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestPipeline_IngestSplitsEmbedsAndStores(t *testing.T) {
	factory := &fakeFactory{repo: &memoryRepo{}}
	p := newTestPipeline(t, factory, &fakeEmbedder{})

	docs := []schema.Document{
		{PageContent: strings.Repeat("alpha beta gamma delta ", 10), Metadata: map[string]any{"source": "a.txt"}},
		{PageContent: "short note", Metadata: map[string]any{"source": "b.md"}},
	}

	report, err := p.Ingest(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "b.md"}, report.Sources)
	assert.Greater(t, report.Chunks, 2)
	assert.Equal(t, 0, report.Failed)
	assert.True(t, factory.last.committed)
	assert.Contains(t, factory.repo.deleted, PlaceholderSource)

	for _, d := range factory.repo.docs {
		assert.LessOrEqual(t, len(d.Content), 50)
		assert.Contains(t, d.Metadata, "chunk_index")
		assert.NotEmpty(t, d.Embedding)
	}
}

func TestPipeline_ReingestReplacesSource(t *testing.T) {
	factory := &fakeFactory{repo: &memoryRepo{}}
	p := newTestPipeline(t, factory, &fakeEmbedder{})
	doc := []schema.Document{{PageContent: "version one", Metadata: map[string]any{"source": "a.txt"}}}

	_, err := p.Ingest(context.Background(), doc)
	require.NoError(t, err)

	doc[0].PageContent = "version two"
	_, err = p.Ingest(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, factory.repo.docs, 1)
	assert.Equal(t, "version two", factory.repo.docs[0].Content)
}

func TestPipeline_SkipsFailedChunks(t *testing.T) {
	factory := &fakeFactory{repo: &memoryRepo{}}
	p := newTestPipeline(t, factory, &fakeEmbedder{failOn: "broken"})

	report, err := p.Ingest(context.Background(), []schema.Document{
		{PageContent: "fine text", Metadata: map[string]any{"source": "a.txt"}},
		{PageContent: "broken text", Metadata: map[string]any{"source": "b.txt"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Chunks)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"a.txt"}, report.Sources)
}

func TestPipeline_InsertFailureRollsBack(t *testing.T) {
	factory := &fakeFactory{repo: &memoryRepo{failAdd: true}}
	p := newTestPipeline(t, factory, &fakeEmbedder{})

	_, err := p.Ingest(context.Background(), []schema.Document{{PageContent: "text", Metadata: map[string]any{"source": "a.txt"}}})
	assert.Error(t, err)
	assert.True(t, factory.last.rolledBack)
	assert.False(t, factory.last.committed)
}

func TestPipeline_NothingToIngest(t *testing.T) {
	p := newTestPipeline(t, &fakeFactory{repo: &memoryRepo{}}, &fakeEmbedder{})
	_, err := p.Ingest(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNothingToIngest)
}

func TestPipeline_EnsurePlaceholder(t *testing.T) {
	factory := &fakeFactory{repo: &memoryRepo{}}
	p := newTestPipeline(t, factory, &fakeEmbedder{})

	created, err := p.EnsurePlaceholder(context.Background())
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, factory.repo.docs, 1)
	assert.Equal(t, PlaceholderContent, factory.repo.docs[0].Content)
	assert.Equal(t, PlaceholderSource, factory.repo.docs[0].Source)

	created, err = p.EnsurePlaceholder(context.Background())
	require.NoError(t, err)
	assert.False(t, created)
}

func TestWithChunking_RejectsBadValues(t *testing.T) {
	_, err := NewPipeline(&fakeFactory{repo: &memoryRepo{}}, &fakeEmbedder{}, logger.NewNopLogger(), WithChunking(100, 100))
	assert.Error(t, err)
}
