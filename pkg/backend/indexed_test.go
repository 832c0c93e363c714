package backend

import (
	"context"
	"errors"
	"testing"

	"context-retriever-be/internal/entity"
	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/internal/repository/contract"
	"context-retriever-be/internal/repository/specification"
	"context-retriever-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Generate(_ context.Context, _ string, _ string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}}}, nil
}

type fakeDocumentRepo struct {
	results   []*contract.ScoredDocument
	err       error
	gotLimit  int
	gotThresh float64
}

func (f *fakeDocumentRepo) CreateBulk(context.Context, []*entity.Document) error { return nil }
func (f *fakeDocumentRepo) DeleteBySource(context.Context, string) error         { return nil }
func (f *fakeDocumentRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.Document, error) {
	return nil, nil
}
func (f *fakeDocumentRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return 0, nil
}
func (f *fakeDocumentRepo) Sources(context.Context) ([]contract.SourceCount, error) { return nil, nil }

func (f *fakeDocumentRepo) SearchSimilarWithScore(_ context.Context, _ []float32, limit int, threshold float64) ([]*contract.ScoredDocument, error) {
	f.gotLimit = limit
	f.gotThresh = threshold
	return f.results, f.err
}

func scored(id int64, source string, sim float64) *contract.ScoredDocument {
	return &contract.ScoredDocument{
		Document:   &entity.Document{Id: id, Content: "content", Source: source, Metadata: map[string]interface{}{"page": 1}},
		Similarity: sim,
	}
}

func TestIndexedBackend_FiltersOrdersAndCaps(t *testing.T) {
	repo := &fakeDocumentRepo{results: []*contract.ScoredDocument{
		scored(4, "b.txt", 0.80),
		scored(2, "a.txt", 0.90),
		scored(1, "a.txt", 0.80),
		scored(3, "c.txt", 0.65), // below threshold even if the store returned it
		scored(5, "", 0.75),
	}}
	b := NewIndexedBackend(repo, &fakeEmbedder{}, 3, 0.7, logger.NewNopLogger())

	docs := b.Search(context.Background(), "what is the refund policy")

	require.Len(t, docs, 3)
	assert.Equal(t, 3, repo.gotLimit)
	assert.Equal(t, 0.7, repo.gotThresh)

	assert.Equal(t, int64(2), docs[0].Metadata["id"])
	assert.Equal(t, int64(1), docs[1].Metadata["id"])
	assert.Equal(t, int64(4), docs[2].Metadata["id"])

	for _, d := range docs {
		require.NotNil(t, d.Score)
		assert.GreaterOrEqual(t, *d.Score, 0.7)
		assert.LessOrEqual(t, *d.Score, 1.0)
		assert.Equal(t, d.Source, d.Metadata["source"])
		assert.Equal(t, 1, d.Metadata["page"])
	}
}

func TestIndexedBackend_UnknownSource(t *testing.T) {
	repo := &fakeDocumentRepo{results: []*contract.ScoredDocument{scored(1, "", 0.9)}}
	b := NewIndexedBackend(repo, &fakeEmbedder{}, 5, 0.7, logger.NewNopLogger())

	docs := b.Search(context.Background(), "q")
	require.Len(t, docs, 1)
	assert.Equal(t, "unknown", docs[0].Source)
}

func TestIndexedBackend_FaultsYieldEmpty(t *testing.T) {
	tests := []struct {
		name     string
		embedder *fakeEmbedder
		repo     *fakeDocumentRepo
	}{
		{"embedding failure", &fakeEmbedder{err: errors.New("ollama down")}, &fakeDocumentRepo{}},
		{"store failure", &fakeEmbedder{}, &fakeDocumentRepo{err: errors.New("connection refused")}},
		{"no matches", &fakeEmbedder{}, &fakeDocumentRepo{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewIndexedBackend(tt.repo, tt.embedder, 5, 0.7, logger.NewNopLogger())
			docs := b.Search(context.Background(), "q")
			assert.NotNil(t, docs)
			assert.Empty(t, docs)
		})
	}
}
