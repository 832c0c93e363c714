package contract

import (
	"context"

	"context-retriever-be/internal/entity"
	"context-retriever-be/internal/repository/specification"
)

// ScoredDocument wraps Document with its cosine similarity
type ScoredDocument struct {
	Document   *entity.Document
	Similarity float64 // 1.0 = identical
}

type SourceCount struct {
	Source string
	Count  int64
}

type DocumentRepository interface {
	CreateBulk(ctx context.Context, docs []*entity.Document) error
	DeleteBySource(ctx context.Context, source string) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	Sources(ctx context.Context) ([]SourceCount, error)
	// SearchSimilarWithScore returns at most limit documents with similarity >= threshold,
	// ordered by similarity descending then id ascending.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredDocument, error)
}
