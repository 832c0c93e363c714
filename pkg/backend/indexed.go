package backend

import (
	"context"
	"sort"

	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/internal/repository/contract"
	"context-retriever-be/pkg/embedding"
	"context-retriever-be/pkg/store"
)

// IndexedBackend runs cosine similarity search over the pgvector documents table.
type IndexedBackend struct {
	repo      contract.DocumentRepository
	embedder  embedding.EmbeddingProvider
	maxDocs   int
	threshold float64
	logger    logger.ILogger
}

var _ Backend = (*IndexedBackend)(nil)

func NewIndexedBackend(
	repo contract.DocumentRepository,
	embedder embedding.EmbeddingProvider,
	maxDocs int,
	threshold float64,
	log logger.ILogger,
) *IndexedBackend {
	return &IndexedBackend{
		repo:      repo,
		embedder:  embedder,
		maxDocs:   maxDocs,
		threshold: threshold,
		logger:    log,
	}
}

func (b *IndexedBackend) Name() string {
	return NameIndexed
}

func (b *IndexedBackend) Search(ctx context.Context, query string) []store.Document {
	resp, err := b.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		b.logger.Warn("IndexedBackend", "Query embedding failed", map[string]interface{}{
			"error": err.Error(),
		})
		return empty()
	}

	scored, err := b.repo.SearchSimilarWithScore(ctx, resp.Embedding.Values, b.maxDocs, b.threshold)
	if err != nil {
		b.logger.Warn("IndexedBackend", "Similarity search failed", map[string]interface{}{
			"error": err.Error(),
		})
		return empty()
	}

	kept := make([]*contract.ScoredDocument, 0, len(scored))
	for _, s := range scored {
		if s == nil || s.Document == nil || s.Similarity < b.threshold {
			continue
		}
		kept = append(kept, s)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Similarity != kept[j].Similarity {
			return kept[i].Similarity > kept[j].Similarity
		}
		return kept[i].Document.Id < kept[j].Document.Id
	})
	if len(kept) > b.maxDocs {
		kept = kept[:b.maxDocs]
	}

	docs := make([]store.Document, 0, len(kept))
	for _, s := range kept {
		docs = append(docs, toStoreDocument(s))
	}

	b.logger.Debug("IndexedBackend", "Search completed", map[string]interface{}{
		"candidates": len(scored),
		"returned":   len(docs),
		"threshold":  b.threshold,
	})
	return docs
}

func toStoreDocument(s *contract.ScoredDocument) store.Document {
	source := s.Document.Source
	if source == "" {
		source = "unknown"
	}

	metadata := make(map[string]interface{}, len(s.Document.Metadata)+3)
	for k, v := range s.Document.Metadata {
		metadata[k] = v
	}
	metadata["id"] = s.Document.Id
	metadata["source"] = source
	metadata["similarity"] = s.Similarity

	return store.Document{
		Content:  s.Document.Content,
		Source:   source,
		Score:    store.Score(clampUnit(s.Similarity)),
		Metadata: metadata,
	}
}

// clampUnit maps a cosine similarity (which can be negative) into [0,1].
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
