package ingest

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"context-retriever-be/internal/entity"
	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/internal/repository/unitofwork"
	"context-retriever-be/pkg/embedding"
	"context-retriever-be/pkg/metrics"

	"github.com/panjf2000/ants/v2"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	PlaceholderContent = "No documents found"
	PlaceholderSource  = "dummy"
)

var ErrNothingToIngest = errors.New("no content to ingest")

// Report summarizes one ingestion.
type Report struct {
	Sources []string `json:"sources"`
	Chunks  int      `json:"chunks"`
	Failed  int      `json:"failed"`
}

type Pipeline struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	splitter   textsplitter.TextSplitter
	pool       *ants.Pool
	logger     logger.ILogger
}

type Option func(*Pipeline) error

// WithPoolSize sets how many chunks are embedded concurrently.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		if size <= 0 || overlap < 0 || overlap >= size {
			return fmt.Errorf("invalid chunking: size=%d overlap=%d", size, overlap)
		}
		p.splitter = textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
		)
		return nil
	}
}

func NewPipeline(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.EmbeddingProvider,
	log logger.ILogger,
	opts ...Option,
) (*Pipeline, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		uowFactory: uowFactory,
		embedder:   embedder,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(DefaultChunkSize),
			textsplitter.WithChunkOverlap(DefaultChunkOverlap),
		),
		pool:   pool,
		logger: log,
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Release stops the worker pool. The pipeline must not be used afterwards.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Ingest splits and embeds docs, then replaces every touched source's chunks
// (and the placeholder) in one transaction. Chunks whose embedding fails are
// skipped and counted.
func (p *Pipeline) Ingest(ctx context.Context, docs []schema.Document) (*Report, error) {
	chunks, err := textsplitter.SplitDocuments(p.splitter, docs)
	if err != nil {
		return nil, fmt.Errorf("split documents: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNothingToIngest
	}

	embedded, failed := p.embedAll(ctx, chunks)
	if len(embedded) == 0 {
		return nil, fmt.Errorf("all %d chunks failed to embed", failed)
	}

	sources := orderedSources(embedded)
	if err := p.store(ctx, sources, embedded); err != nil {
		return nil, err
	}

	metrics.AddIngested(len(embedded))
	p.logger.Info("Ingestion", "Documents ingested", map[string]interface{}{
		"sources": len(sources),
		"chunks":  len(embedded),
		"failed":  failed,
	})

	return &Report{Sources: sources, Chunks: len(embedded), Failed: failed}, nil
}

func (p *Pipeline) embedAll(ctx context.Context, chunks []schema.Document) ([]*entity.Document, int) {
	results := make([]*entity.Document, len(chunks))
	var wg sync.WaitGroup

	chunkIndex := map[string]int{}
	for i, chunk := range chunks {
		source, _ := chunk.Metadata["source"].(string)
		if source == "" {
			source = "unknown"
		}
		metadata := make(map[string]interface{}, len(chunk.Metadata)+1)
		for k, v := range chunk.Metadata {
			metadata[k] = v
		}
		metadata["chunk_index"] = chunkIndex[source]
		chunkIndex[source]++

		i, content := i, chunk.PageContent
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			resp, err := p.embedder.Generate(ctx, content, embedding.TaskRetrievalDocument)
			if err != nil {
				p.logger.Warn("Ingestion", "Chunk embedding failed", map[string]interface{}{
					"source": source,
					"error":  err.Error(),
				})
				return
			}
			results[i] = &entity.Document{
				Content:   content,
				Source:    source,
				Metadata:  metadata,
				Embedding: resp.Embedding.Values,
			}
		})
		if submitErr != nil {
			wg.Done()
			p.logger.Error("Ingestion", "Worker pool rejected chunk", map[string]interface{}{
				"error": submitErr.Error(),
			})
		}
	}
	wg.Wait()

	embedded := make([]*entity.Document, 0, len(results))
	for _, d := range results {
		if d != nil {
			embedded = append(embedded, d)
		}
	}
	return embedded, len(chunks) - len(embedded)
}

func (p *Pipeline) store(ctx context.Context, sources []string, docs []*entity.Document) (err error) {
	uow := p.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = uow.Rollback()
		}
	}()

	repo := uow.DocumentRepository()
	for _, source := range append([]string{PlaceholderSource}, sources...) {
		if err = repo.DeleteBySource(ctx, source); err != nil {
			return fmt.Errorf("replace source %s: %w", source, err)
		}
	}
	if err = repo.CreateBulk(ctx, docs); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	if err = uow.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// EnsurePlaceholder stores a single "No documents found" document when the
// table is empty, so similarity search always has something to compare against.
func (p *Pipeline) EnsurePlaceholder(ctx context.Context) (bool, error) {
	uow := p.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.DocumentRepository().Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count documents: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	resp, err := p.embedder.Generate(ctx, PlaceholderContent, embedding.TaskRetrievalDocument)
	if err != nil {
		return false, fmt.Errorf("embed placeholder: %w", err)
	}

	doc := &entity.Document{
		Content:   PlaceholderContent,
		Source:    PlaceholderSource,
		Metadata:  map[string]interface{}{"source": PlaceholderSource},
		Embedding: resp.Embedding.Values,
	}
	if err := uow.DocumentRepository().CreateBulk(ctx, []*entity.Document{doc}); err != nil {
		return false, fmt.Errorf("insert placeholder: %w", err)
	}
	return true, nil
}

func orderedSources(docs []*entity.Document) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range docs {
		if !seen[d.Source] {
			seen[d.Source] = true
			out = append(out, d.Source)
		}
	}
	return out
}
