package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"context-retriever-be/internal/config"
	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/internal/repository/implementation"
	"context-retriever-be/internal/repository/unitofwork"
	"context-retriever-be/pkg/backend"
	"context-retriever-be/pkg/classifier"
	"context-retriever-be/pkg/embedding"
	"context-retriever-be/pkg/ingest"
	"context-retriever-be/pkg/llm/factory"
	"context-retriever-be/pkg/orchestrator"
	"context-retriever-be/pkg/session"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Core is the retrieval engine without any transport: shared by the REST
// server and the command line tools.
type Core struct {
	DB           *gorm.DB
	Logger       logger.ILogger
	UowFactory   unitofwork.RepositoryFactory
	Embedder     embedding.EmbeddingProvider
	Indexed      backend.Backend
	Web          backend.Backend
	Sessions     session.Store
	Redis        *redis.Client // nil when the memory session backend is used
	Orchestrator *orchestrator.Orchestrator
	Pipeline     *ingest.Pipeline
}

func NewCore(db *gorm.DB, cfg *config.Config, log logger.ILogger) (*Core, error) {
	core := cfg.Retrieval.Core()
	uowFactory := unitofwork.NewRepositoryFactory(db)

	embedder, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OllamaModel,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	log.Info("Bootstrap", "Embedding provider ready", map[string]interface{}{"provider": cfg.Ai.EmbeddingProvider})

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	log.Info("Bootstrap", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	var (
		sessions session.Store
		rdb      *redis.Client
	)
	switch cfg.Retrieval.SessionBackend {
	case "memory":
		sessions = session.NewMemoryStore(core.SessionTTL, core.MaxSessionMessages)
	default:
		rdb = session.NewRedisClient(cfg.App.RedisURL)
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// Turns still run; session reads and writes degrade until Redis is back.
			log.Warn("Bootstrap", "Redis not reachable at startup", map[string]interface{}{"error": err.Error()})
		}
		cancel()
		sessions = session.NewRedisStore(rdb, core.SessionTTL, core.MaxSessionMessages, log)
	}

	indexed := backend.Instrument(backend.NewIndexedBackend(
		implementation.NewDocumentRepository(db),
		embedder,
		core.MaxDocs,
		core.SimilarityThreshold,
		log,
	))
	web := backend.Instrument(backend.NewWebBackend(
		core.WebSearchMaxResults,
		log,
		backend.WithEndpoint(cfg.Web.Endpoint),
		backend.WithAttempts(uint(cfg.Web.Attempts)),
		backend.WithHTTPClient(&http.Client{Timeout: core.BackendTimeout}),
	))

	cls := classifier.NewClassifier(llmProvider, core.ClassifierTimeout, log)
	orch := orchestrator.New(core, cls, indexed, web, sessions, log)

	pipeline, err := ingest.NewPipeline(uowFactory, embedder, log,
		ingest.WithPoolSize(cfg.Ingest.Workers),
		ingest.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
	)
	if err != nil {
		return nil, fmt.Errorf("ingest pipeline: %w", err)
	}

	return &Core{
		DB:           db,
		Logger:       log,
		UowFactory:   uowFactory,
		Embedder:     embedder,
		Indexed:      indexed,
		Web:          web,
		Sessions:     sessions,
		Redis:        rdb,
		Orchestrator: orch,
		Pipeline:     pipeline,
	}, nil
}

func (c *Core) Close() {
	c.Pipeline.Release()
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if sqlDB, err := c.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = c.Logger.Sync()
}
