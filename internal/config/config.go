package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"context-retriever-be/pkg/store"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Retrieval RetrievalConfig
	Web       WebConfig
	Ingest    IngestConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
	DefaultUserID      string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "gemini"
	OllamaBaseURL     string
	OllamaModel       string // embedding model
	LLMProvider       string // "ollama"
	LLMModel          string // e.g. "llama3.2", "qwen2.5"
}

type RetrievalConfig struct {
	MaxDocs             int
	SimilarityThreshold float64
	WebSearchMaxResults int
	SessionTTL          time.Duration
	MaxSessionMessages  int
	ConfidenceThreshold float64
	ClassifierTimeout   time.Duration
	BackendTimeout      time.Duration
	SessionTimeout      time.Duration
	SessionBackend      string // "redis" or "memory"
}

type WebConfig struct {
	Endpoint string
	Attempts int
}

type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	Workers      int
	UploadTopic  string
}

type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	d := store.DefaultRetrievalConfig()

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			DefaultUserID:      getEnv("DEFAULT_USER_ID", "default_user"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3.2"),
		},
		Retrieval: RetrievalConfig{
			MaxDocs:             getEnvAsInt("RETRIEVAL_MAX_DOCS", d.MaxDocs),
			SimilarityThreshold: getEnvAsFloat("RETRIEVAL_SIMILARITY_THRESHOLD", d.SimilarityThreshold),
			WebSearchMaxResults: getEnvAsInt("RETRIEVAL_WEB_MAX_RESULTS", d.WebSearchMaxResults),
			SessionTTL:          getEnvAsDuration("RETRIEVAL_SESSION_TTL", d.SessionTTL),
			MaxSessionMessages:  getEnvAsInt("RETRIEVAL_MAX_SESSION_MESSAGES", d.MaxSessionMessages),
			ConfidenceThreshold: getEnvAsFloat("RETRIEVAL_CONFIDENCE_THRESHOLD", d.ConfidenceThreshold),
			ClassifierTimeout:   getEnvAsDuration("RETRIEVAL_CLASSIFIER_TIMEOUT", d.ClassifierTimeout),
			BackendTimeout:      getEnvAsDuration("RETRIEVAL_BACKEND_TIMEOUT", d.BackendTimeout),
			SessionTimeout:      getEnvAsDuration("RETRIEVAL_SESSION_TIMEOUT", d.SessionTimeout),
			SessionBackend:      getEnv("SESSION_BACKEND", "redis"),
		},
		Web: WebConfig{
			Endpoint: getEnv("WEB_SEARCH_ENDPOINT", "https://api.duckduckgo.com/"),
			Attempts: atLeast(getEnvAsInt("WEB_SEARCH_ATTEMPTS", 3), 1),
		},
		Ingest: IngestConfig{
			ChunkSize:    getEnvAsInt("INGEST_CHUNK_SIZE", 1000),
			ChunkOverlap: getEnvAsInt("INGEST_CHUNK_OVERLAP", 200),
			Workers:      getEnvAsInt("INGEST_WORKERS", 4),
			UploadTopic:  getEnv("INGEST_UPLOAD_TOPIC", "DOCUMENT_UPLOADED"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnv("OTEL_ENABLED", "") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
	}
}

// Core converts the retrieval section into the orchestrator's config record.
func (r RetrievalConfig) Core() store.RetrievalConfig {
	return store.RetrievalConfig{
		MaxDocs:             r.MaxDocs,
		SimilarityThreshold: r.SimilarityThreshold,
		WebSearchMaxResults: r.WebSearchMaxResults,
		SessionTTL:          r.SessionTTL,
		MaxSessionMessages:  r.MaxSessionMessages,
		ConfidenceThreshold: r.ConfidenceThreshold,
		ClassifierTimeout:   r.ClassifierTimeout,
		BackendTimeout:      r.BackendTimeout,
		SessionTimeout:      r.SessionTimeout,
	}.Normalize()
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// atLeast clamps values that would wrap or disable a counter.
func atLeast(value, floor int) int {
	if value < floor {
		return floor
	}
	return value
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30m") or plain seconds ("1800").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
