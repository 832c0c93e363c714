package database

import (
	"fmt"

	"gorm.io/gorm"
)

// EnsureVectorSchema creates the pgvector extension, migrates the given models
// and builds the cosine ivfflat index on documents.embedding. Safe to re-run.
func EnsureVectorSchema(db *gorm.DB, models ...interface{}) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	indexSQL := `CREATE INDEX IF NOT EXISTS documents_embedding_cosine_idx
		ON documents USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);`
	if err := db.Exec(indexSQL).Error; err != nil {
		return fmt.Errorf("create embedding index: %w", err)
	}
	return nil
}
