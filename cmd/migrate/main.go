package main

import (
	"log"
	"os"

	"context-retriever-be/internal/model"
	"context-retriever-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Setting up pgvector extension, documents table and cosine index...")

	if err := database.EnsureVectorSchema(db, &model.Document{}); err != nil {
		log.Fatalf("Error: migration failed: %v", err)
	}

	var count int64
	if err := db.Model(&model.Document{}).Count(&count).Error; err != nil {
		log.Printf("Warn: could not count documents: %v", err)
	}

	log.Printf("✅ Success: database ready (%d documents stored)", count)
}
