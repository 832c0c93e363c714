package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Document ids are a bigserial so equal-similarity ties break by insertion order.
type Document struct {
	Id        int64             `gorm:"primaryKey;autoIncrement"`
	Content   string            `gorm:"type:text;not null"`
	Source    string            `gorm:"type:varchar(512);not null;default:'unknown';index"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	Embedding pgvector.Vector   `gorm:"type:vector(768)"` // nomic-embed-text and text-embedding-004 both emit 768 dimensions
	CreatedAt time.Time         `gorm:"autoCreateTime"`
}

func (Document) TableName() string {
	return "documents"
}
