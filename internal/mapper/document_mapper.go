package mapper

import (
	"context-retriever-be/internal/entity"
	"context-retriever-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var metadata map[string]interface{}
	if len(d.Metadata) > 0 {
		metadata = make(map[string]interface{}, len(d.Metadata))
		for k, v := range d.Metadata {
			metadata[k] = v
		}
	}

	return &entity.Document{
		Id:        d.Id,
		Content:   d.Content,
		Source:    d.Source,
		Metadata:  metadata,
		Embedding: d.Embedding.Slice(),
		CreatedAt: d.CreatedAt,
	}
}

func (m *DocumentMapper) ToModel(e *entity.Document) *model.Document {
	if e == nil {
		return nil
	}

	source := e.Source
	if source == "" {
		source = "unknown"
	}

	var metadata datatypes.JSONMap
	if e.Metadata != nil {
		metadata = datatypes.JSONMap(e.Metadata)
	}

	return &model.Document{
		Id:        e.Id,
		Content:   e.Content,
		Source:    source,
		Metadata:  metadata,
		Embedding: pgvector.NewVector(e.Embedding),
		CreatedAt: e.CreatedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
