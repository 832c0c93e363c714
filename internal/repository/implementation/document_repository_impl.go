package implementation

import (
	"context"

	"context-retriever-be/internal/entity"
	"context-retriever-be/internal/mapper"
	"context-retriever-be/internal/model"
	"context-retriever-be/internal/repository/contract"
	"context-retriever-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const insertBatchSize = 100

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentRepositoryImpl) CreateBulk(ctx context.Context, docs []*entity.Document) error {
	if len(docs) == 0 {
		return nil
	}
	models := make([]*model.Document, len(docs))
	for i, d := range docs {
		models[i] = r.mapper.ToModel(d)
	}

	if err := r.db.WithContext(ctx).CreateInBatches(models, insertBatchSize).Error; err != nil {
		return err
	}

	for i, m := range models {
		docs[i].Id = m.Id
		docs[i].CreatedAt = m.CreatedAt
	}
	return nil
}

func (r *DocumentRepositoryImpl) DeleteBySource(ctx context.Context, source string) error {
	return r.db.WithContext(ctx).Where("source = ?", source).Delete(&model.Document{}).Error
}

func (r *DocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	var models []*model.Document
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Document{}).Count(&count).Error
	return count, err
}

func (r *DocumentRepositoryImpl) Sources(ctx context.Context) ([]contract.SourceCount, error) {
	var rows []contract.SourceCount
	err := r.db.WithContext(ctx).
		Model(&model.Document{}).
		Select("source, COUNT(*) as count").
		Group("source").
		Order("count DESC, source ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *DocumentRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredDocument, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity
	type result struct {
		model.Document
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("documents").
		Select("documents.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("embedding IS NOT NULL").
		Where("1 - (embedding <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC, id ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredDocument, len(results))
	for i := range results {
		scored[i] = &contract.ScoredDocument{
			Document:   r.mapper.ToEntity(&results[i].Document),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
