package service

import (
	"context"
	"errors"
	"strings"

	"context-retriever-be/internal/dto"
	"context-retriever-be/internal/entity"
	"context-retriever-be/internal/repository/specification"
	"context-retriever-be/internal/repository/unitofwork"
	"context-retriever-be/pkg/backend"
	"context-retriever-be/pkg/store"
)

const defaultListLimit = 20

var ErrDocumentNotFound = errors.New("document not found")

type IDocumentService interface {
	Stats(ctx context.Context) (*dto.DocumentStatsResponse, error)
	Search(ctx context.Context, query string) ([]store.Document, error)
	List(ctx context.Context, req *dto.ListDocumentsRequest) ([]dto.DocumentResponse, error)
	Show(ctx context.Context, id int64) (*dto.DocumentResponse, error)
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	indexed    backend.Backend
}

func NewDocumentService(uowFactory unitofwork.RepositoryFactory, indexed backend.Backend) IDocumentService {
	return &documentService{
		uowFactory: uowFactory,
		indexed:    indexed,
	}
}

func (s *documentService) Stats(ctx context.Context) (*dto.DocumentStatsResponse, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).DocumentRepository()

	total, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := repo.Sources(ctx)
	if err != nil {
		return nil, err
	}

	res := &dto.DocumentStatsResponse{
		TotalDocuments: total,
		Sources:        make([]dto.SourceStatResponse, 0, len(sources)),
	}
	for _, src := range sources {
		res.Sources = append(res.Sources, dto.SourceStatResponse{Source: src.Source, Chunks: src.Count})
	}
	return res, nil
}

// Search runs the indexed backend alone, bypassing classification and session history.
func (s *documentService) Search(ctx context.Context, query string) ([]store.Document, error) {
	if strings.TrimSpace(query) == "" {
		return []store.Document{}, nil
	}
	return s.indexed.Search(ctx, query), nil
}

func (s *documentService) List(ctx context.Context, req *dto.ListDocumentsRequest) ([]dto.DocumentResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	specs := []specification.Specification{}
	if req.Source != "" {
		specs = append(specs, specification.BySource{Source: req.Source})
	}
	if req.Contains != "" {
		specs = append(specs, specification.ContentContains{Query: req.Contains})
	}
	specs = append(specs,
		specification.OrderBy{Field: "id", Desc: false},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)

	docs, err := s.uowFactory.NewUnitOfWork(ctx).DocumentRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		res = append(res, toDocumentResponse(d))
	}
	return res, nil
}

func (s *documentService) Show(ctx context.Context, id int64) (*dto.DocumentResponse, error) {
	docs, err := s.uowFactory.NewUnitOfWork(ctx).DocumentRepository().FindAll(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrDocumentNotFound
	}
	res := toDocumentResponse(docs[0])
	return &res, nil
}

func toDocumentResponse(d *entity.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		Id:        d.Id,
		Source:    d.Source,
		Content:   d.Content,
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt,
	}
}
