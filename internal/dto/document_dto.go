package dto

import (
	"time"

	"github.com/google/uuid"
)

// DocumentUploadedMessage is the in-process bus payload for an upload waiting to be ingested.
type DocumentUploadedMessage struct {
	JobId    uuid.UUID `json:"job_id"`
	FileName string    `json:"file_name"`
	Content  []byte    `json:"content"`
}

type UploadDocumentResponse struct {
	JobId    uuid.UUID `json:"job_id"`
	FileName string    `json:"file_name"`
	Status   string    `json:"status"`
}

type SourceStatResponse struct {
	Source string `json:"source"`
	Chunks int64  `json:"chunks"`
}

type DocumentStatsResponse struct {
	TotalDocuments int64                `json:"total_documents"`
	Sources        []SourceStatResponse `json:"sources"`
}

type DocumentSearchRequest struct {
	Query string `query:"q" validate:"required,max=4000"`
}

type ListDocumentsRequest struct {
	Source   string `query:"source" validate:"omitempty,max=255"`
	Contains string `query:"contains" validate:"omitempty,max=200"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset   int    `query:"offset" validate:"omitempty,min=0"`
}

type DocumentResponse struct {
	Id        int64                  `json:"id"`
	Source    string                 `json:"source"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
