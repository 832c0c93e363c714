package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"context-retriever-be/internal/dto"
	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/pkg/events"
	"context-retriever-be/pkg/ingest"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"
)

const maxIngestAttempts = 3

// DocumentIngester is the part of ingest.Pipeline the service needs.
type DocumentIngester interface {
	Ingest(ctx context.Context, docs []schema.Document) (*ingest.Report, error)
}

type IIngestionService interface {
	Upload(ctx context.Context, fileName string, content []byte) (*dto.UploadDocumentResponse, error)
	Consume(ctx context.Context) error
}

type ingestionService struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topicName  string
	ingester   DocumentIngester
	events     events.Publisher
	logger     logger.ILogger

	// redelivered copies keep the message UUID, so attempts are counted per UUID
	attemptsMu sync.Mutex
	attempts   map[string]int
}

func NewIngestionService(
	publisher message.Publisher,
	subscriber message.Subscriber,
	topicName string,
	ingester DocumentIngester,
	eventPublisher events.Publisher,
	log logger.ILogger,
) IIngestionService {
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &ingestionService{
		publisher:  publisher,
		subscriber: subscriber,
		topicName:  topicName,
		ingester:   ingester,
		events:     eventPublisher,
		logger:     log,
		attempts:   make(map[string]int),
	}
}

// Upload queues a file for background ingestion and returns its job id.
func (s *ingestionService) Upload(ctx context.Context, fileName string, content []byte) (*dto.UploadDocumentResponse, error) {
	fileName = filepath.Base(fileName)
	if !ingest.Supported(fileName) {
		return nil, fmt.Errorf("%w %q", ingest.ErrUnsupportedFile, filepath.Ext(fileName))
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ingest.ErrNothingToIngest
	}

	jobID := uuid.New()
	payload, err := json.Marshal(dto.DocumentUploadedMessage{
		JobId:    jobID,
		FileName: fileName,
		Content:  content,
	})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := s.publisher.Publish(s.topicName, msg); err != nil {
		return nil, fmt.Errorf("queue upload: %w", err)
	}

	s.logger.Info("IngestionService", "Upload queued", map[string]interface{}{
		"job_id":    jobID.String(),
		"file_name": fileName,
		"bytes":     len(content),
	})

	return &dto.UploadDocumentResponse{JobId: jobID, FileName: fileName, Status: "queued"}, nil
}

func (s *ingestionService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *ingestionService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.DocumentUploadedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("IngestionService", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	details := map[string]interface{}{
		"job_id":    payload.JobId.String(),
		"file_name": payload.FileName,
	}

	docs, err := ingest.LoadReader(ctx, payload.FileName, bytes.NewReader(payload.Content))
	if err != nil {
		details["error"] = err.Error()
		s.logger.Error("IngestionService", "Failed to load upload", details)
		msg.Ack()
		return
	}

	report, err := s.ingester.Ingest(ctx, docs)
	if err != nil {
		details["error"] = err.Error()
		if errors.Is(err, ingest.ErrNothingToIngest) || !s.retry(msg.UUID) {
			s.forget(msg.UUID)
			s.logger.Error("IngestionService", "Ingestion failed, giving up", details)
			msg.Ack()
			return
		}
		s.logger.Warn("IngestionService", "Ingestion failed, will retry", details)
		msg.Nack()
		return
	}

	if err := s.events.Publish(ctx, events.NewDocumentIngested(payload.JobId.String(), report.Sources, report.Chunks, report.Failed)); err != nil {
		s.logger.Warn("IngestionService", "Failed to publish ingestion event", map[string]interface{}{"error": err.Error()})
	}

	s.forget(msg.UUID)
	details["chunks"] = report.Chunks
	details["failed"] = report.Failed
	s.logger.Info("IngestionService", "Upload ingested", details)
	msg.Ack()
}

// retry counts a failed delivery and reports whether another one is allowed.
func (s *ingestionService) retry(msgID string) bool {
	s.attemptsMu.Lock()
	defer s.attemptsMu.Unlock()
	s.attempts[msgID]++
	return s.attempts[msgID] < maxIngestAttempts
}

func (s *ingestionService) forget(msgID string) {
	s.attemptsMu.Lock()
	delete(s.attempts, msgID)
	s.attemptsMu.Unlock()
}
