package service

import (
	"context"
	"time"

	"context-retriever-be/internal/constant"
	"context-retriever-be/internal/dto"
	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/pkg/events"
	"context-retriever-be/pkg/orchestrator"
	"context-retriever-be/pkg/store"

	"github.com/google/uuid"
)

const publishTimeout = 3 * time.Second

// TurnNotifier pushes a finished turn to the user's other live connections.
type TurnNotifier interface {
	SendToUser(userID string, frame dto.ChatOutbound)
}

type IRetrieverService interface {
	Retrieve(ctx context.Context, userID string, req *dto.RetrieveRequest) (*dto.RetrieveResponse, error)
	RetrieveAsync(ctx context.Context, userID string, query string) <-chan orchestrator.AsyncResult
	Announce(userID string, requestID uuid.UUID, res *store.RetrievalResult)
	History(ctx context.Context, userID string) (*dto.HistoryResponse, error)
	ClearSession(ctx context.Context, userID string) error
}

type retrieverService struct {
	orchestrator orchestrator.IOrchestrator
	publisher    events.Publisher
	notifier     TurnNotifier
	logger       logger.ILogger
}

func NewRetrieverService(
	orch orchestrator.IOrchestrator,
	publisher events.Publisher,
	notifier TurnNotifier,
	log logger.ILogger,
) IRetrieverService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &retrieverService{
		orchestrator: orch,
		publisher:    publisher,
		notifier:     notifier,
		logger:       log,
	}
}

func (s *retrieverService) Retrieve(ctx context.Context, userID string, req *dto.RetrieveRequest) (*dto.RetrieveResponse, error) {
	res, err := s.orchestrator.Retrieve(ctx, req.Query, userID)
	if err != nil {
		return nil, err
	}

	requestID := uuid.New()
	s.Announce(userID, requestID, res)

	return &dto.RetrieveResponse{RequestId: requestID, RetrievalResult: res}, nil
}

func (s *retrieverService) RetrieveAsync(ctx context.Context, userID string, query string) <-chan orchestrator.AsyncResult {
	return s.orchestrator.RetrieveAsync(ctx, query, userID)
}

// Announce publishes the turn on the event bus and to the user's live chat
// connections. Failures are logged only.
func (s *retrieverService) Announce(userID string, requestID uuid.UUID, res *store.RetrievalResult) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := s.publisher.Publish(ctx, events.NewTurnCompleted(res, requestID.String())); err != nil {
			s.logger.Warn("RetrieverService", "Failed to publish turn event", map[string]interface{}{
				"request_id": requestID.String(),
				"error":      err.Error(),
			})
		}
	}()

	if s.notifier != nil {
		s.notifier.SendToUser(userID, dto.ChatOutbound{
			Type: constant.ChatFrameResult,
			Data: dto.RetrieveResponse{RequestId: requestID, RetrievalResult: res},
		})
	}
}

func (s *retrieverService) History(ctx context.Context, userID string) (*dto.HistoryResponse, error) {
	turns, err := s.orchestrator.GetHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewHistoryResponse(userID, turns), nil
}

func (s *retrieverService) ClearSession(ctx context.Context, userID string) error {
	if err := s.orchestrator.ClearSession(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("RetrieverService", "Session cleared", map[string]interface{}{"user_id": userID})
	return nil
}
