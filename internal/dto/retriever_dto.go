package dto

import (
	"time"

	"context-retriever-be/pkg/store"

	"github.com/google/uuid"
)

type RetrieveRequest struct {
	Query  string `json:"query" validate:"required,max=4000"`
	UserId string `json:"user_id" validate:"omitempty,max=128"`
}

type RetrieveResponse struct {
	RequestId uuid.UUID `json:"request_id"`
	*store.RetrievalResult
}

type HistoryTurnResponse struct {
	Timestamp     time.Time `json:"timestamp"`
	Query         string    `json:"query"`
	StrategyUsed  string    `json:"strategy_used"`
	DocumentCount int       `json:"document_count"`
	Reasoning     string    `json:"reasoning"`
	KeyPoints     []string  `json:"key_points"`
}

type HistoryResponse struct {
	UserId string                `json:"user_id"`
	Turns  []HistoryTurnResponse `json:"turns"`
}

func NewHistoryResponse(userID string, turns []store.TurnRecord) *HistoryResponse {
	res := &HistoryResponse{
		UserId: userID,
		Turns:  make([]HistoryTurnResponse, 0, len(turns)),
	}
	for _, t := range turns {
		res.Turns = append(res.Turns, HistoryTurnResponse{
			Timestamp:     t.Timestamp,
			Query:         t.QueryText,
			StrategyUsed:  string(t.StrategyUsed),
			DocumentCount: t.DocumentCount,
			Reasoning:     t.Reasoning,
			KeyPoints:     t.KeyExcerpts,
		})
	}
	return res
}
