// Package session keeps the bounded, expiring per-user log of retrieval turns.
package session

import (
	"context"
	"errors"

	"context-retriever-be/pkg/store"
)

// ErrUnavailable wraps any backing-store failure. Callers treat it as a
// degraded-mode signal, never as a reason to fail the turn.
var ErrUnavailable = errors.New("session store unavailable")

// Store is a per-user ordered log of turns, newest first.
//
// Append pushes the record at the head, trims the log to the configured maximum
// and refreshes the expiry. History returns an empty slice for unknown or expired
// users. Clear is idempotent. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, userID string, record store.TurnRecord) error
	History(ctx context.Context, userID string) ([]store.TurnRecord, error)
	Clear(ctx context.Context, userID string) error
}

func sessionKey(userID string) string {
	return "session:" + userID
}
