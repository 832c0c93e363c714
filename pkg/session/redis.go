package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each user's turns in a Redis list under "session:<user_id>".
type RedisStore struct {
	rdb         *redis.Client
	ttl         time.Duration
	maxMessages int
	logger      logger.ILogger
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client, ttl time.Duration, maxMessages int, log logger.ILogger) *RedisStore {
	return &RedisStore{
		rdb:         rdb,
		ttl:         ttl,
		maxMessages: maxMessages,
		logger:      log,
	}
}

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	return redis.NewClient(opt)
}

// Append runs LPUSH, LTRIM and EXPIRE in one MULTI block so a reader never sees an untrimmed list.
func (s *RedisStore) Append(ctx context.Context, userID string, record store.TurnRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal turn record: %w", err)
	}

	key := sessionKey(userID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, int64(s.maxMessages-1))
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: append %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, userID string) ([]store.TurnRecord, error) {
	key := sessionKey(userID)
	raw, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []store.TurnRecord{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, key, err)
	}

	records := make([]store.TurnRecord, 0, len(raw))
	for _, item := range raw {
		var rec store.TurnRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			s.logger.Warn("SessionStore", "Skipping malformed turn record", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: clear: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
