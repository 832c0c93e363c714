package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"context-retriever-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

const lockStripes = 64

// MemoryStore is the in-process Store used when Redis is not configured.
// Expiry is handled by go-cache; read-modify-write on one user is guarded by a
// striped lock so different users rarely contend.
type MemoryStore struct {
	cache       *cache.Cache
	ttl         time.Duration
	maxMessages int
	locks       [lockStripes]sync.Mutex
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration, maxMessages int) *MemoryStore {
	// Purge expired sessions every 10 minutes
	return &MemoryStore{
		cache:       cache.New(ttl, 10*time.Minute),
		ttl:         ttl,
		maxMessages: maxMessages,
	}
}

func (s *MemoryStore) lockFor(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *MemoryStore) load(key string) []store.TurnRecord {
	if x, found := s.cache.Get(key); found {
		return x.([]store.TurnRecord)
	}
	return nil
}

func (s *MemoryStore) Append(_ context.Context, userID string, record store.TurnRecord) error {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	key := sessionKey(userID)
	existing := s.load(key)

	size := len(existing) + 1
	if size > s.maxMessages {
		size = s.maxMessages
	}

	// Stored slices are never mutated in place; readers may still hold the old one.
	next := make([]store.TurnRecord, 0, size)
	next = append(next, record)
	for _, rec := range existing {
		if len(next) == size {
			break
		}
		next = append(next, rec)
	}

	s.cache.Set(key, next, s.ttl)
	return nil
}

func (s *MemoryStore) History(_ context.Context, userID string) ([]store.TurnRecord, error) {
	existing := s.load(sessionKey(userID))
	out := make([]store.TurnRecord, len(existing))
	copy(out, existing)
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	s.cache.Delete(sessionKey(userID))
	return nil
}
