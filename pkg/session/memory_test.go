package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"context-retriever-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(query string) store.TurnRecord {
	return store.TurnRecord{
		Timestamp:    time.Now(),
		QueryText:    query,
		StrategyUsed: store.StrategyIndexed,
	}
}

func TestMemoryStore_AppendThenHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 10)

	require.NoError(t, s.Append(ctx, "alice", turn("first")))
	require.NoError(t, s.Append(ctx, "alice", turn("second")))

	history, err := s.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].QueryText)
	assert.Equal(t, "first", history[1].QueryText)
}

func TestMemoryStore_TrimsToMaxMessages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 3)

	for i := 0; i < 7; i++ {
		require.NoError(t, s.Append(ctx, "bob", turn(fmt.Sprintf("q%d", i))))

		history, err := s.History(ctx, "bob")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(history), 3)
	}

	history, err := s.History(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"q6", "q5", "q4"}, []string{history[0].QueryText, history[1].QueryText, history[2].QueryText})
}

func TestMemoryStore_UnknownUserIsEmpty(t *testing.T) {
	history, err := NewMemoryStore(time.Minute, 10).History(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(50*time.Millisecond, 10)

	require.NoError(t, s.Append(ctx, "carol", turn("short lived")))
	time.Sleep(120 * time.Millisecond)

	history, err := s.History(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryStore_AppendExtendsExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(100*time.Millisecond, 10)

	require.NoError(t, s.Append(ctx, "carol", turn("first")))
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, s.Append(ctx, "carol", turn("second")))
	time.Sleep(60 * time.Millisecond)

	history, err := s.History(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].QueryText)
	assert.Equal(t, "first", history[1].QueryText)
}

func TestMemoryStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 10)
	require.NoError(t, s.Append(ctx, "dave", turn("hello")))

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Clear(ctx, "dave"))
		history, err := s.History(ctx, "dave")
		require.NoError(t, err)
		assert.Empty(t, history)
	}
}

func TestMemoryStore_HistoryIsASnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 10)
	require.NoError(t, s.Append(ctx, "erin", turn("one")))

	snapshot, err := s.History(ctx, "erin")
	require.NoError(t, err)
	snapshot[0].QueryText = "mutated"

	history, err := s.History(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, "one", history[0].QueryText)
}

func TestMemoryStore_ConcurrentUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 100)

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_ = s.Append(ctx, user, turn(fmt.Sprintf("%s-%d", user, i)))
			}
		}(fmt.Sprintf("user-%d", u))
	}
	wg.Wait()

	for u := 0; u < 8; u++ {
		user := fmt.Sprintf("user-%d", u)
		history, err := s.History(ctx, user)
		require.NoError(t, err)
		require.Len(t, history, 20)
		assert.Equal(t, user+"-19", history[0].QueryText)
		assert.Equal(t, user+"-0", history[19].QueryText)
	}
}

func TestMemoryStore_ConcurrentSameUserLosesNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(ctx, "shared", turn(fmt.Sprintf("q%d", i)))
		}(i)
	}
	wg.Wait()

	history, err := s.History(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, history, 50)
}
