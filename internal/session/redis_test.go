package session

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/thrice/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("THRICE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("THRICE_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, rdb.Ping(ctx).Err())

	return NewRedisStore(rdb, "thrice_test:"+time.Now().Format("150405.000")+":", time.Minute)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	s := models.NewGameSession(3, "dana")
	require.NoError(t, store.Create(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, 1, got.RevealedClues)

	byPlayer, err := store.FindByPlayer(ctx, 3, "dana")
	require.NoError(t, err)
	assert.Equal(t, s.ID, byPlayer.ID)

	_, err = store.Get(ctx, "session_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreConcurrentMutate(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	s := models.NewGameSession(3, "")
	require.NoError(t, store.Create(ctx, s))

	const workers = 5
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Mutate(ctx, s.ID, func(cur *models.GameSession) error {
				cur.Score++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, got.Score)
	assert.Equal(t, int64(workers+1), got.Version)
}
