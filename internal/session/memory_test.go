package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/thrice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDFormat(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := NewID(now)
	assert.True(t, strings.HasPrefix(id, "session_1700000000123_"), id)
	assert.NotEqual(t, id, NewID(now))
}

func TestMemoryStoreCreateGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := models.NewGameSession(1, "alice")
	require.NoError(t, store.Create(ctx, s))
	require.NotEmpty(t, s.ID)
	assert.Equal(t, int64(1), s.Version)
	assert.False(t, s.CreatedAt.IsZero())

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	// The store hands out copies.
	got.Score = 99
	again, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Score)

	_, err = store.Get(ctx, "session_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreMutate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := models.NewGameSession(1, "")
	require.NoError(t, store.Create(ctx, s))

	next, err := store.Mutate(ctx, s.ID, func(cur *models.GameSession) error {
		cur.Score += 3
		cur.ID = "tampered"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, next.Score)
	assert.Equal(t, s.ID, next.ID)
	assert.Equal(t, int64(2), next.Version)

	boom := errors.New("boom")
	_, err = store.Mutate(ctx, s.ID, func(cur *models.GameSession) error {
		cur.Score = 100
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Score)
	assert.Equal(t, int64(2), got.Version)

	_, err = store.Mutate(ctx, "session_missing", func(*models.GameSession) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreConcurrentMutate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := models.NewGameSession(1, "")
	require.NoError(t, store.Create(ctx, s))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Mutate(ctx, s.ID, func(cur *models.GameSession) error {
				cur.Score++
				cur.History = append(cur.History, models.AnswerAttempt{Answer: "x"})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, got.Score)
	assert.Len(t, got.History, workers)
	assert.Equal(t, int64(workers+1), got.Version)
}

func TestMemoryStoreFindByPlayer(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := models.NewGameSession(7, "bob")
	require.NoError(t, store.Create(ctx, first))
	second := models.NewGameSession(7, "bob")
	require.NoError(t, store.Create(ctx, second))
	other := models.NewGameSession(8, "bob")
	require.NoError(t, store.Create(ctx, other))

	got, err := store.FindByPlayer(ctx, 7, "bob")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	got, err = store.FindByPlayer(ctx, 8, "bob")
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)

	_, err = store.FindByPlayer(ctx, 7, "carol")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	old := models.NewGameSession(1, "old")
	require.NoError(t, store.Create(ctx, old))

	clock = clock.Add(2 * time.Hour)
	fresh := models.NewGameSession(1, "fresh")
	require.NoError(t, store.Create(ctx, fresh))

	n, err := store.Sweep(ctx, clock.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.FindByPlayer(ctx, 1, "old")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}
