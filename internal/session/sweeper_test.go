package session

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jason-s-yu/thrice/internal/models"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSweeperRunOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return start }

	s := models.NewGameSession(1, "")
	require.NoError(t, store.Create(ctx, s))

	sw := NewSweeper(store, time.Hour, time.Minute, quietLogger())
	assert.Equal(t, 0, sw.RunOnce(ctx, start.Add(30*time.Minute)))
	assert.Equal(t, 1, sw.RunOnce(ctx, start.Add(2*time.Hour)))

	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweeperStartStop(t *testing.T) {
	sw := NewSweeper(NewMemoryStore(), time.Hour, time.Hour, quietLogger())
	require.NoError(t, sw.Start())
	assert.NoError(t, sw.Stop())
}
