// Package session stores game sessions and serializes their mutations.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/thrice/internal/models"
)

// ErrNotFound is returned when no session matches the lookup.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 24 * time.Hour

// MutateFunc edits a private copy of a session. Returning an error discards the edit.
type MutateFunc func(s *models.GameSession) error

// Store keeps sessions by id. Mutate is the only write path after Create and
// is atomic per session id.
type Store interface {
	// Create assigns s a fresh id, version and timestamps, then stores it.
	Create(ctx context.Context, s *models.GameSession) error
	Get(ctx context.Context, id string) (*models.GameSession, error)
	// Mutate applies fn to the stored session and persists the result with a bumped version.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*models.GameSession, error)
	// FindByPlayer returns the newest session of userID for gameID.
	FindByPlayer(ctx context.Context, gameID int64, userID string) (*models.GameSession, error)
	// Sweep deletes sessions last updated before cutoff and reports how many went.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// NewID returns a session id of the form session_<unix millis>_<uuid>.
func NewID(now time.Time) string {
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), uuid.NewString())
}

// prepare stamps a new session before its first write.
func prepare(s *models.GameSession, now time.Time) {
	s.ID = NewID(now)
	s.Version = 1
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.History == nil {
		s.History = []models.AnswerAttempt{}
	}
}

// apply runs fn on a copy of cur and returns the next stored state.
func apply(cur *models.GameSession, fn MutateFunc, now time.Time) (*models.GameSession, error) {
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	next.Version = cur.Version + 1
	next.UpdatedAt = now
	return next, nil
}
