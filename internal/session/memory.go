package session

import (
	"context"
	"sync"
	"time"

	"github.com/jason-s-yu/thrice/internal/models"
)

type playerKey struct {
	gameID int64
	userID string
}

// MemoryStore keeps sessions in process memory behind one mutex.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.GameSession
	players  map[playerKey]string
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.GameSession),
		players:  make(map[playerKey]string),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Create(ctx context.Context, s *models.GameSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prepare(s, m.now())
	m.sessions[s.ID] = s.Clone()
	if s.UserID != "" {
		m.players[playerKey{s.GameID, s.UserID}] = s.ID
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Mutate(ctx context.Context, id string, fn MutateFunc) (*models.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	next, err := apply(cur, fn, m.now())
	if err != nil {
		return nil, err
	}
	m.sessions[id] = next
	return next.Clone(), nil
}

func (m *MemoryStore) FindByPlayer(ctx context.Context, gameID int64, userID string) (*models.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.players[playerKey{gameID, userID}]
	if !ok {
		return nil, ErrNotFound
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if !s.UpdatedAt.Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		key := playerKey{s.GameID, s.UserID}
		if m.players[key] == id {
			delete(m.players, key)
		}
		n++
	}
	return n, nil
}

var _ Store = (*MemoryStore)(nil)
