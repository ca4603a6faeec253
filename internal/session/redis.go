package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jason-s-yu/thrice/internal/models"
	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 10

// RedisStore keeps each session as a JSON string that expires after the TTL.
// Mutations use WATCH/MULTI and retry when another writer got there first.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a store writing keys under prefix. A ttl of zero means DefaultTTL.
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) sessionKey(id string) string {
	return r.prefix + "session:" + id
}

func (r *RedisStore) playerKey(gameID int64, userID string) string {
	return r.prefix + "player:" + strconv.FormatInt(gameID, 10) + ":" + userID
}

func (r *RedisStore) Create(ctx context.Context, s *models.GameSession) error {
	prepare(s, time.Now().UTC())
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(s.ID), data, r.ttl)
		if s.UserID != "" {
			pipe.Set(ctx, r.playerKey(s.GameID, s.UserID), s.ID, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*models.GameSession, error) {
	return r.load(ctx, r.rdb, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) load(ctx context.Context, c getter, id string) (*models.GameSession, error) {
	data, err := c.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	var s models.GameSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) Mutate(ctx context.Context, id string, fn MutateFunc) (*models.GameSession, error) {
	key := r.sessionKey(id)
	var out *models.GameSession

	txf := func(tx *redis.Tx) error {
		cur, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := apply(cur, fn, time.Now().UTC())
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			if next.UserID != "" {
				pipe.Expire(ctx, r.playerKey(next.GameID, next.UserID), r.ttl)
			}
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("mutate session %s: %w", id, redis.TxFailedErr)
}

func (r *RedisStore) FindByPlayer(ctx context.Context, gameID int64, userID string) (*models.GameSession, error) {
	id, err := r.rdb.Get(ctx, r.playerKey(gameID, userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get player index: %w", err)
	}
	return r.Get(ctx, id)
}

// Sweep is a no-op; Redis expires idle keys on its own.
func (r *RedisStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

var _ Store = (*RedisStore)(nil)
