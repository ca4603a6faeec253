// Package history ships answer attempts to long-term storage. The API server
// publishes them to a Redis list and the historian drains that list into Postgres.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/thrice/internal/models"
	"github.com/redis/go-redis/v9"
)

// Record is one answer attempt as queued for the historian.
type Record struct {
	SessionID string `json:"session_id"`
	GameID    int64  `json:"game_id"`
	Round     int    `json:"round"`
	Answer    string `json:"answer"`
	Correct   bool   `json:"correct"`
	Points    int    `json:"points"`
	Timestamp int64  `json:"timestamp"` // epoch millis
}

// FromAttempt builds the queue record of an attempt made in session s.
func FromAttempt(s *models.GameSession, a models.AnswerAttempt) Record {
	return Record{
		SessionID: s.ID,
		GameID:    s.GameID,
		Round:     a.Round,
		Answer:    a.Answer,
		Correct:   a.Correct,
		Points:    a.Points,
		Timestamp: a.Timestamp.UnixMilli(),
	}
}

// Publisher hands attempt records to the history pipeline.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}

// Nop drops every record.
type Nop struct{}

func (Nop) Publish(context.Context, Record) error { return nil }

// RedisPublisher RPushes records as JSON onto a Redis list.
type RedisPublisher struct {
	rdb   *redis.Client
	queue string
}

func NewRedisPublisher(rdb *redis.Client, queue string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, queue: queue}
}

func (p *RedisPublisher) Publish(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt record: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}
