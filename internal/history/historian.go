package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Sink persists a batch of records.
type Sink interface {
	Write(ctx context.Context, batch []Record) error
}

// Popper is the blocking pop the historian reads with; *redis.Client satisfies it.
type Popper interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Historian drains the attempt queue in batches.
type Historian struct {
	queue      Popper
	queueName  string
	sink       Sink
	logger     *log.Logger
	batchSize  int
	flushDelay time.Duration
	popTimeout time.Duration

	mu    sync.Mutex
	batch []Record
}

func NewHistorian(queue Popper, queueName string, sink Sink, batchSize int, flushDelay time.Duration, logger *log.Logger) *Historian {
	if batchSize <= 0 {
		batchSize = 20
	}
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	return &Historian{
		queue:      queue,
		queueName:  queueName,
		sink:       sink,
		logger:     logger,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		popTimeout: time.Second,
		batch:      make([]Record, 0, batchSize),
	}
}

// Run pops records until ctx is cancelled, then flushes what is left.
func (h *Historian) Run(ctx context.Context) {
	ticker := time.NewTicker(h.flushDelay)
	defer ticker.Stop()

	h.logger.WithField("queue", h.queueName).Info("historian started")
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.Flush(flushCtx)
		h.logger.Info("historian stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Flush(ctx)
		default:
			res, err := h.queue.BLPop(ctx, h.popTimeout, h.queueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				h.logger.WithError(err).Error("BLPop failed")
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
				continue
			}
			// res[0] is the list name, res[1] the payload.
			if len(res) < 2 {
				continue
			}
			h.handle(ctx, res[1])
		}
	}
}

func (h *Historian) handle(ctx context.Context, payload string) {
	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		h.logger.WithError(err).Warn("invalid attempt record")
		return
	}
	h.mu.Lock()
	h.batch = append(h.batch, rec)
	full := len(h.batch) >= h.batchSize
	h.mu.Unlock()
	if full {
		h.Flush(ctx)
	}
}

// Flush writes the pending batch. Failed batches are logged and dropped.
func (h *Historian) Flush(ctx context.Context) {
	h.mu.Lock()
	if len(h.batch) == 0 {
		h.mu.Unlock()
		return
	}
	pending := make([]Record, len(h.batch))
	copy(pending, h.batch)
	h.batch = h.batch[:0]
	h.mu.Unlock()

	if err := h.sink.Write(ctx, pending); err != nil {
		h.logger.WithError(err).WithField("count", len(pending)).Error("failed to flush attempts")
		return
	}
	h.logger.WithField("count", len(pending)).Debug("flushed attempts")
}

// PostgresSink inserts records into answer_attempts in one transaction per batch.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

func (s *PostgresSink) Write(ctx context.Context, batch []Record) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batch {
			_, err := tx.Exec(ctx, `
				INSERT INTO answer_attempts (session_id, game_id, round_number, answer, correct, points, attempted_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				rec.SessionID, rec.GameID, rec.Round, rec.Answer, rec.Correct, rec.Points,
				time.UnixMilli(rec.Timestamp).UTC())
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert answer attempts: %w", err)
	}
	return nil
}
