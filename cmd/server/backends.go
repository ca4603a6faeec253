package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/thrice/internal/cache"
	"github.com/jason-s-yu/thrice/internal/config"
	"github.com/jason-s-yu/thrice/internal/content"
	"github.com/jason-s-yu/thrice/internal/content/postgres"
	"github.com/jason-s-yu/thrice/internal/content/sqlite"
	"github.com/jason-s-yu/thrice/internal/database"
	"github.com/jason-s-yu/thrice/internal/history"
	"github.com/jason-s-yu/thrice/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// backends holds the stores picked by configuration and the handles they share.
type backends struct {
	content  content.Source
	sessions session.Store
	history  history.Publisher
	sweeper  *session.Sweeper

	pool    *pgxpool.Pool
	rdb     *redis.Client
	closers []func() error
}

func openBackends(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (_ *backends, err error) {
	b := &backends{}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	needPostgres := cfg.ContentBackend == config.BackendPostgres || cfg.SessionBackend == config.BackendPostgres
	if needPostgres {
		if b.pool, err = database.ConnectDB(ctx, database.ConnString(cfg.PostgresURL)); err != nil {
			return nil, err
		}
		if err = database.Migrate(ctx, b.pool); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
	}

	needRedis := cfg.SessionBackend == config.BackendRedis || cfg.HistoryQueue != ""
	if needRedis {
		if b.rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB); err != nil {
			if cfg.SessionBackend == config.BackendRedis {
				return nil, err
			}
			// History is optional; run without it.
			logger.WithError(err).Warn("redis unavailable, answer history disabled")
			b.rdb = nil
		}
	}

	switch cfg.ContentBackend {
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, store.Close)
		b.content = store
	case config.BackendPostgres:
		b.content = postgres.NewStore(b.pool)
	default:
		b.content = content.NewReferenceSource()
	}

	switch cfg.SessionBackend {
	case config.BackendRedis:
		b.sessions = session.NewRedisStore(b.rdb, cfg.RedisPrefix, cfg.SessionTTL)
	case config.BackendPostgres:
		b.sessions = session.NewPostgresStore(b.pool)
	default:
		b.sessions = session.NewMemoryStore()
	}

	b.history = history.Nop{}
	if b.rdb != nil && cfg.HistoryQueue != "" {
		b.history = history.NewRedisPublisher(b.rdb, cfg.HistoryQueue)
	}

	b.sweeper = session.NewSweeper(b.sessions, cfg.SessionTTL, cfg.SweepInterval, logger)

	logger.WithFields(logrus.Fields{
		"content":  cfg.ContentBackend,
		"sessions": cfg.SessionBackend,
		"history":  b.rdb != nil && cfg.HistoryQueue != "",
	}).Info("backends ready")
	return b, nil
}

func (b *backends) Close() {
	for _, c := range b.closers {
		_ = c()
	}
	if b.rdb != nil {
		_ = b.rdb.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}
