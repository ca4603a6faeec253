package session

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// Sweeper periodically deletes sessions idle for longer than the TTL.
type Sweeper struct {
	store    Store
	ttl      time.Duration
	interval time.Duration
	logger   *log.Logger
	sched    gocron.Scheduler
}

func NewSweeper(store Store, ttl, interval time.Duration, logger *log.Logger) *Sweeper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{store: store, ttl: ttl, interval: interval, logger: logger}
}

// Start schedules the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			defer cancel()
			s.RunOnce(ctx, time.Now().UTC())
		}),
	)
	if err != nil {
		_ = sched.Shutdown()
		return err
	}
	sched.Start()
	s.sched = sched
	return nil
}

// RunOnce evicts sessions last updated before now minus the TTL.
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) int {
	n, err := s.store.Sweep(ctx, now.Add(-s.ttl))
	if err != nil {
		s.logger.WithError(err).Error("session sweep failed")
		return 0
	}
	if n > 0 {
		s.logger.WithField("evicted", n).Info("swept idle sessions")
	}
	return n
}

func (s *Sweeper) Stop() error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}
