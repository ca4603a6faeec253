// Package config holds the flag and environment settings shared by the binaries.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/thrice/internal/cache"
	"github.com/jason-s-yu/thrice/internal/engine"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. THRICE_SESSION_BACKEND.
const EnvPrefix = "THRICE"

const (
	BackendStatic   = "static"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

type Config struct {
	Bind     string
	Port     int
	LogLevel string

	ContentBackend string
	SQLitePath     string
	PostgresURL    string

	SessionBackend string
	SessionTTL     time.Duration
	SweepInterval  time.Duration

	RedisAddr    string
	RedisDB      int
	RedisPrefix  string
	HistoryQueue string

	AdvanceMode string
	DefaultGame int64

	HistorianBatchSize int
	HistorianFlush     time.Duration
}

// Addr is the listen address built from Bind and Port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// Rules returns the engine rules selected by AdvanceMode.
func (c *Config) Rules() (engine.Rules, error) {
	mode, err := engine.ParseAdvanceMode(c.AdvanceMode)
	if err != nil {
		return engine.Rules{}, err
	}
	return engine.Rules{Mode: mode}, nil
}

// NewLogger builds the process logger at LogLevel.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetLevel(level)
	return logger, nil
}

// ValidateServer checks the settings used by the API server.
func (c *Config) ValidateServer() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.ContentBackend {
	case BackendStatic, BackendPostgres:
	case BackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("--sqlite-path is required with --content-backend=sqlite")
		}
	default:
		return fmt.Errorf("unknown content backend %q", c.ContentBackend)
	}
	switch c.SessionBackend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}
	if c.SessionTTL <= 0 {
		return errors.New("--session-ttl must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("--sweep-interval must be positive")
	}
	if c.DefaultGame <= 0 {
		return errors.New("--default-game must be positive")
	}
	if _, err := engine.ParseAdvanceMode(c.AdvanceMode); err != nil {
		return err
	}
	return nil
}

// ValidateHistorian checks the settings used by the historian.
func (c *Config) ValidateHistorian() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.HistorianBatchSize < 1 {
		return errors.New("--historian-batch-size must be at least 1")
	}
	if c.HistorianFlush <= 0 {
		return errors.New("--historian-flush must be positive")
	}
	if c.HistoryQueue == "" {
		return errors.New("--history-queue is required")
	}
	return nil
}

// AddCommonFlags registers the flags every binary understands.
func AddCommonFlags(fs *pflag.FlagSet, c *Config) {
	fs.StringVar(&c.LogLevel, "log-level", "info", "logrus level: debug, info, warn, error (env: THRICE_LOG_LEVEL)")
	fs.StringVar(&c.PostgresURL, "postgres-url", "", "postgres connection url; empty builds one from PG_* variables (env: THRICE_POSTGRES_URL)")
	fs.StringVar(&c.RedisAddr, "redis-addr", "localhost:6379", "redis address (env: THRICE_REDIS_ADDR)")
	fs.IntVar(&c.RedisDB, "redis-db", 0, "redis database index (env: THRICE_REDIS_DB)")
	fs.StringVar(&c.HistoryQueue, "history-queue", cache.DefaultQueueName, "redis list carrying answer attempts; empty disables publishing (env: THRICE_HISTORY_QUEUE)")
}

// AddServerFlags registers the API server flags.
func AddServerFlags(fs *pflag.FlagSet, c *Config) {
	AddCommonFlags(fs, c)
	fs.StringVarP(&c.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: THRICE_BIND)")
	fs.IntVarP(&c.Port, "port", "p", 8080, "port to listen on (env: THRICE_PORT)")
	fs.StringVar(&c.ContentBackend, "content-backend", BackendStatic, "content source: static, sqlite or postgres (env: THRICE_CONTENT_BACKEND)")
	fs.StringVar(&c.SQLitePath, "sqlite-path", "thrice.db", "sqlite content database (env: THRICE_SQLITE_PATH)")
	fs.StringVar(&c.SessionBackend, "session-backend", BackendMemory, "session store: memory, redis or postgres (env: THRICE_SESSION_BACKEND)")
	fs.DurationVar(&c.SessionTTL, "session-ttl", 24*time.Hour, "time before idle sessions are evicted (env: THRICE_SESSION_TTL)")
	fs.DurationVar(&c.SweepInterval, "sweep-interval", 10*time.Minute, "how often idle sessions are swept (env: THRICE_SWEEP_INTERVAL)")
	fs.StringVar(&c.RedisPrefix, "redis-prefix", "thrice:", "prefix for redis session keys (env: THRICE_REDIS_PREFIX)")
	fs.StringVar(&c.AdvanceMode, "advance-mode", string(engine.AdvanceByRound), "what a correct answer advances: round or clue (env: THRICE_ADVANCE_MODE)")
	fs.Int64Var(&c.DefaultGame, "default-game", 1, "game played by /api/game/start when none is given (env: THRICE_DEFAULT_GAME)")
}

// AddHistorianFlags registers the historian flags.
func AddHistorianFlags(fs *pflag.FlagSet, c *Config) {
	AddCommonFlags(fs, c)
	fs.IntVar(&c.HistorianBatchSize, "historian-batch-size", 20, "records written per transaction (env: THRICE_HISTORIAN_BATCH_SIZE)")
	fs.DurationVar(&c.HistorianFlush, "historian-flush", 500*time.Millisecond, "maximum delay before a partial batch is written (env: THRICE_HISTORIAN_FLUSH)")
}

// BindEnv fills every flag not given on the command line from its THRICE_* variable.
func BindEnv(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}
