// cmd/historian/main.go drains answer attempts from the Redis queue into Postgres.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/thrice/internal/cache"
	"github.com/jason-s-yu/thrice/internal/config"
	"github.com/jason-s-yu/thrice/internal/database"
	"github.com/jason-s-yu/thrice/internal/history"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

func main() {
	cfg := &config.Config{}
	cmd := &cobra.Command{
		Use:           "thrice-historian",
		Short:         "Persists queued answer attempts to Postgres.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateHistorian(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	config.AddHistorianFlags(cmd.Flags(), cfg)
	config.BindEnv(cmd.Flags())
	cmd.CompletionOptions.HiddenDefaultCmd = true

	cobra.CheckErr(cmd.Execute())
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}

	pool, err := database.ConnectDB(ctx, database.ConnString(cfg.PostgresURL))
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	h := history.NewHistorian(rdb, cfg.HistoryQueue, history.NewPostgresSink(pool),
		cfg.HistorianBatchSize, cfg.HistorianFlush, logger)
	h.Run(ctx)
	return nil
}
