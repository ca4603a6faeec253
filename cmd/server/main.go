// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/thrice/internal/config"
	"github.com/jason-s-yu/thrice/internal/game"
	"github.com/jason-s-yu/thrice/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	cfg := &config.Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func newCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "thrice-server",
		Short:         "Serves the thrice trivia game API.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	config.AddServerFlags(cmd.Flags(), cfg)
	config.BindEnv(cmd.Flags())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("thrice-server v{{.Version}}\n")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.sweeper.Start(); err != nil {
		return err
	}
	defer b.sweeper.Stop()

	ctrl := game.NewController(game.Options{
		Sessions:      b.sessions,
		Content:       b.content,
		Rules:         rules,
		History:       b.history,
		Logger:        logger,
		DefaultGameID: cfg.DefaultGame,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(ctrl, logger, releaseVersion),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
