// cmd/importer/main.go loads game content into the SQLite or Postgres content store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jason-s-yu/thrice/internal/config"
	"github.com/jason-s-yu/thrice/internal/content"
	"github.com/jason-s-yu/thrice/internal/content/postgres"
	"github.com/jason-s-yu/thrice/internal/content/sqlite"
	"github.com/jason-s-yu/thrice/internal/database"
	"github.com/jason-s-yu/thrice/internal/models"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	backend     string
	sqlitePath  string
	postgresURL string
	format      string
	day         string
	reference   bool
	logLevel    string
}

func main() {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "thrice-import [files...]",
		Short: "Imports games from JSON files or scraper listings.",
		Long: "Each file is either JSON (one game or an array of games) or a scraper listing\n" +
			"(\"Round N: answer\" followed by \"clue NN%\" lines). Listings take their day from\n" +
			"--day or from a YYYY-MM-DD file name.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !opts.reference {
				return errors.New("nothing to import: pass files or --reference")
			}
			return run(cmd.Context(), opts, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.backend, "content-backend", "sqlite", "target store: sqlite or postgres (env: THRICE_CONTENT_BACKEND)")
	fs.StringVar(&opts.sqlitePath, "sqlite-path", "thrice.db", "sqlite content database (env: THRICE_SQLITE_PATH)")
	fs.StringVar(&opts.postgresURL, "postgres-url", "", "postgres connection url (env: THRICE_POSTGRES_URL)")
	fs.StringVar(&opts.format, "format", "auto", "input format: auto, json or listing")
	fs.StringVar(&opts.day, "day", "", "day of a listing in YYYY-MM-DD form")
	fs.BoolVar(&opts.reference, "reference", false, "also import the built-in reference game")
	fs.StringVar(&opts.logLevel, "log-level", "info", "logrus level (env: THRICE_LOG_LEVEL)")

	config.BindEnv(fs)

	cobra.CheckErr(cmd.Execute())
}

func run(ctx context.Context, opts *options, files []string) error {
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logger := logrus.New()
	logger.SetLevel(level)

	var store content.Source
	switch opts.backend {
	case config.BackendSQLite:
		s, err := sqlite.Open(opts.sqlitePath)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	case config.BackendPostgres:
		pool, err := database.ConnectDB(ctx, database.ConnString(opts.postgresURL))
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		store = postgres.NewStore(pool)
	default:
		return fmt.Errorf("unknown content backend %q", opts.backend)
	}

	var games []models.Game
	if opts.reference {
		games = append(games, content.ReferenceGame())
	}
	for _, path := range files {
		parsed, err := readFile(path, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		games = append(games, parsed...)
	}

	imported, skipped := 0, 0
	for i := range games {
		g := &games[i]
		err := store.CreateGame(ctx, g)
		switch {
		case errors.Is(err, content.ErrAlreadyExists):
			skipped++
			logger.WithField("title", g.Title).Info("game already present, skipping")
		case err != nil:
			return fmt.Errorf("import %q: %w", g.Title, err)
		default:
			imported++
			logger.WithFields(logrus.Fields{"game": g.GameID, "slug": g.Slug, "rounds": len(g.Rounds)}).Debug("imported game")
		}
	}
	logger.WithFields(logrus.Fields{"imported": imported, "skipped": skipped}).Info("import finished")
	return nil
}

func readFile(path string, opts *options) ([]models.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format := opts.format
	if format == "auto" {
		format = "listing"
		if strings.EqualFold(filepath.Ext(path), ".json") {
			format = "json"
		}
	}

	switch format {
	case "json":
		return content.ParseGames(f)
	case "listing":
		day := opts.day
		if day == "" {
			day = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		g, err := content.ParseDump(f, day)
		if err != nil {
			return nil, err
		}
		return []models.Game{g}, nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}
