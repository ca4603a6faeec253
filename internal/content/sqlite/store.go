// Package sqlite provides a SQLite-backed content source using the same
// games/rounds/clues schema the scraper fills.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jason-s-yu/thrice/internal/content"
	"github.com/jason-s-yu/thrice/internal/content/sqlite/migrations"
	"github.com/jason-s-yu/thrice/internal/models"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists game content in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite content store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// applyMigrations runs every embedded .sql file once, in name order.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, name := range files {
		var n int
		if err := sqlDB.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, name).Scan(&n); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if n > 0 {
			continue
		}
		body, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		tx, err := sqlDB.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, name, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) ListGames(ctx context.Context, opts content.ListOptions) ([]models.Game, int, error) {
	if s == nil || s.sqlDB == nil {
		return nil, 0, fmt.Errorf("storage is not configured")
	}
	pattern := content.LikePattern(opts.Search)
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}

	var total int
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM games WHERE lower(title) LIKE ? ESCAPE '\'`, pattern,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count games: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT game_id, title, slug, published, is_active
		   FROM games
		  WHERE lower(title) LIKE ? ESCAPE '\'
		  ORDER BY published DESC, game_id DESC
		  LIMIT ? OFFSET ?`,
		pattern, limit, max(opts.Offset, 0),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		var g models.Game
		if err := rows.Scan(&g.GameID, &g.Title, &g.Slug, &g.Published, &g.IsActive); err != nil {
			return nil, 0, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate games: %w", err)
	}
	return games, total, nil
}

func (s *Store) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	return s.getGame(ctx, `WHERE game_id = ?`, id)
}

func (s *Store) GetGameBySlug(ctx context.Context, slug string) (*models.Game, error) {
	return s.getGame(ctx, `WHERE slug = ?`, slug)
}

func (s *Store) getGame(ctx context.Context, where string, arg any) (*models.Game, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	var g models.Game
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT game_id, title, slug, published, is_active FROM games `+where, arg,
	).Scan(&g.GameID, &g.Title, &g.Slug, &g.Published, &g.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, content.ErrNotFound
		}
		return nil, fmt.Errorf("get game: %w", err)
	}

	rounds, err := s.loadRounds(ctx, `WHERE r.game_id = ?`, g.GameID)
	if err != nil {
		return nil, err
	}
	g.Rounds = rounds
	return &g, nil
}

func (s *Store) GetRound(ctx context.Context, roundID int64) (*models.Round, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rounds, err := s.loadRounds(ctx, `WHERE r.round_id = ?`, roundID)
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return nil, content.ErrNotFound
	}
	return &rounds[0], nil
}

// loadRounds returns the matching rounds ordered by number, each with its clues.
func (s *Store) loadRounds(ctx context.Context, where string, arg any) ([]models.Round, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT r.round_id, r.game_id, r.round_number, r.answer, r.category,
		        c.clue_id, c.clue_number, c.clue_text, c.percent_correct, c.points
		   FROM rounds r
		   LEFT JOIN clues c ON c.round_id = r.round_id
		  `+where+`
		  ORDER BY r.round_number, c.clue_number`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}
	defer rows.Close()

	rounds := []models.Round{}
	for rows.Next() {
		var r models.Round
		var (
			clueID, clueNumber, percent, points sql.NullInt64
			text                                sql.NullString
		)
		if err := rows.Scan(&r.RoundID, &r.GameID, &r.RoundNumber, &r.Answer, &r.Category,
			&clueID, &clueNumber, &text, &percent, &points); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if n := len(rounds); n == 0 || rounds[n-1].RoundID != r.RoundID {
			r.Clues = []models.Clue{}
			rounds = append(rounds, r)
		}
		if clueID.Valid {
			last := &rounds[len(rounds)-1]
			last.Clues = append(last.Clues, models.Clue{
				ClueID:         clueID.Int64,
				RoundID:        r.RoundID,
				ClueNumber:     int(clueNumber.Int64),
				Text:           text.String,
				PercentCorrect: int(percent.Int64),
				Points:         int(points.Int64),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return rounds, nil
}

func (s *Store) CreateGame(ctx context.Context, g *models.Game) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	content.Normalize(g)
	if err := content.Validate(g); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create game: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var res sql.Result
	if g.GameID != 0 {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO games (game_id, title, slug, published, is_active) VALUES (?, ?, ?, ?, ?)`,
			g.GameID, g.Title, g.Slug, g.Published, g.IsActive)
	} else {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO games (title, slug, published, is_active) VALUES (?, ?, ?, ?)`,
			g.Title, g.Slug, g.Published, g.IsActive)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return content.ErrAlreadyExists
		}
		return fmt.Errorf("insert game: %w", err)
	}
	if g.GameID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("game id: %w", err)
	}

	for i := range g.Rounds {
		r := &g.Rounds[i]
		r.GameID = g.GameID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO rounds (game_id, round_number, answer, category) VALUES (?, ?, ?, ?)`,
			r.GameID, r.RoundNumber, r.Answer, r.Category)
		if err != nil {
			return fmt.Errorf("insert round %d: %w", r.RoundNumber, err)
		}
		if r.RoundID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("round id: %w", err)
		}
		for j := range r.Clues {
			c := &r.Clues[j]
			c.RoundID = r.RoundID
			res, err := tx.ExecContext(ctx,
				`INSERT INTO clues (round_id, clue_number, clue_text, percent_correct, points) VALUES (?, ?, ?, ?, ?)`,
				c.RoundID, c.ClueNumber, c.Text, c.PercentCorrect, c.Points)
			if err != nil {
				return fmt.Errorf("insert clue %d of round %d: %w", c.ClueNumber, r.RoundNumber, err)
			}
			if c.ClueID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("clue id: %w", err)
			}
		}
	}
	return tx.Commit()
}

func (s *Store) UpdateGame(ctx context.Context, id int64, u content.GameUpdate) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	var (
		sets []string
		args []any
	)
	if u.Title != nil {
		sets = append(sets, "title = ?", "slug = ?")
		args = append(args, strings.TrimSpace(*u.Title), content.Slugify(*u.Title))
	}
	if u.Published != nil {
		sets = append(sets, "published = ?")
		args = append(args, *u.Published)
	}
	if u.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *u.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := s.sqlDB.ExecContext(ctx, `UPDATE games SET `+strings.Join(sets, ", ")+` WHERE game_id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return content.ErrAlreadyExists
		}
		return fmt.Errorf("update game: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return content.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteGame(ctx context.Context, id int64) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete game: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM clues WHERE round_id IN (SELECT round_id FROM rounds WHERE game_id = ?)`, id); err != nil {
		return fmt.Errorf("delete clues: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rounds WHERE game_id = ?`, id); err != nil {
		return fmt.Errorf("delete rounds: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM games WHERE game_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return content.ErrNotFound
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ content.Source = (*Store)(nil)
