// Package postgres serves game content from the shared Postgres database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/thrice/internal/content"
	"github.com/jason-s-yu/thrice/internal/models"
)

// Store implements content.Source on a pgx pool. The schema comes from database.Migrate.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ListGames(ctx context.Context, opts content.ListOptions) ([]models.Game, int, error) {
	pattern := content.LikePattern(opts.Search)

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM games WHERE lower(title) LIKE $1 ESCAPE '\'`, pattern,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count games: %w", err)
	}

	// LIMIT NULL means no limit in Postgres.
	var limit *int
	if opts.Limit > 0 {
		limit = &opts.Limit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT game_id, title, slug, published, is_active
		  FROM games
		 WHERE lower(title) LIKE $1 ESCAPE '\'
		 ORDER BY published DESC, game_id DESC
		 LIMIT $2 OFFSET $3`,
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
	return s.getGame(ctx, `WHERE game_id = $1`, id)
}

func (s *Store) GetGameBySlug(ctx context.Context, slug string) (*models.Game, error) {
	return s.getGame(ctx, `WHERE slug = $1`, slug)
}

func (s *Store) getGame(ctx context.Context, where string, arg any) (*models.Game, error) {
	var g models.Game
	err := s.pool.QueryRow(ctx,
		`SELECT game_id, title, slug, published, is_active FROM games `+where, arg,
	).Scan(&g.GameID, &g.Title, &g.Slug, &g.Published, &g.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrNotFound
		}
		return nil, fmt.Errorf("get game: %w", err)
	}
	if g.Rounds, err = s.loadRounds(ctx, `WHERE r.game_id = $1`, g.GameID); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) GetRound(ctx context.Context, roundID int64) (*models.Round, error) {
	rounds, err := s.loadRounds(ctx, `WHERE r.round_id = $1`, roundID)
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return nil, content.ErrNotFound
	}
	return &rounds[0], nil
}

func (s *Store) loadRounds(ctx context.Context, where string, arg any) ([]models.Round, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.round_id, r.game_id, r.round_number, r.answer, r.category,
		       c.clue_id, c.clue_number, c.clue_text, c.percent_correct, c.points
		  FROM rounds r
		  LEFT JOIN clues c ON c.round_id = r.round_id
		 `+where+`
		 ORDER BY r.round_number, c.clue_number`, arg)
	if err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}
	defer rows.Close()

	rounds := []models.Round{}
	for rows.Next() {
		var (
			r                           models.Round
			clueID                      *int64
			clueNumber, percent, points *int32
			text                        *string
		)
		if err := rows.Scan(&r.RoundID, &r.GameID, &r.RoundNumber, &r.Answer, &r.Category,
			&clueID, &clueNumber, &text, &percent, &points); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if n := len(rounds); n == 0 || rounds[n-1].RoundID != r.RoundID {
			r.Clues = []models.Clue{}
			rounds = append(rounds, r)
		}
		if clueID != nil {
			last := &rounds[len(rounds)-1]
			last.Clues = append(last.Clues, models.Clue{
				ClueID:         *clueID,
				RoundID:        r.RoundID,
				ClueNumber:     int(*clueNumber),
				Text:           *text,
				PercentCorrect: int(*percent),
				Points:         int(*points),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return rounds, nil
}

func (s *Store) CreateGame(ctx context.Context, g *models.Game) error {
	content.Normalize(g)
	if err := content.Validate(g); err != nil {
		return err
	}

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		if g.GameID != 0 {
			_, err = tx.Exec(ctx,
				`INSERT INTO games (game_id, title, slug, published, is_active) VALUES ($1, $2, $3, $4, $5)`,
				g.GameID, g.Title, g.Slug, g.Published, g.IsActive)
		} else {
			err = tx.QueryRow(ctx,
				`INSERT INTO games (title, slug, published, is_active) VALUES ($1, $2, $3, $4) RETURNING game_id`,
				g.Title, g.Slug, g.Published, g.IsActive).Scan(&g.GameID)
		}
		if err != nil {
			return err
		}

		for i := range g.Rounds {
			r := &g.Rounds[i]
			r.GameID = g.GameID
			if err := tx.QueryRow(ctx,
				`INSERT INTO rounds (game_id, round_number, answer, category) VALUES ($1, $2, $3, $4) RETURNING round_id`,
				r.GameID, r.RoundNumber, r.Answer, r.Category).Scan(&r.RoundID); err != nil {
				return fmt.Errorf("insert round %d: %w", r.RoundNumber, err)
			}
			for j := range r.Clues {
				c := &r.Clues[j]
				c.RoundID = r.RoundID
				if err := tx.QueryRow(ctx,
					`INSERT INTO clues (round_id, clue_number, clue_text, percent_correct, points) VALUES ($1, $2, $3, $4, $5) RETURNING clue_id`,
					c.RoundID, c.ClueNumber, c.Text, c.PercentCorrect, c.Points).Scan(&c.ClueID); err != nil {
					return fmt.Errorf("insert clue %d of round %d: %w", c.ClueNumber, r.RoundNumber, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return content.ErrAlreadyExists
		}
		return fmt.Errorf("tx create game: %w", err)
	}
	return nil
}

func (s *Store) UpdateGame(ctx context.Context, id int64, u content.GameUpdate) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.Title != nil {
		add("title", strings.TrimSpace(*u.Title))
		add("slug", content.Slugify(*u.Title))
	}
	if u.Published != nil {
		add("published", *u.Published)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE games SET %s WHERE game_id = $%d`, strings.Join(sets, ", "), len(args)),
		args...)
	if err != nil {
		if isUniqueViolation(err) {
			return content.ErrAlreadyExists
		}
		return fmt.Errorf("update game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrNotFound
	}
	return nil
}

// DeleteGame relies on ON DELETE CASCADE for rounds and clues.
func (s *Store) DeleteGame(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM games WHERE game_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ content.Source = (*Store)(nil)
