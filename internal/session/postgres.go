package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/thrice/internal/models"
)

var errVersionConflict = errors.New("session version conflict")

// PostgresStore keeps sessions as JSONB rows in game_sessions. Writes are
// compare-and-swap on the version column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Create(ctx context.Context, s *models.GameSession) error {
	prepare(s, time.Now().UTC())
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO game_sessions (session_id, game_id, user_id, state, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.GameID, s.UserID, state, s.Version, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*models.GameSession, error) {
	return scanSession(p.pool.QueryRow(ctx, `SELECT state FROM game_sessions WHERE session_id = $1`, id))
}

func scanSession(row pgx.Row) (*models.GameSession, error) {
	var state []byte
	if err := row.Scan(&state); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	var s models.GameSession
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (p *PostgresStore) Mutate(ctx context.Context, id string, fn MutateFunc) (*models.GameSession, error) {
	for i := 0; i < maxTxRetries; i++ {
		var out *models.GameSession
		err := pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			cur, err := scanSession(tx.QueryRow(ctx, `SELECT state FROM game_sessions WHERE session_id = $1`, id))
			if err != nil {
				return err
			}
			next, err := apply(cur, fn, time.Now().UTC())
			if err != nil {
				return err
			}
			state, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("marshal session: %w", err)
			}
			tag, err := tx.Exec(ctx, `
				UPDATE game_sessions
				   SET state = $1, version = $2, updated_at = $3
				 WHERE session_id = $4 AND version = $5`,
				state, next.Version, next.UpdatedAt, id, cur.Version)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return errVersionConflict
			}
			out = next
			return nil
		})
		if err == nil {
			return out, nil
		}
		if errors.Is(err, errVersionConflict) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("mutate session %s: %w", id, errVersionConflict)
}

func (p *PostgresStore) FindByPlayer(ctx context.Context, gameID int64, userID string) (*models.GameSession, error) {
	return scanSession(p.pool.QueryRow(ctx, `
		SELECT state FROM game_sessions
		 WHERE game_id = $1 AND user_id = $2
		 ORDER BY created_at DESC
		 LIMIT 1`, gameID, userID))
}

func (p *PostgresStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM game_sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

var _ Store = (*PostgresStore)(nil)
