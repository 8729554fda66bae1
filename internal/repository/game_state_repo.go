package repository

import (
	"context"
	"encoding/json"
	"errors"

	"cyber_cricket/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GameStateRepository struct {
	db *pgxpool.Pool
}

func NewGameStateRepository(db *pgxpool.Pool) *GameStateRepository {
	return &GameStateRepository{db: db}
}

func (r *GameStateRepository) Load(ctx context.Context) (*domain.GameState, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT state FROM game_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNoGame
	}
	if err != nil {
		return nil, err
	}

	var st domain.GameState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *GameStateRepository) Save(ctx context.Context, st *domain.GameState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO game_state (id, state, updated_at)
		 VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		raw,
	)
	return err
}
