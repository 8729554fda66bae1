package repository

import (
	"context"
	"errors"

	"cyber_cricket/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipantRepository struct {
	db *pgxpool.Pool
}

func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// List returns participants in registration order, which is also seat order.
func (r *ParticipantRepository) List(ctx context.Context) ([]*domain.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, api_key, api_base, model, score, created_at
		 FROM participants
		 ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.APIKey, &p.APIBase, &p.Model, &p.Score, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	var p domain.Participant
	err := r.db.QueryRow(ctx,
		`SELECT id, name, api_key, api_base, model, score, created_at
		 FROM participants
		 WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.APIKey, &p.APIBase, &p.Model, &p.Score, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParticipantRepository) Create(ctx context.Context, p *domain.Participant) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO participants (id, name, api_key, api_base, model, score)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		p.ID, p.Name, p.APIKey, p.APIBase, p.Model, p.Score,
	).Scan(&p.CreatedAt)
	return uniqueViolation(err)
}

func (r *ParticipantRepository) Update(ctx context.Context, p *domain.Participant) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE participants
		 SET name = $2, api_key = $3, api_base = $4, model = $5
		 WHERE id = $1`,
		p.ID, p.Name, p.APIKey, p.APIBase, p.Model,
	)
	if err != nil {
		return uniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

func (r *ParticipantRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

// AddScores applies all deltas in one transaction.
func (r *ParticipantRepository) AddScores(ctx context.Context, deltas map[string]int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for id, delta := range deltas {
		if _, err := tx.Exec(ctx,
			`UPDATE participants SET score = score + $2 WHERE id = $1`,
			id, delta,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// uniqueViolation maps constraint names to the registry's sentinel errors.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case "participants_name_key":
		return domain.ErrDuplicateName
	case "participants_api_key_key":
		return domain.ErrDuplicateAPIKey
	case "participants_api_base_key":
		return domain.ErrDuplicateAPIBase
	}
	return err
}
