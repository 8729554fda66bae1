package repository

import (
	"context"

	"cyber_cricket/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Participants interface {
	List(ctx context.Context) ([]*domain.Participant, error)
	GetByID(ctx context.Context, id string) (*domain.Participant, error)
	Create(ctx context.Context, p *domain.Participant) error
	Update(ctx context.Context, p *domain.Participant) error
	Delete(ctx context.Context, id string) error
	AddScores(ctx context.Context, deltas map[string]int) error
}

// GameStates persists the single current game. Load returns domain.ErrNoGame
// when nothing was saved yet.
type GameStates interface {
	Load(ctx context.Context) (*domain.GameState, error)
	Save(ctx context.Context, st *domain.GameState) error
}

// Settings is a small key/value table (the game prompt lives here).
type Settings interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type AuditLogs interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	GetRecent(ctx context.Context, limit int) ([]*domain.AuditLog, error)
}

// Store bundles the repositories the services need.
type Store struct {
	Participants Participants
	Games        GameStates
	Settings     Settings
	Audit        AuditLogs
	ping         func(ctx context.Context) error
}

// Ping checks the backing database; the in-memory store is always ready.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func NewPostgresStore(db *pgxpool.Pool) *Store {
	return &Store{
		Participants: NewParticipantRepository(db),
		Games:        NewGameStateRepository(db),
		Settings:     NewSettingsRepository(db),
		Audit:        NewAuditRepository(db),
		ping:         db.Ping,
	}
}
