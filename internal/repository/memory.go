package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"cyber_cricket/internal/domain"
)

// NewMemoryStore keeps everything in process memory; used when DATABASE_URL
// is empty and by tests.
func NewMemoryStore() *Store {
	return &Store{
		Participants: &memoryParticipants{},
		Games:        &memoryGames{},
		Settings:     &memorySettings{values: map[string]string{}},
		Audit:        &memoryAudit{},
	}
}

type memoryParticipants struct {
	mu    sync.RWMutex
	items []*domain.Participant
}

func (m *memoryParticipants) List(ctx context.Context) ([]*domain.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Participant, 0, len(m.items))
	for _, p := range m.items {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memoryParticipants) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.index(id); i >= 0 {
		cp := *m.items[i]
		return &cp, nil
	}
	return nil, domain.ErrParticipantNotFound
}

func (m *memoryParticipants) Create(ctx context.Context, p *domain.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conflict(p); err != nil {
		return err
	}
	p.CreatedAt = time.Now()
	cp := *p
	m.items = append(m.items, &cp)
	return nil
}

func (m *memoryParticipants) Update(ctx context.Context, p *domain.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(p.ID)
	if i < 0 {
		return domain.ErrParticipantNotFound
	}
	if err := m.conflict(p); err != nil {
		return err
	}
	cur := m.items[i]
	cur.Name, cur.APIKey, cur.APIBase, cur.Model = p.Name, p.APIKey, p.APIBase, p.Model
	return nil
}

func (m *memoryParticipants) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return domain.ErrParticipantNotFound
	}
	m.items = slices.Delete(m.items, i, i+1)
	return nil
}

func (m *memoryParticipants) AddScores(ctx context.Context, deltas map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		p.Score += deltas[p.ID]
	}
	return nil
}

func (m *memoryParticipants) index(id string) int {
	return slices.IndexFunc(m.items, func(p *domain.Participant) bool { return p.ID == id })
}

// conflict mirrors the unique constraints of the participants table.
func (m *memoryParticipants) conflict(p *domain.Participant) error {
	for _, other := range m.items {
		if other.ID == p.ID {
			continue
		}
		switch {
		case other.Name == p.Name:
			return domain.ErrDuplicateName
		case other.APIKey == p.APIKey:
			return domain.ErrDuplicateAPIKey
		case other.APIBase == p.APIBase:
			return domain.ErrDuplicateAPIBase
		}
	}
	return nil
}

type memoryGames struct {
	mu    sync.RWMutex
	state *domain.GameState
}

func (m *memoryGames) Load(ctx context.Context) (*domain.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, domain.ErrNoGame
	}
	return m.state.Clone(), nil
}

func (m *memoryGames) Save(ctx context.Context, st *domain.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = st.Clone()
	return nil
}

type memorySettings struct {
	mu     sync.RWMutex
	values map[string]string
}

func (m *memorySettings) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memorySettings) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

type memoryAudit struct {
	mu   sync.Mutex
	logs []*domain.AuditLog
}

func (m *memoryAudit) Create(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = int64(len(m.logs) + 1)
	log.CreatedAt = time.Now()
	cp := *log
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *memoryAudit) GetRecent(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditLog
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.logs[i]
		out = append(out, &cp)
	}
	return out, nil
}
