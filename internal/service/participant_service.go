package service

import (
	"context"
	"strings"

	"cyber_cricket/internal/ai"
	"cyber_cricket/internal/domain"
	"cyber_cricket/internal/repository"

	"github.com/google/uuid"
)

// ParticipantInput is the editable part of a participant.
type ParticipantInput struct {
	Name    string `json:"name"`
	APIKey  string `json:"apikey"`
	APIBase string `json:"apibase"`
	Model   string `json:"model"`
}

func (in ParticipantInput) trimmed() ParticipantInput {
	return ParticipantInput{
		Name:    strings.TrimSpace(in.Name),
		APIKey:  strings.TrimSpace(in.APIKey),
		APIBase: strings.TrimSpace(in.APIBase),
		Model:   strings.TrimSpace(in.Model),
	}
}

type ParticipantService struct {
	repo      repository.Participants
	responder ai.Responder
	audit     *AuditService
}

func NewParticipantService(repo repository.Participants, responder ai.Responder, audit *AuditService) *ParticipantService {
	return &ParticipantService{repo: repo, responder: responder, audit: audit}
}

// List returns every participant with its key masked.
func (s *ParticipantService) List(ctx context.Context) ([]domain.Participant, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Participant, 0, len(items))
	for _, p := range items {
		out = append(out, p.Masked())
	}
	return out, nil
}

func (s *ParticipantService) Add(ctx context.Context, operator string, in ParticipantInput) (*domain.Participant, error) {
	in = in.trimmed()
	if in.Name == "" || in.APIKey == "" || in.APIBase == "" {
		return nil, domain.ErrMissingFields
	}

	p := &domain.Participant{
		ID:      uuid.NewString(),
		Name:    in.Name,
		APIKey:  in.APIKey,
		APIBase: in.APIBase,
		Model:   in.Model,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.audit.LogRegistry(ctx, operator, domain.AuditActionParticipantAdd, p.ID)
	masked := p.Masked()
	return &masked, nil
}

// Edit replaces the participant fields. An empty or masked key keeps the
// stored one so a listing can be edited and sent back.
func (s *ParticipantService) Edit(ctx context.Context, operator, id string, in ParticipantInput) (*domain.Participant, error) {
	in = in.trimmed()
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.APIKey != "" && !strings.Contains(in.APIKey, "*") {
		p.APIKey = in.APIKey
	}
	p.Name = in.Name
	p.APIBase = in.APIBase
	p.Model = in.Model
	if p.Name == "" || p.APIKey == "" || p.APIBase == "" {
		return nil, domain.ErrMissingFields
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.audit.LogRegistry(ctx, operator, domain.AuditActionParticipantEdit, id)
	masked := p.Masked()
	return &masked, nil
}

func (s *ParticipantService) Delete(ctx context.Context, operator, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.LogRegistry(ctx, operator, domain.AuditActionParticipantDelete, id)
	return nil
}

// Call sends a free-form message to one participant outside of any game.
func (s *ParticipantService) Call(ctx context.Context, id, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", domain.ErrEmptyMessage
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.responder.Speak(ctx, p, p.Name, nil, message), nil
}
