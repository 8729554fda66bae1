package service

import (
	"context"

	"cyber_cricket/internal/domain"
	"cyber_cricket/internal/logger"
	"cyber_cricket/internal/repository"
)

// AuditService handles audit logging. Failures are logged, never returned.
type AuditService struct {
	repo repository.AuditLogs
}

func NewAuditService(repo repository.AuditLogs) *AuditService {
	return &AuditService{repo: repo}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, actor, action, category string, details map[string]interface{}) {
	if s == nil || s.repo == nil {
		return
	}
	if details == nil {
		details = make(map[string]interface{})
	}
	log := &domain.AuditLog{
		Actor:    actor,
		Action:   action,
		Category: category,
		Details:  details,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "actor", actor)
	}
}

// LogGame records a game lifecycle event written by the service itself.
func (s *AuditService) LogGame(ctx context.Context, action string, round int, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["round"] = round
	s.Log(ctx, domain.ActorSystem, action, domain.AuditCategoryGame, details)
}

// LogRegistry records a participant or prompt change made by an operator.
func (s *AuditService) LogRegistry(ctx context.Context, operator, action, participantID string) {
	details := map[string]interface{}{}
	if participantID != "" {
		details["participant_id"] = participantID
	}
	s.Log(ctx, operator, action, domain.AuditCategoryRegistry, details)
}

// Recent returns the latest entries, newest first.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.GetRecent(ctx, limit)
}
