package service

import (
	"context"
	"errors"
	"strings"

	"cyber_cricket/internal/ai"
	"cyber_cricket/internal/domain"
	"cyber_cricket/internal/repository"
)

const promptKey = "game_prompt"

var ErrEmptyPrompt = errors.New("prompt text is empty")

type PromptService struct {
	settings repository.Settings
	audit    *AuditService
}

func NewPromptService(settings repository.Settings, audit *AuditService) *PromptService {
	return &PromptService{settings: settings, audit: audit}
}

// Get returns the stored prompt, or the built-in one when none was set.
func (s *PromptService) Get(ctx context.Context) (string, error) {
	text, ok, err := s.settings.Get(ctx, promptKey)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(text) == "" {
		return ai.DefaultPrompt, nil
	}
	return text, nil
}

func (s *PromptService) Set(ctx context.Context, operator, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyPrompt
	}
	if err := s.settings.Set(ctx, promptKey, text); err != nil {
		return err
	}
	s.audit.LogRegistry(ctx, operator, domain.AuditActionPromptSet, "")
	return nil
}
