package service

import (
	"context"
	"testing"
	"time"

	"cyber_cricket/internal/ai"
	"cyber_cricket/internal/domain"
	"cyber_cricket/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() (*ParticipantService, *PromptService, *repository.Store) {
	store := repository.NewMemoryStore()
	audit := NewAuditService(store.Audit)
	return NewParticipantService(store.Participants, &scriptedResponder{}, audit), NewPromptService(store.Settings, audit), store
}

func TestParticipantLifecycle(t *testing.T) {
	svc, _, store := newRegistry()
	ctx := context.Background()

	p, err := svc.Add(ctx, "ops", ParticipantInput{Name: " alpha ", APIKey: "sk-1234567890", APIBase: "http://a"})
	require.NoError(t, err)
	assert.Equal(t, "alpha", p.Name)
	assert.Equal(t, "sk-1*****7890", p.APIKey)
	assert.NotEmpty(t, p.ID)

	_, err = svc.Add(ctx, "ops", ParticipantInput{Name: "alpha", APIKey: "other", APIBase: "http://b"})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	_, err = svc.Add(ctx, "ops", ParticipantInput{Name: "beta", APIKey: "", APIBase: "http://b"})
	assert.ErrorIs(t, err, domain.ErrMissingFields)

	// a masked key sent back keeps the stored secret
	edited, err := svc.Edit(ctx, "ops", p.ID, ParticipantInput{Name: "alpha", APIKey: p.APIKey, APIBase: "http://a2", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "http://a2", edited.APIBase)
	stored, err := store.Participants.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "sk-1234567890", stored.APIKey)
	assert.Equal(t, "gpt-4o", stored.ModelName())

	require.NoError(t, svc.Delete(ctx, "ops", p.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "ops", p.ID), domain.ErrParticipantNotFound)

	logs, err := NewAuditService(store.Audit).Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, domain.AuditActionParticipantDelete, logs[0].Action)
	assert.Equal(t, "ops", logs[0].Actor)
}

func TestCallParticipant(t *testing.T) {
	svc, _, _ := newRegistry()
	ctx := context.Background()
	p, err := svc.Add(ctx, "ops", ParticipantInput{Name: "alpha", APIKey: "k", APIBase: "http://a"})
	require.NoError(t, err)

	_, err = svc.Call(ctx, p.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	_, err = svc.Call(ctx, "missing", "hi")
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)

	reply, err := svc.Call(ctx, p.ID, "hi")
	require.NoError(t, err)
	assert.Contains(t, reply, "alpha")
}

func TestPromptDefaultAndSet(t *testing.T) {
	_, prompts, _ := newRegistry()
	ctx := context.Background()

	text, err := prompts.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, ai.DefaultPrompt, text)

	assert.ErrorIs(t, prompts.Set(ctx, "ops", " "), ErrEmptyPrompt)
	require.NoError(t, prompts.Set(ctx, "ops", "new premise"))
	text, _ = prompts.Get(ctx)
	assert.Equal(t, "new premise", text)
}

func TestOperatorToken(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateOperatorToken("alice", time.Hour)
	require.NoError(t, err)
	sub, err := ParseOperatorToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	expired, err := GenerateOperatorToken("alice", -time.Hour)
	require.NoError(t, err)
	_, err = ParseOperatorToken(expired)
	assert.NoError(t, err, "non-positive ttl falls back to the default")

	_, err = ParseOperatorToken(token + "x")
	assert.Error(t, err)
}
