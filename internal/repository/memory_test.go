package repository

import (
	"context"
	"errors"
	"testing"

	"cyber_cricket/internal/domain"
)

func TestMemoryParticipantsUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a := &domain.Participant{ID: "1", Name: "alpha", APIKey: "k1", APIBase: "http://a"}
	if err := store.Participants.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name string
		p    domain.Participant
		want error
	}{
		{"name", domain.Participant{ID: "2", Name: "alpha", APIKey: "k2", APIBase: "http://b"}, domain.ErrDuplicateName},
		{"key", domain.Participant{ID: "2", Name: "beta", APIKey: "k1", APIBase: "http://b"}, domain.ErrDuplicateAPIKey},
		{"base", domain.Participant{ID: "2", Name: "beta", APIKey: "k2", APIBase: "http://a"}, domain.ErrDuplicateAPIBase},
	}
	for _, tt := range tests {
		p := tt.p
		if err := store.Participants.Create(ctx, &p); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}

	// editing a participant does not conflict with itself
	a.Model = "gpt"
	if err := store.Participants.Update(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestMemoryParticipantsOrderAndScores(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, id := range []string{"x", "y", "z"} {
		p := &domain.Participant{ID: id, Name: "n" + id, APIKey: "k" + id, APIBase: "b" + id}
		if err := store.Participants.Create(ctx, p); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	if err := store.Participants.Delete(ctx, "y"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Participants.Delete(ctx, "y"); !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("second delete: got %v", err)
	}

	if err := store.Participants.AddScores(ctx, map[string]int{"x": 1, "z": -1}); err != nil {
		t.Fatalf("scores: %v", err)
	}

	list, _ := store.Participants.List(ctx)
	if len(list) != 2 || list[0].ID != "x" || list[1].ID != "z" {
		t.Fatalf("unexpected order: %+v", list)
	}
	if list[0].Score != 1 || list[1].Score != -1 {
		t.Fatalf("unexpected scores: %d %d", list[0].Score, list[1].Score)
	}
}

func TestMemoryGameStateIsCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Games.Load(ctx); !errors.Is(err, domain.ErrNoGame) {
		t.Fatalf("expected ErrNoGame, got %v", err)
	}

	st := &domain.GameState{Round: 1, ActiveAIs: []string{"a", "b"}}
	if err := store.Games.Save(ctx, st); err != nil {
		t.Fatal(err)
	}
	st.ActiveAIs[0] = "mutated"

	got, err := store.Games.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.ActiveAIs[0] != "a" {
		t.Fatalf("store shares memory with caller: %v", got.ActiveAIs)
	}
}

func TestMemoryAuditRecent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, a := range []string{"one", "two", "three"} {
		_ = store.Audit.Create(ctx, &domain.AuditLog{Action: a})
	}
	logs, _ := store.Audit.GetRecent(ctx, 2)
	if len(logs) != 2 || logs[0].Action != "three" || logs[1].Action != "two" {
		t.Fatalf("unexpected logs: %+v", logs)
	}
}
