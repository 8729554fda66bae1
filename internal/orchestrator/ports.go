package orchestrator

import (
	"context"
	"time"

	"cyber_cricket/internal/domain"
)

// GameService is the authoritative remote game. Implemented over HTTP by
// gameclient.Client and in-process by service.GameService.
type GameService interface {
	StartGame(ctx context.Context) (*domain.StartGameResult, error)
	AdvanceRound(ctx context.Context, round int) (*domain.AdvanceRoundResult, error)
	Step(ctx context.Context, req domain.StepRequest) (*domain.StepResponse, error)
	State(ctx context.Context) (*domain.GameState, error)
}

// Clock supplies the delays between steps.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock waits on wall time.
var RealClock Clock = realClock{}
