package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"cyber_cricket/internal/domain"
)

type ErrorKind int

const (
	// KindTransport: the call did not complete.
	KindTransport ErrorKind = iota
	// KindRejected: the service answered with a structured error.
	KindRejected
	// KindTerminal: the service reports the game has ended.
	KindTerminal
)

func (k ErrorKind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindTerminal:
		return "terminal"
	default:
		return "transport"
	}
}

var ErrIndexOutOfRange = errors.New("participant index out of range")

// StepError is a classified step failure.
type StepError struct {
	Kind  ErrorKind
	Stage domain.Stage
	Round int
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step round %d index %d: %s: %v", e.Stage, e.Round, e.Index, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// IsTerminal reports whether err carries a game-over signal.
func IsTerminal(err error) bool {
	var se *StepError
	return errors.As(err, &se) && se.Kind == KindTerminal
}

// StepResult is a normalised step outcome. Vote fields are empty for speech.
type StepResult struct {
	Stage           domain.Stage `json:"stage"`
	Round           int          `json:"round"`
	Index           int          `json:"index"`
	ParticipantID   string       `json:"participant_id"`
	ParticipantName string       `json:"participant_name"`
	Statement       string       `json:"statement,omitempty"`

	TargetID          string `json:"target_id,omitempty"`
	TargetName        string `json:"target_name,omitempty"`
	Abstained         bool   `json:"abstained,omitempty"`
	EliminatedID      string `json:"eliminated_id,omitempty"`
	TiedNoElimination bool   `json:"tied_no_elimination,omitempty"`
	Message           string `json:"message,omitempty"`

	GameOver bool   `json:"game_over,omitempty"`
	WinnerID string `json:"winner_id,omitempty"`
}

// Stepper issues exactly one step call per invocation. It never retries.
type Stepper struct {
	svc GameService
}

func NewStepper(svc GameService) *Stepper {
	return &Stepper{svc: svc}
}

// Step runs participant index of the given stage. total is the roster size
// captured when the phase was entered.
func (s *Stepper) Step(ctx context.Context, stage domain.Stage, index, round, total int) (*StepResult, error) {
	if index < 0 || index >= total {
		return nil, &StepError{Kind: KindRejected, Stage: stage, Round: round, Index: index, Err: ErrIndexOutOfRange}
	}

	resp, err := s.svc.Step(ctx, domain.StepRequest{Stage: stage, AIIndex: index, Round: round})
	if err != nil {
		return nil, classify(err, stage, round, index)
	}

	return normalize(resp, stage, round, index), nil
}

func classify(err error, stage domain.Stage, round, index int) *StepError {
	se := &StepError{Kind: KindTransport, Stage: stage, Round: round, Index: index, Err: err}

	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) {
		se.Kind = KindRejected
		if svcErr.GameOver {
			se.Kind = KindTerminal
		}
	}
	return se
}

func normalize(resp *domain.StepResponse, stage domain.Stage, round, index int) *StepResult {
	res := &StepResult{
		Stage:           stage,
		Round:           round,
		Index:           index,
		ParticipantID:   resp.AIID,
		ParticipantName: resp.AIName,
		GameOver:        resp.IsGameOver,
		WinnerID:        resp.Winner,
	}

	if stage == domain.StageSpeak {
		res.Statement = resp.Response
		return res
	}

	// "0" (or nothing) is an abstention; its name is never looked up
	if resp.TargetID == "" || resp.TargetID == domain.AbstainID {
		res.TargetID = domain.AbstainID
		res.Abstained = true
	} else {
		res.TargetID = resp.TargetID
		res.TargetName = resp.TargetName
	}
	res.EliminatedID = resp.EliminatedAI
	res.TiedNoElimination = resp.SkipElimination
	res.Message = resp.Message
	return res
}
