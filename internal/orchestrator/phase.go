package orchestrator

import (
	"fmt"

	"cyber_cricket/internal/domain"
)

type PhaseKind int

const (
	NotStarted PhaseKind = iota
	Precheck
	Speaking
	Voting
	RoundTransition
	GameOver
)

func (k PhaseKind) String() string {
	switch k {
	case NotStarted:
		return "not_started"
	case Precheck:
		return "precheck"
	case Speaking:
		return "speaking"
	case Voting:
		return "voting"
	case RoundTransition:
		return "round_transition"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// PhaseState is the sequencer position. Index is meaningful for Speaking and
// Voting, Winner only for GameOver (empty means no winner).
type PhaseState struct {
	Kind   PhaseKind `json:"-"`
	Name   string    `json:"phase"`
	Round  int       `json:"round"`
	Index  int       `json:"index"`
	Winner string    `json:"winner,omitempty"`
}

func phaseAt(kind PhaseKind, round, index int) PhaseState {
	return PhaseState{Kind: kind, Name: kind.String(), Round: round, Index: index}
}

func (p PhaseState) String() string {
	switch p.Kind {
	case Speaking, Voting:
		return fmt.Sprintf("%s(%d,%d)", p.Kind, p.Round, p.Index)
	case RoundTransition:
		return fmt.Sprintf("%s(%d)", p.Kind, p.Round)
	case GameOver:
		if p.Winner == "" {
			return "game_over(none)"
		}
		return fmt.Sprintf("game_over(%s)", p.Winner)
	default:
		return p.Kind.String()
	}
}

// Stage maps a step phase onto the wire stage.
func (p PhaseState) Stage() domain.Stage {
	if p.Kind == Voting {
		return domain.StageVote
	}
	return domain.StageSpeak
}
