package domain

// Stage is the step kind accepted by the step operation.
type Stage string

const (
	StageSpeak Stage = "speak"
	StageVote  Stage = "vote"
)

// StartGameResult carries the precheck statements in roster order.
type StartGameResult struct {
	Responses []Statement       `json:"responses"`
	Round     int               `json:"round"`
	PlayerMap map[string]string `json:"player_map"`
}

type AdvanceRoundRequest struct {
	Round int `json:"round"`
}

type AdvanceRoundResult struct {
	Round     int               `json:"round"`
	ActiveAIs []string          `json:"activeAIs"`
	PlayerMap map[string]string `json:"player_map"`
}

type StepRequest struct {
	Stage   Stage `json:"stage"`
	AIIndex int   `json:"ai_index"`
	Round   int   `json:"round"`
}

// StepResponse is the success body of a step; vote-only fields are empty for speech.
type StepResponse struct {
	Stage           Stage  `json:"stage"`
	AIIndex         int    `json:"ai_index"`
	AIID            string `json:"ai_id"`
	AIName          string `json:"ai_name"`
	Round           int    `json:"round"`
	Response        string `json:"response,omitempty"`
	TargetID        string `json:"target_id,omitempty"`
	TargetName      string `json:"target_name,omitempty"`
	EliminatedAI    string `json:"eliminated_ai,omitempty"`
	SkipElimination bool   `json:"skip_elimination,omitempty"`
	Message         string `json:"message,omitempty"`
	IsStageEnd      bool   `json:"is_stage_end"`
	IsGameOver      bool   `json:"is_game_over"`
	Winner          string `json:"winner,omitempty"`
}
