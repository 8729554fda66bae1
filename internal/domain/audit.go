package domain

import "time"

// AuditLog records one game lifecycle or registry action
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	Actor     string                 `db:"actor" json:"actor"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryGame     = "game"
	AuditCategoryRegistry = "registry"
)

// Audit actions
const (
	// Game actions
	AuditActionGameStart    = "game_start"
	AuditActionRoundAdvance = "round_advance"
	AuditActionEliminated   = "participant_eliminated"
	AuditActionVoteTied     = "vote_tied"
	AuditActionGameOver     = "game_over"

	// Registry actions
	AuditActionParticipantAdd    = "participant_add"
	AuditActionParticipantEdit   = "participant_edit"
	AuditActionParticipantDelete = "participant_delete"
	AuditActionPromptSet         = "prompt_set"
)

// ActorSystem marks entries written by the game service itself.
const ActorSystem = "system"
