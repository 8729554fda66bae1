package domain

import (
	"strings"
	"time"
)

// Participant is one AI player and the endpoint it is reached at.
type Participant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	APIKey    string    `json:"apikey"`
	APIBase   string    `json:"apibase"`
	Model     string    `json:"model,omitempty"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// ModelName returns the completion model; the participant name doubles as model id when unset.
func (p Participant) ModelName() string {
	if p.Model != "" {
		return p.Model
	}
	return p.Name
}

// Masked returns a copy safe to hand to clients.
func (p Participant) Masked() Participant {
	p.APIKey = MaskKey(p.APIKey)
	return p
}

func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
