package ai

import (
	"context"
	"regexp"
	"strconv"

	"cyber_cricket/internal/domain"
)

// Responder produces what a participant says and who it votes for. It never
// fails: exhausted retries fall back to a canned line or an abstention.
type Responder interface {
	Speak(ctx context.Context, p *domain.Participant, name string, history []domain.Statement, situation string) string
	Vote(ctx context.Context, p *domain.Participant, st *domain.GameState, round int) string
}

// Speak asks p for a statement given the earlier conversation.
func (c *Client) Speak(ctx context.Context, p *domain.Participant, name string, history []domain.Statement, situation string) string {
	text, err := c.completeWithRetry(ctx, p, speechMessages(p, history, situation))
	if err != nil {
		c.log.Error("participant cannot speak", "participant", p.Name, "error", err)
		return Unavailable(name)
	}
	return text
}

// Vote asks p for a vote in round and returns the target id, or the abstain id.
func (c *Client) Vote(ctx context.Context, p *domain.Participant, st *domain.GameState, round int) string {
	var statements []domain.Statement
	for _, h := range st.History {
		if h.Round == round {
			statements = h.Responses
		}
	}

	reply, err := c.completeWithRetry(ctx, p, voteMessages(st.DisplayName(p.ID), round, statements, p.ID))
	if err != nil {
		c.log.Error("participant cannot vote, abstaining", "participant", p.Name, "error", err)
		return domain.AbstainID
	}
	target := ParseVote(reply, p.ID, st)
	c.log.Debug("vote parsed", "participant", p.Name, "reply", reply, "target", target)
	return target
}

// Unavailable is the statement recorded when a participant never answered.
func Unavailable(name string) string {
	return "[system] " + name + " cannot respond right now, please try again later."
}

var firstNumber = regexp.MustCompile(`\d+`)

// ParseVote maps a free-form reply to a target id. The first integer is a
// seat number; 0, no number, an unknown seat, a self vote or a vote for a
// participant no longer active all mean abstain.
func ParseVote(reply, voterID string, st *domain.GameState) string {
	m := firstNumber.FindString(reply)
	if m == "" {
		return domain.AbstainID
	}
	seat, err := strconv.Atoi(m)
	if err != nil || seat == 0 {
		return domain.AbstainID
	}

	id, ok := st.BySeat(seat)
	if !ok || id == voterID || !st.IsActive(id) || st.IsEliminated(id) {
		return domain.AbstainID
	}
	return id
}
