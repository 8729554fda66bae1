package domain

import (
	"slices"
	"strings"
)

// AbstainID is the vote target meaning "no one". It never names a participant.
const AbstainID = "0"

// Statement is one participant utterance (precheck or speak step).
type Statement struct {
	AIID     string `json:"ai_id"`
	Name     string `json:"name"`
	Response string `json:"response"`
}

// RoundHistory holds the statements made during one round; round 0 is the precheck.
type RoundHistory struct {
	Round     int         `json:"round"`
	Responses []Statement `json:"responses"`
}

type Vote struct {
	Round    int    `json:"round"`
	VoterID  string `json:"voter_id"`
	TargetID string `json:"target_id"`
}

func (v Vote) Abstained() bool { return v.TargetID == AbstainID }

type Elimination struct {
	Round int    `json:"round"`
	AIID  string `json:"ai_id"`
}

// GameState is the authoritative game session, also used as the full-state wire snapshot.
type GameState struct {
	Round      int               `json:"round"`
	Order      []string          `json:"order"`
	PlayerMap  map[string]string `json:"player_map"`
	ActiveAIs  []string          `json:"activeAIs"`
	Votes      []Vote            `json:"votes"`
	Eliminated []Elimination     `json:"eliminated"`
	Winner     string            `json:"winner,omitempty"`
	History    []RoundHistory    `json:"history"`
	Ballots    []Vote            `json:"votes_step,omitempty"`
	LastVote   map[string]string `json:"last_vote,omitempty"`
}

// WinnerSeparator joins the ids of a shared victory.
const WinnerSeparator = "|"

func (s *GameState) IsOver() bool {
	return s.Winner != ""
}

func (s *GameState) WinnerIDs() []string {
	if s.Winner == "" {
		return nil
	}
	return strings.Split(s.Winner, WinnerSeparator)
}

func (s *GameState) IsActive(id string) bool {
	return slices.Contains(s.ActiveAIs, id)
}

func (s *GameState) IsEliminated(id string) bool {
	for _, e := range s.Eliminated {
		if e.AIID == id {
			return true
		}
	}
	return false
}

// Seat returns the 1-based seat number of a participant, 0 if unknown.
func (s *GameState) Seat(id string) int {
	return slices.Index(s.Order, id) + 1
}

// BySeat resolves a seat number to a participant id.
func (s *GameState) BySeat(seat int) (string, bool) {
	if seat < 1 || seat > len(s.Order) {
		return "", false
	}
	return s.Order[seat-1], true
}

// DisplayName resolves an id to its player label; the abstain id has no label.
func (s *GameState) DisplayName(id string) string {
	if id == AbstainID {
		return ""
	}
	if name, ok := s.PlayerMap[id]; ok {
		return name
	}
	return id
}

// RoundHistory returns the history entry for round, creating it if needed.
func (s *GameState) RoundHistory(round int) *RoundHistory {
	for i := range s.History {
		if s.History[i].Round == round {
			return &s.History[i]
		}
	}
	s.History = append(s.History, RoundHistory{Round: round, Responses: []Statement{}})
	return &s.History[len(s.History)-1]
}

// HasSpoken reports whether round has at least one recorded statement.
func (s *GameState) HasSpoken(round int) bool {
	for _, h := range s.History {
		if h.Round == round {
			return len(h.Responses) > 0
		}
	}
	return false
}

// StatementsBefore flattens every statement of rounds earlier than round.
func (s *GameState) StatementsBefore(round int) []Statement {
	var out []Statement
	for _, h := range s.History {
		if h.Round < round {
			out = append(out, h.Responses...)
		}
	}
	return out
}

// Clone returns a deep copy.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	c.Order = slices.Clone(s.Order)
	c.ActiveAIs = slices.Clone(s.ActiveAIs)
	c.Votes = slices.Clone(s.Votes)
	c.Eliminated = slices.Clone(s.Eliminated)
	c.Ballots = slices.Clone(s.Ballots)
	c.PlayerMap = make(map[string]string, len(s.PlayerMap))
	for k, v := range s.PlayerMap {
		c.PlayerMap[k] = v
	}
	if s.LastVote != nil {
		c.LastVote = make(map[string]string, len(s.LastVote))
		for k, v := range s.LastVote {
			c.LastVote[k] = v
		}
	}
	c.History = make([]RoundHistory, len(s.History))
	for i, h := range s.History {
		c.History[i] = RoundHistory{Round: h.Round, Responses: slices.Clone(h.Responses)}
	}
	return &c
}
