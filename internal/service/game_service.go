package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cyber_cricket/internal/ai"
	"cyber_cricket/internal/domain"
	"cyber_cricket/internal/logger"
	"cyber_cricket/internal/repository"
)

type GameConfig struct {
	MinParticipants int
	MaxParticipants int
	// FinalSurvivors is the roster size at which the survivors share the win.
	FinalSurvivors int
}

// GameService is the authoritative game. Every mutation runs under mu, reads
// go straight to the store.
type GameService struct {
	mu           sync.Mutex
	games        repository.GameStates
	participants repository.Participants
	responder    ai.Responder
	prompts      *PromptService
	audit        *AuditService
	cfg          GameConfig
	log          *slog.Logger
}

func NewGameService(store *repository.Store, responder ai.Responder, prompts *PromptService, audit *AuditService, cfg GameConfig) *GameService {
	if cfg.MinParticipants < 2 {
		cfg.MinParticipants = 2
	}
	if cfg.FinalSurvivors < 1 {
		cfg.FinalSurvivors = 1
	}
	return &GameService{
		games:        store.Games,
		participants: store.Participants,
		responder:    responder,
		prompts:      prompts,
		audit:        audit,
		cfg:          cfg,
		log:          logger.Component("game"),
	}
}

// StartGame seats every registered participant and runs the precheck round
// in which each one introduces itself.
func (s *GameService) StartGame(ctx context.Context) (*domain.StartGameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster, err := s.participants.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(roster) < s.cfg.MinParticipants {
		return nil, domain.Rejected(fmt.Sprintf("need at least %d participants to start", s.cfg.MinParticipants))
	}
	if s.cfg.MaxParticipants > 0 && len(roster) > s.cfg.MaxParticipants {
		return nil, domain.Rejected(fmt.Sprintf("at most %d participants can play", s.cfg.MaxParticipants))
	}

	prompt, err := s.prompts.Get(ctx)
	if err != nil {
		return nil, err
	}

	st := &domain.GameState{
		PlayerMap:  make(map[string]string, len(roster)),
		Votes:      []domain.Vote{},
		Eliminated: []domain.Elimination{},
		History:    []domain.RoundHistory{},
		LastVote:   map[string]string{},
	}
	for i, p := range roster {
		st.Order = append(st.Order, p.ID)
		st.ActiveAIs = append(st.ActiveAIs, p.ID)
		st.PlayerMap[p.ID] = fmt.Sprintf("Player %d", i+1)
	}
	if err := s.games.Save(ctx, st); err != nil {
		return nil, err
	}
	s.log.Info("precheck started", "participants", len(roster))

	precheck := st.RoundHistory(0)
	for _, p := range roster {
		name := st.PlayerMap[p.ID]
		text := s.responder.Speak(ctx, p, name, nil, prompt)
		if err := ctx.Err(); err != nil {
			return nil, domain.Internal(fmt.Sprintf("precheck of %s interrupted: %v", name, err))
		}
		precheck.Responses = append(precheck.Responses, domain.Statement{AIID: p.ID, Name: name, Response: text})
	}
	responses := append([]domain.Statement(nil), precheck.Responses...)

	st.Round = 1
	st.RoundHistory(1)
	if err := s.games.Save(ctx, st); err != nil {
		return nil, err
	}

	s.audit.LogGame(ctx, domain.AuditActionGameStart, 0, map[string]interface{}{"participants": st.Order})
	return &domain.StartGameResult{Responses: responses, Round: 0, PlayerMap: st.PlayerMap}, nil
}

// AdvanceRound moves the game to round. Asking for the current round again is
// a no-op. Ballots of the old round that were never settled are archived
// without eliminating anyone.
func (s *GameService) AdvanceRound(ctx context.Context, round int) (*domain.AdvanceRoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if st.IsOver() {
		return nil, domain.GameOverError(st.Winner)
	}

	switch round {
	case st.Round:
	case st.Round + 1:
		if len(st.Ballots) > 0 {
			s.log.Warn("archiving unsettled ballots", "round", st.Round, "ballots", len(st.Ballots))
			st.Votes = append(st.Votes, st.Ballots...)
			st.Ballots = nil
		}
		st.Round = round
		st.RoundHistory(round)
		if err := s.games.Save(ctx, st); err != nil {
			return nil, err
		}
		s.audit.LogGame(ctx, domain.AuditActionRoundAdvance, round, nil)
	default:
		return nil, domain.Rejected(fmt.Sprintf("round mismatch: game is in round %d", st.Round))
	}

	return &domain.AdvanceRoundResult{
		Round:     st.Round,
		ActiveAIs: append([]string(nil), st.ActiveAIs...),
		PlayerMap: st.PlayerMap,
	}, nil
}

// Step performs one speak or vote action for the participant at AIIndex of
// the active roster.
func (s *GameService) Step(ctx context.Context, req domain.StepRequest) (*domain.StepResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(st.ActiveAIs) == 0 {
		return nil, domain.Rejected("start the game first")
	}
	if st.IsOver() {
		return nil, domain.GameOverError(st.Winner)
	}
	if req.Stage != domain.StageSpeak && req.Stage != domain.StageVote {
		return nil, domain.Rejected(fmt.Sprintf("unknown stage %q", req.Stage))
	}
	if req.Round != st.Round {
		return nil, domain.Rejected(fmt.Sprintf("round mismatch: game is in round %d", st.Round))
	}
	if req.AIIndex < 0 || req.AIIndex >= len(st.ActiveAIs) {
		return nil, domain.Rejected(fmt.Sprintf("invalid ai index %d", req.AIIndex))
	}

	id := st.ActiveAIs[req.AIIndex]
	p, err := s.participants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrParticipantNotFound) {
			return nil, domain.Internal(fmt.Sprintf("participant %s is no longer registered", id))
		}
		return nil, err
	}

	resp := &domain.StepResponse{
		Stage:      req.Stage,
		AIIndex:    req.AIIndex,
		AIID:       id,
		AIName:     st.DisplayName(id),
		Round:      st.Round,
		IsStageEnd: req.AIIndex == len(st.ActiveAIs)-1,
	}

	if req.Stage == domain.StageSpeak {
		s.speak(ctx, st, p, resp)
	} else {
		if !st.HasSpoken(st.Round) {
			return nil, domain.Rejected("nobody has spoken this round yet")
		}
		s.vote(ctx, st, p, resp)
		if resp.IsStageEnd {
			s.settle(ctx, st, resp)
		}
	}

	if err := s.games.Save(ctx, st); err != nil {
		return nil, err
	}
	if resp.Winner != "" {
		s.award(ctx, st)
	}
	return resp, nil
}

func (s *GameService) speak(ctx context.Context, st *domain.GameState, p *domain.Participant, resp *domain.StepResponse) {
	resp.Response = s.responder.Speak(ctx, p, resp.AIName, st.StatementsBefore(st.Round), ai.SpeakSituation(st.Round))

	h := st.RoundHistory(st.Round)
	for _, r := range h.Responses {
		if r.AIID == p.ID {
			return
		}
	}
	h.Responses = append(h.Responses, domain.Statement{AIID: p.ID, Name: resp.AIName, Response: resp.Response})
}

// vote records one ballot per voter and round; a repeated request returns the
// ballot already cast.
func (s *GameService) vote(ctx context.Context, st *domain.GameState, p *domain.Participant, resp *domain.StepResponse) {
	target := ""
	for _, b := range st.Ballots {
		if b.Round == st.Round && b.VoterID == p.ID {
			target = b.TargetID
		}
	}
	if target == "" {
		target = s.responder.Vote(ctx, p, st, st.Round)
		st.Ballots = append(st.Ballots, domain.Vote{Round: st.Round, VoterID: p.ID, TargetID: target})
		if st.LastVote == nil {
			st.LastVote = map[string]string{}
		}
		st.LastVote[p.ID] = target
	}

	resp.TargetID = target
	resp.TargetName = st.DisplayName(target)
}

// settle counts the round's ballots after the last voter. A tie or a round
// where everyone abstained eliminates nobody.
func (s *GameService) settle(ctx context.Context, st *domain.GameState, resp *domain.StepResponse) {
	round := st.Round
	counts := map[string]int{}
	var order []string
	for _, b := range st.Ballots {
		if b.Round != round || b.Abstained() {
			continue
		}
		if counts[b.TargetID] == 0 {
			order = append(order, b.TargetID)
		}
		counts[b.TargetID]++
	}
	st.Votes = append(st.Votes, st.Ballots...)
	st.Ballots = nil

	best, top := 0, []string(nil)
	for _, id := range order {
		switch n := counts[id]; {
		case n > best:
			best, top = n, []string{id}
		case n == best:
			top = append(top, id)
		}
	}

	if best == 0 || len(top) > 1 {
		resp.SkipElimination = true
		resp.Message = "tied vote, nobody is eliminated this round"
		if best == 0 {
			resp.Message = "everyone abstained, nobody is eliminated this round"
		}
		s.log.Info("vote tied", "round", round, "candidates", top)
		s.audit.LogGame(ctx, domain.AuditActionVoteTied, round, map[string]interface{}{"candidates": top})
		return
	}

	out := top[0]
	active := st.ActiveAIs[:0]
	for _, id := range st.ActiveAIs {
		if id != out {
			active = append(active, id)
		}
	}
	st.ActiveAIs = active
	st.Eliminated = append(st.Eliminated, domain.Elimination{Round: round, AIID: out})
	resp.EliminatedAI = out
	resp.Message = st.DisplayName(out) + " has been eliminated"
	s.log.Info("participant eliminated", "round", round, "participant", out, "votes", best)
	s.audit.LogGame(ctx, domain.AuditActionEliminated, round, map[string]interface{}{"participant_id": out, "votes": best})

	if len(st.ActiveAIs) <= s.cfg.FinalSurvivors {
		s.declareWinner(st)
		resp.Winner = st.Winner
	}
}

// declareWinner ends the game: the survivors share the win.
func (s *GameService) declareWinner(st *domain.GameState) {
	st.Winner = strings.Join(st.ActiveAIs, domain.WinnerSeparator)
}

// award runs once the final state is stored: winners gain a point,
// eliminated participants lose one.
func (s *GameService) award(ctx context.Context, st *domain.GameState) {
	deltas := map[string]int{}
	for _, id := range st.ActiveAIs {
		deltas[id]++
	}
	for _, e := range st.Eliminated {
		deltas[e.AIID]--
	}
	if err := s.participants.AddScores(ctx, deltas); err != nil {
		s.log.Error("failed to update scores", "error", err)
	}

	s.log.Info("game over", "round", st.Round, "winner", st.Winner)
	s.audit.LogGame(ctx, domain.AuditActionGameOver, st.Round, map[string]interface{}{"winner": st.Winner})
}

// State returns the full snapshot.
func (s *GameService) State(ctx context.Context) (*domain.GameState, error) {
	return s.games.Load(ctx)
}

func (s *GameService) load(ctx context.Context) (*domain.GameState, error) {
	st, err := s.games.Load(ctx)
	if errors.Is(err, domain.ErrNoGame) {
		return nil, domain.Rejected("start the game first")
	}
	return st, err
}
