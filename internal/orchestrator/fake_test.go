package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cyber_cricket/internal/domain"
)

var errNetwork = errors.New("connection reset")

// fakeGame is a scripted in-memory game service. Each round's vote settles on
// the last voter: plan[round] is eliminated, or the round ties when absent.
type fakeGame struct {
	mu        sync.Mutex
	state     domain.GameState
	plan      map[int]string
	failures  map[string]error
	responses map[string]*domain.StepResponse
	calls     []domain.StepRequest
	advances  []int
	startErr  error
	startGate chan struct{}
	stepGate  chan struct{}

	holds       map[string]*hold
	stateCalls  int
	stateErrs   map[int]error
	advanceErrs []func(st *domain.GameState) error
	advanceTry  int
}

// hold parks one step inside the service until release is closed.
type hold struct {
	entered chan struct{}
	release chan struct{}
}

func newFakeGame(ids ...string) *fakeGame {
	f := &fakeGame{
		plan:      map[int]string{},
		failures:  map[string]error{},
		responses: map[string]*domain.StepResponse{},
		holds:     map[string]*hold{},
		stateErrs: map[int]error{},
		state: domain.GameState{
			PlayerMap: map[string]string{},
		},
	}
	for i, id := range ids {
		f.state.Order = append(f.state.Order, id)
		f.state.PlayerMap[id] = fmt.Sprintf("Player %d", i+1)
	}
	return f
}

func stepKey(stage domain.Stage, round, index int) string {
	return fmt.Sprintf("%s/%d/%d", stage, round, index)
}

// failOnce makes the step at key fail with err the first time it is issued.
func (f *fakeGame) failOnce(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = err
}

// holdStep parks the step at key once it reaches the service.
func (f *fakeGame) holdStep(key string) *hold {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := &hold{entered: make(chan struct{}), release: make(chan struct{})}
	f.holds[key] = h
	return h
}

// failState makes the n-th State call (1-based) fail with err.
func (f *fakeGame) failState(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateErrs[n] = err
}

// failAdvance queues fn to answer the next AdvanceRound call instead of the
// normal logic; fn may mutate the state before returning its error.
func (f *fakeGame) failAdvance(fn func(st *domain.GameState) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceErrs = append(f.advanceErrs, fn)
}

func (f *fakeGame) StartGame(ctx context.Context) (*domain.StartGameResult, error) {
	if f.startGate != nil {
		<-f.startGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}

	f.state.Round = 1
	f.state.ActiveAIs = append([]string(nil), f.state.Order...)
	res := &domain.StartGameResult{Round: 1, PlayerMap: f.state.PlayerMap}
	for _, id := range f.state.Order {
		res.Responses = append(res.Responses, domain.Statement{AIID: id, Name: f.state.PlayerMap[id], Response: "hi, I am " + id})
	}
	return res, nil
}

func (f *fakeGame) AdvanceRound(ctx context.Context, round int) (*domain.AdvanceRoundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceTry++
	if len(f.advanceErrs) > 0 {
		fn := f.advanceErrs[0]
		f.advanceErrs = f.advanceErrs[1:]
		return nil, fn(&f.state)
	}
	if f.state.Winner != "" {
		return nil, domain.GameOverError(f.state.Winner)
	}
	switch round {
	case f.state.Round + 1:
		f.state.Round = round
	case f.state.Round:
	default:
		return nil, domain.Rejected("round mismatch")
	}
	f.advances = append(f.advances, round)
	return &domain.AdvanceRoundResult{Round: f.state.Round, ActiveAIs: append([]string(nil), f.state.ActiveAIs...)}, nil
}

func (f *fakeGame) Step(ctx context.Context, req domain.StepRequest) (*domain.StepResponse, error) {
	if f.stepGate != nil {
		<-f.stepGate
	}
	key := stepKey(req.Stage, req.Round, req.AIIndex)

	f.mu.Lock()
	h := f.holds[key]
	delete(f.holds, key)
	f.mu.Unlock()
	if h != nil {
		close(h.entered)
		<-h.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)

	if err, ok := f.failures[key]; ok {
		delete(f.failures, key)
		return nil, err
	}
	if f.state.Winner != "" {
		return nil, domain.GameOverError(f.state.Winner)
	}
	if req.Round != f.state.Round {
		return nil, domain.Rejected("round mismatch")
	}
	if req.AIIndex < 0 || req.AIIndex >= len(f.state.ActiveAIs) {
		return nil, domain.Rejected("invalid ai index")
	}
	if resp, ok := f.responses[key]; ok {
		if resp.IsGameOver {
			f.state.Winner = resp.Winner
		}
		return resp, nil
	}

	id := f.state.ActiveAIs[req.AIIndex]
	resp := &domain.StepResponse{Stage: req.Stage, AIIndex: req.AIIndex, AIID: id, AIName: f.state.PlayerMap[id], Round: req.Round}
	if req.Stage == domain.StageSpeak {
		resp.Response = "statement from " + id
		return resp, nil
	}

	resp.TargetID = domain.AbstainID
	if req.AIIndex < len(f.state.ActiveAIs)-1 {
		return resp, nil
	}

	resp.IsStageEnd = true
	out, ok := f.plan[req.Round]
	if !ok {
		resp.SkipElimination = true
		resp.Message = "tied vote, nobody eliminated"
		return resp, nil
	}
	resp.TargetID = out
	resp.TargetName = f.state.PlayerMap[out]
	resp.EliminatedAI = out
	f.state.Eliminated = append(f.state.Eliminated, domain.Elimination{Round: req.Round, AIID: out})
	var left []string
	for _, a := range f.state.ActiveAIs {
		if a != out {
			left = append(left, a)
		}
	}
	f.state.ActiveAIs = left
	if len(left) == 1 {
		f.state.Winner = left[0]
	}
	return resp, nil
}

func (f *fakeGame) State(ctx context.Context) (*domain.GameState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateCalls++
	if err, ok := f.stateErrs[f.stateCalls]; ok {
		return nil, err
	}
	return f.state.Clone(), nil
}

func (f *fakeGame) stepCalls() []domain.StepRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.StepRequest(nil), f.calls...)
}

func (f *fakeGame) advanceAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.advanceTry
}

func (f *fakeGame) advanceCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.advances...)
}

// instantClock fires immediately and records every requested delay.
type instantClock struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (c *instantClock) requested() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestSequencer(svc GameService) (*Sequencer, *instantClock, *recorder) {
	clock := &instantClock{}
	rec := &recorder{}
	seq := NewSequencer(svc, Options{
		SpeakDelay: 800 * time.Millisecond,
		VoteDelay:  1200 * time.Millisecond,
		Cooldown:   3 * time.Second,
		Clock:      clock,
		Observer:   rec,
	})
	return seq, clock, rec
}

func waitDone(t *testing.T, seq *Sequencer) {
	t.Helper()
	select {
	case <-seq.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("game did not finish, phase %s", seq.Phase())
	}
}

// callsFor filters step calls by stage and round.
func callsFor(calls []domain.StepRequest, stage domain.Stage, round int) []int {
	var idx []int
	for _, c := range calls {
		if c.Stage == stage && c.Round == round {
			idx = append(idx, c.AIIndex)
		}
	}
	return idx
}
