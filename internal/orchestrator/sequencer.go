// Package orchestrator sequences an elimination game against an authoritative
// game service: speak steps, then vote steps, then a round transition, until a
// winner is known.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"cyber_cricket/internal/domain"
	"cyber_cricket/internal/logger"
)

var (
	ErrAlreadyRunning = errors.New("game already running")
	ErrNotRunning     = errors.New("no game running")
	ErrQueueFull      = errors.New("sequencer queue full")
)

type Options struct {
	SpeakDelay time.Duration
	VoteDelay  time.Duration
	Cooldown   time.Duration
	Clock      Clock
	Observer   Observer
}

func (o *Options) setDefaults() {
	if o.SpeakDelay <= 0 {
		o.SpeakDelay = 800 * time.Millisecond
	}
	if o.VoteDelay <= 0 {
		o.VoteDelay = 1200 * time.Millisecond
	}
	if o.Cooldown <= 0 {
		o.Cooldown = 3 * time.Second
	}
	if o.Clock == nil {
		o.Clock = RealClock
	}
	if o.Observer == nil {
		o.Observer = Observers(nil)
	}
}

// Status is what outside callers see of the sequencer.
type Status struct {
	InProgress bool       `json:"in_progress"`
	Phase      PhaseState `json:"phase"`
	Stalled    bool       `json:"stalled"`
	Total      int        `json:"total"`
}

// Sequencer owns the phase state machine. All state of a running game lives in
// a session driven by a single run-loop goroutine; the fields below only hold
// copies published for readers.
type Sequencer struct {
	svc      GameService
	stepper  *Stepper
	recovery RecoveryPolicy
	opts     Options
	clock    Clock
	observer Observer
	log      *slog.Logger

	inProgress atomic.Bool

	mu       sync.RWMutex
	cur      *session
	status   Status
	view     View
	openings []domain.Statement
}

func NewSequencer(svc GameService, opts Options) *Sequencer {
	opts.setDefaults()
	return &Sequencer{
		svc:      svc,
		stepper:  NewStepper(svc),
		recovery: RecoveryPolicy{Cooldown: opts.Cooldown},
		opts:     opts,
		clock:    opts.Clock,
		observer: opts.Observer,
		log:      logger.Component("sequencer"),
		status:   Status{Phase: phaseAt(NotStarted, 0, 0)},
	}
}

// Start runs the precheck and then drives rounds in the background. ctx bounds
// the service calls of the whole game.
func (s *Sequencer) Start(ctx context.Context) error {
	if !s.inProgress.CompareAndSwap(false, true) {
		s.notice(LevelWarn, s.Phase(), "game already running")
		return ErrAlreadyRunning
	}

	r := &session{
		seq:   s,
		ctx:   ctx,
		quit:  make(chan struct{}),
		tasks: make(chan task, 16),
		done:  make(chan struct{}),
		phase: phaseAt(NotStarted, 0, 0),
	}

	s.mu.Lock()
	prev := s.cur
	s.cur = r
	s.status = Status{Phase: r.phase}
	s.view = View{}
	s.openings = nil
	s.mu.Unlock()

	if prev != nil {
		prev.close()
	}

	s.log.Info("game starting")
	go r.loop()
	r.tasks <- r.precheck
	return nil
}

// Stop clears the in-progress flag. A service call already in flight completes
// but its result is discarded.
func (s *Sequencer) Stop() {
	r := s.current()
	if !s.inProgress.CompareAndSwap(true, false) {
		return
	}
	if r != nil {
		r.close()
	}
	s.notice(LevelInfo, s.Phase(), "game stopped")
}

// Retry re-runs the action a stalled game is parked on.
func (s *Sequencer) Retry() error {
	r := s.current()
	if r == nil || !r.live() {
		return ErrNotRunning
	}
	return r.submit(func() {
		t := r.stalled
		if t == nil {
			r.seq.notice(LevelInfo, r.phase, "nothing to retry")
			return
		}
		r.stalled = nil
		r.seq.notice(LevelInfo, r.phase, "retrying "+r.phase.String())
		t()
	})
}

// Reconcile merges an authoritative snapshot into the running game's view.
// A snapshot older than the view is dropped; it may have been read before a
// settlement the loop has already applied.
func (s *Sequencer) Reconcile(st *domain.GameState) error {
	r := s.current()
	if r == nil || !r.live() {
		return ErrNotRunning
	}
	return r.submit(func() {
		if Stale(r.view, st) {
			r.seq.log.Debug("dropping stale snapshot", "round", st.Round, "view_round", r.view.Round)
			return
		}
		r.view = Merge(r.view, st)
		r.publish()
	})
}

func (s *Sequencer) InProgress() bool {
	return s.inProgress.Load()
}

func (s *Sequencer) Phase() PhaseState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Phase
}

func (s *Sequencer) Status() Status {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()
	st.InProgress = s.inProgress.Load()
	return st
}

// View returns a copy of the last published view.
func (s *Sequencer) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.clone()
}

// Openings returns the precheck statements in roster order.
func (s *Sequencer) Openings() []domain.Statement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Statement(nil), s.openings...)
}

// Transcript returns the step results of the current game. Display only.
func (s *Sequencer) Transcript() []StepResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]StepResult(nil), s.view.Transcript...)
}

// Done is closed when the most recently started game has finished or stopped.
func (s *Sequencer) Done() <-chan struct{} {
	r := s.current()
	if r == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return r.done
}

func (s *Sequencer) current() *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// release ends r if it is still the current session.
func (s *Sequencer) release(r *session) {
	s.mu.Lock()
	if s.cur == r {
		s.inProgress.Store(false)
	}
	s.mu.Unlock()
	r.close()
}

func (s *Sequencer) notice(level string, p PhaseState, msg string) {
	switch level {
	case LevelError:
		s.log.Error(msg, "phase", p.String())
	case LevelWarn:
		s.log.Warn(msg, "phase", p.String())
	default:
		s.log.Info(msg, "phase", p.String())
	}
	s.observer.Publish(Event{Type: EventNotice, Round: p.Round, Phase: p.Name, Level: level, Message: msg})
}

type task func()

// session is one game run. Every field below done is touched only by the
// run-loop goroutine.
type session struct {
	seq      *Sequencer
	ctx      context.Context
	quit     chan struct{}
	quitOnce sync.Once
	tasks    chan task
	done     chan struct{}

	phase    PhaseState
	total    int
	stalled  task
	view     View
	openings []domain.Statement
}

func (r *session) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.quit:
			return
		case <-r.ctx.Done():
			r.seq.release(r)
			return
		case t := <-r.tasks:
			if !r.live() {
				return
			}
			t()
		}
	}
}

func (r *session) close() {
	r.quitOnce.Do(func() { close(r.quit) })
}

// live is checked before every continuation acts.
func (r *session) live() bool {
	select {
	case <-r.quit:
		return false
	default:
	}
	return r.seq.inProgress.Load() && r.seq.current() == r
}

// after enqueues t once d has elapsed.
func (r *session) after(d time.Duration, t task) {
	go func() {
		select {
		case <-r.seq.clock.After(d):
		case <-r.quit:
			return
		}
		select {
		case r.tasks <- t:
		case <-r.quit:
		}
	}()
}

func (r *session) submit(t task) error {
	select {
	case <-r.quit:
		return ErrNotRunning
	default:
	}
	select {
	case r.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *session) delay(kind PhaseKind) time.Duration {
	if kind == Voting {
		return r.seq.opts.VoteDelay
	}
	return r.seq.opts.SpeakDelay
}

func (r *session) setPhase(p PhaseState) {
	prev := r.phase
	r.phase = p
	r.publish()
	if prev.Kind != p.Kind || prev.Round != p.Round {
		r.seq.observer.Publish(Event{Type: EventPhase, Round: p.Round, Phase: p.Name})
	}
}

// publish copies session state out for readers.
func (r *session) publish() {
	s := r.seq
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != r {
		return
	}
	s.status = Status{Phase: r.phase, Stalled: r.stalled != nil, Total: r.total}
	s.view = r.view.clone()
	s.openings = append(s.openings[:0], r.openings...)
}

func (r *session) precheck() {
	r.setPhase(phaseAt(Precheck, 0, 0))

	res, err := r.seq.svc.StartGame(r.ctx)
	if !r.live() {
		return
	}
	if err != nil {
		r.seq.notice(LevelError, r.phase, fmt.Sprintf("precheck failed: %v", err))
		r.setPhase(phaseAt(NotStarted, 0, 0))
		r.seq.release(r)
		return
	}

	r.openings = append([]domain.Statement(nil), res.Responses...)
	r.view.PlayerMap = make(map[string]string, len(res.PlayerMap))
	for id, name := range res.PlayerMap {
		r.view.PlayerMap[id] = name
	}
	r.view.Active = r.view.Active[:0]
	for _, st := range res.Responses {
		r.view.Active = append(r.view.Active, st.AIID)
		r.seq.observer.Publish(Event{
			Type:        EventOpening,
			Phase:       Precheck.String(),
			Participant: st.Name,
			Message:     st.Response,
		})
	}

	st, err := r.seq.svc.State(r.ctx)
	if !r.live() {
		return
	}
	if err != nil {
		r.seq.notice(LevelWarn, r.phase, fmt.Sprintf("state read after precheck failed, using precheck roster: %v", err))
	} else {
		r.view = Merge(r.view, st)
	}

	r.enterPhase(Speaking, 1)
}

// enterPhase captures the roster size for the whole phase and schedules index 0.
func (r *session) enterPhase(kind PhaseKind, round int) {
	r.total = len(r.view.Active)
	r.stalled = nil
	r.setPhase(phaseAt(kind, round, 0))

	if r.total == 0 {
		r.seq.notice(LevelWarn, r.phase, "no active participants")
		if kind == Speaking {
			r.enterPhase(Voting, round)
		} else {
			r.roundTransition(round)
		}
		return
	}
	r.after(r.delay(kind), r.step)
}

func (r *session) step() {
	p := r.phase
	res, err := r.seq.stepper.Step(r.ctx, p.Stage(), p.Index, p.Round, r.total)
	if !r.live() {
		return
	}
	if err != nil {
		r.recover(p, err)
		return
	}

	r.view.Transcript = append(r.view.Transcript, *res)
	r.publish()
	r.seq.observer.Publish(Event{
		Type:        EventProgress,
		Round:       p.Round,
		Phase:       p.Name,
		Participant: res.ParticipantName,
		Result:      res,
	})
	if res.TiedNoElimination {
		r.seq.observer.Publish(Event{Type: EventTie, Round: p.Round, Phase: p.Name, Tied: true, Message: res.Message})
	}

	if res.GameOver {
		r.gameOver(res.WinnerID)
		return
	}
	r.advanceAfterStep()
}

func (r *session) advanceAfterStep() {
	p := r.phase
	switch {
	case p.Index < r.total-1:
		r.setPhase(phaseAt(p.Kind, p.Round, p.Index+1))
		r.after(r.delay(p.Kind), r.step)
	case p.Kind == Speaking:
		r.enterPhase(Voting, p.Round)
	default:
		r.roundTransition(p.Round)
	}
}

func (r *session) recover(p PhaseState, err error) {
	r.seq.notice(LevelError, p, err.Error())

	switch r.seq.recovery.Decide(err, p.Index, r.total) {
	case DecisionTerminate:
		winner := r.winnerFromState()
		if r.live() {
			r.gameOver(winner)
		}
	case DecisionForceAdvance:
		r.seq.notice(LevelWarn, p, fmt.Sprintf("forcing advance past %s in %s", p, r.seq.opts.Cooldown))
		r.after(r.seq.opts.Cooldown, r.advanceAfterStep)
	default:
		r.stall(r.step, fmt.Sprintf("stalled at %s; retry or restart the game", p))
	}
}

func (r *session) stall(t task, msg string) {
	r.stalled = t
	r.publish()
	r.seq.notice(LevelWarn, r.phase, msg)
}

// roundTransition decides between the next round and game over using a fresh
// authoritative snapshot, never the cached roster.
func (r *session) roundTransition(round int) {
	r.setPhase(phaseAt(RoundTransition, round, 0))
	retry := func() { r.roundTransition(round) }

	st, err := r.seq.svc.State(r.ctx)
	if !r.live() {
		return
	}
	if err != nil {
		r.seq.notice(LevelError, r.phase, fmt.Sprintf("state read failed: %v", err))
		r.after(r.seq.opts.Cooldown, retry)
		return
	}

	r.view = Merge(r.view, st)
	r.publish()
	if st.Winner != "" || len(r.view.Active) <= 1 {
		r.gameOver(soleWinner(r.view))
		return
	}

	_, err = r.seq.svc.AdvanceRound(r.ctx, round+1)
	if !r.live() {
		return
	}
	if err != nil {
		var svcErr *domain.ServiceError
		switch {
		case errors.As(err, &svcErr) && svcErr.GameOver:
			winner := r.winnerFromState()
			if r.live() {
				r.gameOver(winner)
			}
		case errors.As(err, &svcErr):
			r.seq.notice(LevelError, r.phase, fmt.Sprintf("advance to round %d rejected: %v", round+1, err))
			r.stall(retry, fmt.Sprintf("stalled at %s; retry or restart the game", r.phase))
		default:
			r.seq.notice(LevelError, r.phase, fmt.Sprintf("advance to round %d failed: %v", round+1, err))
			r.after(r.seq.opts.Cooldown, retry)
		}
		return
	}

	r.view.Round = round + 1
	r.enterPhase(Speaking, round+1)
}

func (r *session) winnerFromState() string {
	st, err := r.seq.svc.State(r.ctx)
	if err != nil {
		return ""
	}
	return soleWinner(Merge(r.view, st))
}

func soleWinner(v View) string {
	if v.Winner != "" {
		return v.Winner
	}
	if len(v.Active) == 1 {
		return v.Active[0]
	}
	return ""
}

func (r *session) gameOver(winner string) {
	p := phaseAt(GameOver, r.phase.Round, 0)
	p.Winner = winner
	r.setPhase(p)
	r.seq.observer.Publish(Event{Type: EventGameOver, Round: p.Round, Phase: p.Name, WinnerID: winner})
	r.seq.log.Info("game over", "round", p.Round, "winner", winner)
	r.seq.release(r)
}
