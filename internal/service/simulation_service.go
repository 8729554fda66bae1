package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cyber_cricket/internal/cache"
	"cyber_cricket/internal/domain"
	"cyber_cricket/internal/logger"
	"cyber_cricket/internal/orchestrator"
)

// SimulationService runs the embedded orchestrator against this process's own
// game service. The run lock keeps a single simulation alive across server
// instances sharing one Redis.
type SimulationService struct {
	seq   *orchestrator.Sequencer
	lock  *cache.RunLock
	owner string
	// base outlives requests; the game's service calls are bound to it.
	base context.Context
	log  *slog.Logger
}

func NewSimulationService(base context.Context, seq *orchestrator.Sequencer, lock *cache.RunLock, owner string) *SimulationService {
	return &SimulationService{
		seq:   seq,
		lock:  lock,
		owner: owner,
		base:  base,
		log:   logger.Component("simulation"),
	}
}

func (s *SimulationService) Start(ctx context.Context) error {
	if s.seq.InProgress() {
		// publishes the "already running" notice
		return s.seq.Start(s.base)
	}

	if err := s.lock.Acquire(ctx, s.owner); err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return orchestrator.ErrAlreadyRunning
		}
		s.log.Warn("run lock unavailable, starting without it", "error", err)
	}

	if err := s.seq.Start(s.base); err != nil {
		_ = s.lock.Release(ctx, s.owner)
		return err
	}

	holdCtx, cancel := context.WithCancel(s.base)
	done := s.seq.Done()
	go func() {
		<-done
		cancel()
	}()
	go s.lock.Hold(holdCtx, s.owner)
	return nil
}

func (s *SimulationService) Stop() {
	s.seq.Stop()
}

func (s *SimulationService) Retry() error {
	return s.seq.Retry()
}

func (s *SimulationService) Status() orchestrator.Status {
	return s.seq.Status()
}

// Wait blocks until the current game ends or timeout elapses.
func (s *SimulationService) Wait(timeout time.Duration) bool {
	select {
	case <-s.seq.Done():
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *SimulationService) Openings() []domain.Statement {
	return s.seq.Openings()
}

func (s *SimulationService) Transcript() []orchestrator.StepResult {
	return s.seq.Transcript()
}
