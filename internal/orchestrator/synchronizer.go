package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"cyber_cricket/internal/domain"
	"cyber_cricket/internal/logger"
)

// View is the orchestrator's mirror of the authoritative game. Everything but
// Transcript comes from the service; Transcript is the local display cache.
type View struct {
	Round      int                  `json:"round"`
	Active     []string             `json:"active"`
	PlayerMap  map[string]string    `json:"player_map"`
	Votes      []domain.Vote        `json:"votes"`
	Eliminated []domain.Elimination `json:"eliminated"`
	Winner     string               `json:"winner,omitempty"`
	Transcript []StepResult         `json:"transcript"`
}

// Name resolves a participant id for display. The abstain id has no name.
func (v View) Name(id string) string {
	if id == "" || id == domain.AbstainID {
		return ""
	}
	return v.PlayerMap[id]
}

func (v View) clone() View {
	out := v
	out.Active = append([]string(nil), v.Active...)
	out.Votes = append([]domain.Vote(nil), v.Votes...)
	out.Eliminated = append([]domain.Elimination(nil), v.Eliminated...)
	out.Transcript = append([]StepResult(nil), v.Transcript...)
	out.PlayerMap = make(map[string]string, len(v.PlayerMap))
	for k, name := range v.PlayerMap {
		out.PlayerMap[k] = name
	}
	return out
}

// Merge reconciles the local view with an authoritative snapshot. The remote
// side always wins for round, roster, votes, eliminations, winner and names.
// A nil snapshot leaves local untouched.
func Merge(local View, remote *domain.GameState) View {
	if remote == nil {
		return local
	}

	out := View{
		Round:      remote.Round,
		Votes:      append([]domain.Vote(nil), remote.Votes...),
		Eliminated: append([]domain.Elimination(nil), remote.Eliminated...),
		Winner:     remote.Winner,
		PlayerMap:  make(map[string]string, len(remote.PlayerMap)),
		Transcript: append([]StepResult(nil), local.Transcript...),
	}
	for id, name := range remote.PlayerMap {
		out.PlayerMap[id] = name
	}

	gone := make(map[string]bool, len(remote.Eliminated))
	for _, e := range remote.Eliminated {
		gone[e.AIID] = true
	}
	for _, id := range remote.ActiveAIs {
		if !gone[id] && id != domain.AbstainID {
			out.Active = append(out.Active, id)
		}
	}
	return out
}

// Stale reports whether remote is older than what local already holds. Within
// one game a snapshot only moves forward: a winner appears, the round grows,
// eliminations and settled ballots accumulate.
func Stale(local View, remote *domain.GameState) bool {
	if remote == nil {
		return true
	}
	have := [...]int{flag(local.Winner != ""), local.Round, len(local.Eliminated), len(local.Votes)}
	got := [...]int{flag(remote.Winner != ""), remote.Round, len(remote.Eliminated), len(remote.Votes)}
	for i := range have {
		if got[i] != have[i] {
			return got[i] < have[i]
		}
	}
	return false
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Synchronizer periodically pulls the full snapshot while a game runs and
// hands it to the sequencer's task queue.
type Synchronizer struct {
	svc      GameService
	seq      *Sequencer
	interval time.Duration
	clock    Clock
	log      *slog.Logger
}

func NewSynchronizer(svc GameService, seq *Sequencer, interval time.Duration) *Synchronizer {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Synchronizer{
		svc:      svc,
		seq:      seq,
		interval: interval,
		clock:    seq.clock,
		log:      logger.Component("synchronizer"),
	}
}

// Run refreshes every interval until ctx is done.
func (y *Synchronizer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-y.clock.After(y.interval):
		}

		if !y.seq.InProgress() {
			continue
		}
		if err := y.Refresh(ctx); err != nil {
			y.log.Debug("state refresh failed", "error", err)
		}
	}
}

// Refresh reads one snapshot and submits it for reconciliation.
func (y *Synchronizer) Refresh(ctx context.Context) error {
	st, err := y.svc.State(ctx)
	if err != nil {
		return err
	}
	return y.seq.Reconcile(st)
}
