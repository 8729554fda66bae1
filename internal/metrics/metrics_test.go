package metrics

import (
	"testing"

	"cyber_cricket/internal/domain"
	"cyber_cricket/internal/orchestrator"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return out.Gauge.GetValue()
}

func TestObserverCountsEvents(t *testing.T) {
	steps := value(t, Steps.WithLabelValues("vote"))
	elim := value(t, Eliminations)
	ties := value(t, Ties)
	won := value(t, Games.WithLabelValues("winner"))

	var obs Observer
	obs.Publish(orchestrator.Event{Type: orchestrator.EventProgress, Result: &orchestrator.StepResult{Stage: domain.StageVote, EliminatedID: "b"}})
	obs.Publish(orchestrator.Event{Type: orchestrator.EventTie, Tied: true})
	obs.Publish(orchestrator.Event{Type: orchestrator.EventGameOver, WinnerID: "a"})
	obs.Publish(orchestrator.Event{Type: orchestrator.EventPhase, Round: 4})

	if got := value(t, Steps.WithLabelValues("vote")); got != steps+1 {
		t.Errorf("steps = %v", got)
	}
	if got := value(t, Eliminations); got != elim+1 {
		t.Errorf("eliminations = %v", got)
	}
	if got := value(t, Ties); got != ties+1 {
		t.Errorf("ties = %v", got)
	}
	if got := value(t, Games.WithLabelValues("winner")); got != won+1 {
		t.Errorf("games = %v", got)
	}
	if got := value(t, Round); got != 4 {
		t.Errorf("round = %v", got)
	}
}
