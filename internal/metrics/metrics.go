package metrics

import (
	"time"

	"cyber_cricket/internal/orchestrator"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Steps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_steps_total",
			Help: "Completed participant steps",
		},
		[]string{"stage"},
	)
	StepErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_notices_total",
			Help: "Notices published by the orchestrator, by level",
		},
		[]string{"level"},
	)
	Eliminations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_eliminations_total",
			Help: "Participants eliminated by vote",
		},
	)
	Ties = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_tied_votes_total",
			Help: "Vote phases that ended without elimination",
		},
	)
	Games = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "games_finished_total",
			Help: "Finished games, by whether a winner was declared",
		},
		[]string{"outcome"},
	)
	Round = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orchestrator_round",
			Help: "Round the orchestrator is currently driving",
		},
	)
	CompletionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_completion_duration_seconds",
			Help:    "Latency of chat completion requests",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(Steps)
	prometheus.MustRegister(StepErrors)
	prometheus.MustRegister(Eliminations)
	prometheus.MustRegister(Ties)
	prometheus.MustRegister(Games)
	prometheus.MustRegister(Round)
	prometheus.MustRegister(CompletionDuration)
}

// ObserveCompletion records one chat completion request.
func ObserveCompletion(result string, d time.Duration) {
	CompletionDuration.WithLabelValues(result).Observe(d.Seconds())
}

// Observer feeds orchestrator events into the collectors above.
type Observer struct{}

func (Observer) Publish(e orchestrator.Event) {
	switch e.Type {
	case orchestrator.EventPhase:
		Round.Set(float64(e.Round))
	case orchestrator.EventProgress:
		if e.Result == nil {
			return
		}
		Steps.WithLabelValues(string(e.Result.Stage)).Inc()
		if e.Result.EliminatedID != "" {
			Eliminations.Inc()
		}
	case orchestrator.EventTie:
		Ties.Inc()
	case orchestrator.EventNotice:
		StepErrors.WithLabelValues(e.Level).Inc()
	case orchestrator.EventGameOver:
		outcome := "winner"
		if e.WinnerID == "" {
			outcome = "none"
		}
		Games.WithLabelValues(outcome).Inc()
	}
}
