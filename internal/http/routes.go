package http

import (
	"cyber_cricket/internal/config"
	"cyber_cricket/internal/http/handlers"
	"cyber_cricket/internal/http/middleware"
	"cyber_cricket/internal/ws"

	"github.com/gin-gonic/gin"
)

// Server bundles what the routes need beyond the handler set.
type Server struct {
	Handler *handlers.Handler
	Health  *handlers.HealthHandler
	Hub     *ws.Hub
	Config  *config.Config
}

func RegisterRoutes(r *gin.Engine, s Server) {
	h := s.Handler
	auth := middleware.OperatorJWT()

	r.Use(middleware.RequestMetrics())

	// Health checks (no rate limiting)
	r.GET("/health", s.Health.Health)
	r.GET("/healthz", s.Health.Liveness)
	r.GET("/readyz", s.Health.Readiness)

	r.GET("/ws", ws.HandleWS(s.Hub, s.Config.AllowedOrigin))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(s.Config.APIRateLimit, s.Config.APIRateWindow))

	// Remote game service
	game := v1.Group("/game")
	{
		game.POST("/start", auth, h.StartGame)
		game.POST("/round", auth, h.AdvanceRound)
		game.POST("/step", auth, h.Step)
		game.GET("/state", h.State)
	}

	// Embedded orchestrator
	v1.GET("/simulation", h.SimulationStatus)
	v1.GET("/simulation/transcript", h.SimulationTranscript)
	sim := v1.Group("/simulation", auth)
	{
		sim.POST("/start", h.StartSimulation)
		sim.POST("/stop", h.StopSimulation)
		sim.POST("/retry", h.RetrySimulation)
	}

	// Registry
	v1.GET("/participants", h.ListParticipants)
	v1.POST("/participants", auth, h.AddParticipant)
	v1.PUT("/participants/:id", auth, h.EditParticipant)
	v1.DELETE("/participants/:id", auth, h.DeleteParticipant)
	v1.POST("/participants/:id/call", auth, h.CallParticipant)

	v1.GET("/prompt", h.GetPrompt)
	v1.PUT("/prompt", auth, h.SetPrompt)

	v1.GET("/audit", auth, h.RecentAudit)
}
