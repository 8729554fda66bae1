package handlers

import (
	"errors"
	"net/http"

	"cyber_cricket/internal/cache"
	"cyber_cricket/internal/domain"
	"cyber_cricket/internal/http/middleware"
	"cyber_cricket/internal/logger"
	"cyber_cricket/internal/orchestrator"
	"cyber_cricket/internal/repository"
	"cyber_cricket/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Store        *repository.Store
	Game         *service.GameService
	Participants *service.ParticipantService
	Prompts      *service.PromptService
	Audit        *service.AuditService
	Simulation   *service.SimulationService
}

// operator returns the name set by the OperatorJWT middleware.
func operator(c *gin.Context) string {
	return c.GetString(middleware.OperatorKey)
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
}

// respondError maps service and registry errors onto status codes. Game
// rejections keep their own body so clients can read is_game_over.
func respondError(c *gin.Context, err error) {
	var svcErr *domain.ServiceError
	switch {
	case errors.As(err, &svcErr):
		status := svcErr.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		c.JSON(status, svcErr)
	case errors.Is(err, domain.ErrParticipantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrDuplicateAPIKey),
		errors.Is(err, domain.ErrDuplicateAPIBase),
		errors.Is(err, orchestrator.ErrAlreadyRunning),
		errors.Is(err, orchestrator.ErrNotRunning),
		errors.Is(err, cache.ErrLockHeld):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, service.ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
