package handlers

import (
	"errors"
	"net/http"

	"cyber_cricket/internal/domain"

	"github.com/gin-gonic/gin"
)

// StartGame runs the precheck round.
func (h *Handler) StartGame(c *gin.Context) {
	res, err := h.Game.StartGame(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) AdvanceRound(c *gin.Context) {
	var req domain.AdvanceRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Round < 1 {
		badRequest(c)
		return
	}

	res, err := h.Game.AdvanceRound(c.Request.Context(), req.Round)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Step(c *gin.Context) {
	var req domain.StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	res, err := h.Game.Step(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// State returns the full snapshot, or {} before the first game.
func (h *Handler) State(c *gin.Context) {
	st, err := h.Game.State(c.Request.Context())
	if errors.Is(err, domain.ErrNoGame) {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
