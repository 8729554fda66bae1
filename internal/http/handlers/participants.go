package handlers

import (
	"net/http"

	"cyber_cricket/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListParticipants(c *gin.Context) {
	items, err := h.Participants.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": items})
}

func (h *Handler) AddParticipant(c *gin.Context) {
	var in service.ParticipantInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}

	p, err := h.Participants.Add(c.Request.Context(), operator(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) EditParticipant(c *gin.Context) {
	var in service.ParticipantInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}

	p, err := h.Participants.Edit(c.Request.Context(), operator(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteParticipant(c *gin.Context) {
	if err := h.Participants.Delete(c.Request.Context(), operator(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

type callRequest struct {
	Message string `json:"message"`
}

// CallParticipant sends one free-form message outside of the game.
func (h *Handler) CallParticipant(c *gin.Context) {
	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	reply, err := h.Participants.Call(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}
