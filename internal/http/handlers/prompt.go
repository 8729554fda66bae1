package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type promptRequest struct {
	Prompt string `json:"prompt"`
}

func (h *Handler) GetPrompt(c *gin.Context) {
	text, err := h.Prompts.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": text})
}

func (h *Handler) SetPrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.Prompts.Set(c.Request.Context(), operator(c), req.Prompt); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": req.Prompt})
}
