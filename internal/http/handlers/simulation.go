package handlers

import (
	"net/http"

	"cyber_cricket/internal/orchestrator"

	"github.com/gin-gonic/gin"
)

type simulationStatus struct {
	InProgress bool   `json:"in_progress"`
	Phase      string `json:"phase"`
	Round      int    `json:"round"`
	Index      int    `json:"index"`
	Winner     string `json:"winner,omitempty"`
	Stalled    bool   `json:"stalled"`
	Total      int    `json:"total"`
}

// SimulationSnapshot is the flattened status sent to new websocket watchers.
func SimulationSnapshot(st orchestrator.Status) any {
	return simulationStatus{
		InProgress: st.InProgress,
		Phase:      st.Phase.Name,
		Round:      st.Phase.Round,
		Index:      st.Phase.Index,
		Winner:     st.Phase.Winner,
		Stalled:    st.Stalled,
		Total:      st.Total,
	}
}

func (h *Handler) StartSimulation(c *gin.Context) {
	if err := h.Simulation.Start(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, SimulationSnapshot(h.Simulation.Status()))
}

func (h *Handler) StopSimulation(c *gin.Context) {
	h.Simulation.Stop()
	c.JSON(http.StatusOK, SimulationSnapshot(h.Simulation.Status()))
}

func (h *Handler) RetrySimulation(c *gin.Context) {
	if err := h.Simulation.Retry(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, SimulationSnapshot(h.Simulation.Status()))
}

func (h *Handler) SimulationStatus(c *gin.Context) {
	c.JSON(http.StatusOK, SimulationSnapshot(h.Simulation.Status()))
}

// SimulationTranscript returns the precheck statements and the step results
// seen so far in the current game.
func (h *Handler) SimulationTranscript(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"openings": h.Simulation.Openings(),
		"steps":    h.Simulation.Transcript(),
	})
}
