package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/scoring"
	"github.com/ajharbinger/freight-ops-api/internal/services"
)

// ToolsHandler serves the endpoints called by the voice agent during a
// live call
type ToolsHandler struct {
	intentService services.IntentService
	logger        logger.Logger
}

// NewToolsHandler creates a new tools handler
func NewToolsHandler(intentService services.IntentService, log logger.Logger) *ToolsHandler {
	return &ToolsHandler{intentService: intentService, logger: log}
}

// LeadIntentResponse is the tool reply. Fallback marks a neutral score
// returned because scoring failed.
type LeadIntentResponse struct {
	Score        int      `json:"score"`
	IsHighIntent bool     `json:"is_high_intent"`
	Reasons      []string `json:"reasons"`
	Fallback     bool     `json:"fallback"`
}

func fallbackIntent() LeadIntentResponse {
	return LeadIntentResponse{Reasons: []string{}, Fallback: true}
}

// LeadIntent scores an ad-hoc lead payload. It always answers 200 so a
// scoring problem never breaks the call; failures return a zero score
// with fallback set.
func (h *ToolsHandler) LeadIntent(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Lead intent tool panicked", fmt.Errorf("%v", r))
			respond(c, http.StatusOK, fallbackIntent())
		}
	}()

	var in scoring.IntentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Warn("Lead intent tool received an unreadable payload", "error", err.Error())
		respond(c, http.StatusOK, fallbackIntent())
		return
	}

	result := h.intentService.ScoreInput(in)
	if result.ScoreResult == nil {
		respond(c, http.StatusOK, fallbackIntent())
		return
	}

	h.logger.Info("Lead intent tool scored", "score", result.Score, "high_intent", result.IsHighIntent)
	respond(c, http.StatusOK, LeadIntentResponse{
		Score:        result.Score,
		IsHighIntent: result.IsHighIntent,
		Reasons:      result.Reasons,
	})
}
