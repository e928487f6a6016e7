package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/services"
)

// LeadsHandler handles lead intent scoring
type LeadsHandler struct {
	intentService services.IntentService
	logger        logger.Logger
}

// NewLeadsHandler creates a new leads handler
func NewLeadsHandler(intentService services.IntentService, log logger.Logger) *LeadsHandler {
	return &LeadsHandler{intentService: intentService, logger: log}
}

// BackfillRequest selects the leads a backfill run scores
type BackfillRequest struct {
	Limit   int  `json:"limit" binding:"min=0,max=5000"`
	Rescore bool `json:"rescore"`
	DryRun  bool `json:"dry_run"`
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.InvalidInput("invalid "+name, err).WithDetails(c.Param(name))
	}
	return id, nil
}

// bindOptional binds a JSON body when one was sent
func bindOptional(c *gin.Context, dst interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(err)
	}
	return nil
}

// ScoreLead scores one stored lead and saves the result
func (h *LeadsHandler) ScoreLead(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.intentService.ScoreLead(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, result)
}

// Backfill scores unscored leads in one run
func (h *LeadsHandler) Backfill(c *gin.Context) {
	var req BackfillRequest
	if err := bindOptional(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	stats, err := h.intentService.Backfill(c.Request.Context(), services.BackfillOptions{
		Limit:   req.Limit,
		Rescore: req.Rescore,
		DryRun:  req.DryRun,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, stats)
}
