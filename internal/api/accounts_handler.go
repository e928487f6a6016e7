package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/models"
	"github.com/ajharbinger/freight-ops-api/internal/repository"
	"github.com/ajharbinger/freight-ops-api/internal/services"
)

const maxQueuePage = 500

// AccountsHandler handles prospecting fit scoring and the priority queue
type AccountsHandler struct {
	fitService services.FitService
	logger     logger.Logger
}

// NewAccountsHandler creates a new accounts handler
func NewAccountsHandler(fitService services.FitService, log logger.Logger) *AccountsHandler {
	return &AccountsHandler{fitService: fitService, logger: log}
}

// FitBatchRequest selects the accounts a fit batch run scores
type FitBatchRequest struct {
	Limit   int  `json:"limit" binding:"min=0,max=5000"`
	Rescore bool `json:"rescore"`
}

// ScoreAccount scores one account and applies the queue policy
func (h *AccountsHandler) ScoreAccount(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	outcome, err := h.fitService.ScoreAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, outcome)
}

// ScoreAccounts runs a fit batch
func (h *AccountsHandler) ScoreAccounts(c *gin.Context) {
	var req FitBatchRequest
	if err := bindOptional(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	stats, err := h.fitService.ScoreAccounts(c.Request.Context(), services.FitBatchOptions{
		Limit:   req.Limit,
		Rescore: req.Rescore,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

// GetQueue lists the prospecting queue, optionally filtered by status and
// priority
func (h *AccountsHandler) GetQueue(c *gin.Context) {
	filters := repository.QueueFilters{Limit: 100}

	switch status := models.QueueStatus(c.Query("status")); status {
	case "":
	case models.QueuePending, models.QueueInProgress, models.QueueDone:
		filters.Status = status
	default:
		respondError(c, h.logger, apperrors.InvalidInput("invalid status", nil).WithDetails(string(status)))
		return
	}

	switch priority := models.QueuePriority(c.Query("priority")); priority {
	case "":
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		filters.Priority = priority
	default:
		respondError(c, h.logger, apperrors.InvalidInput("invalid priority", nil).WithDetails(string(priority)))
		return
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxQueuePage {
			respondError(c, h.logger, apperrors.InvalidInput("invalid limit", err).WithDetails(raw))
			return
		}
		filters.Limit = limit
	}

	entries, err := h.fitService.Queue(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}
