package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/repository"
	"github.com/ajharbinger/freight-ops-api/internal/services"
)

const (
	pingTimeout      = 3 * time.Second
	defaultEventPage = 100
	maxEventPage     = 1000
)

// Pinger checks the database connection
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves the system health dashboard and the liveness probe
type HealthHandler struct {
	healthService services.HealthService
	db            Pinger
	logger        logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(healthService services.HealthService, db Pinger, log logger.Logger) *HealthHandler {
	return &HealthHandler{healthService: healthService, db: db, logger: log}
}

// Healthz reports whether the API can reach its database
func (h *HealthHandler) Healthz(c *gin.Context) {
	if h.db == nil {
		respondError(c, h.logger, apperrors.NotConfigured("database is not configured"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		respondError(c, h.logger, apperrors.ServiceError("database unreachable", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"status": "ok"})
}

// GetDashboard returns the per-service status with uptime
func (h *HealthHandler) GetDashboard(c *gin.Context) {
	dash, err := h.healthService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, dash)
}

// GetEvents lists stored probe results, newest first
func (h *HealthHandler) GetEvents(c *gin.Context) {
	filters := repository.EventFilters{Service: c.Query("service"), Limit: defaultEventPage}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, h.logger, apperrors.InvalidInput("invalid since", err).WithDetails(raw))
			return
		}
		filters.Since = since
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxEventPage {
			respondError(c, h.logger, apperrors.InvalidInput("invalid limit", err).WithDetails(raw))
			return
		}
		filters.Limit = limit
	}

	events, err := h.healthService.Events(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// RunChecks runs every probe now and returns the run report
func (h *HealthHandler) RunChecks(c *gin.Context) {
	report, err := h.healthService.Run(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, report)
}
