package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/freight-ops-api/internal/analytics"
	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/services"
)

// defaultDailyWindow is used by the daily endpoint when from is omitted
const defaultDailyWindow = 7 * 24 * time.Hour

// AnalyticsHandler serves dashboard metrics
type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
	logger           logger.Logger
	now              func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService services.AnalyticsService, log logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, logger: log, now: time.Now}
}

// parseBound accepts RFC 3339 timestamps or plain dates in loc
func parseBound(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", raw, loc)
}

// parsePeriod reads the from, to and tz query parameters. Missing bounds
// are open.
func parsePeriod(c *gin.Context) (analytics.Period, *time.Location, error) {
	loc := time.UTC
	if tz := c.Query("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return analytics.Period{}, nil, apperrors.InvalidInput("invalid tz", err).WithDetails(tz)
		}
		loc = l
	}

	from, err := parseBound(c.Query("from"), loc)
	if err != nil {
		return analytics.Period{}, nil, apperrors.InvalidInput("invalid from", err).WithDetails(c.Query("from"))
	}
	to, err := parseBound(c.Query("to"), loc)
	if err != nil {
		return analytics.Period{}, nil, apperrors.InvalidInput("invalid to", err).WithDetails(c.Query("to"))
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return analytics.Period{}, nil, apperrors.InvalidInput("from must be before to", nil)
	}
	return analytics.Period{From: from, To: to}, loc, nil
}

// GetMetrics returns the metrics record for the period
func (h *AnalyticsHandler) GetMetrics(c *gin.Context) {
	period, _, err := parsePeriod(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	metrics, err := h.analyticsService.Metrics(c.Request.Context(), period)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, metrics)
}

// GetDaily returns one metrics record per day. Without from the last seven
// days are returned.
func (h *AnalyticsHandler) GetDaily(c *gin.Context) {
	period, loc, err := parsePeriod(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if period.From.IsZero() {
		period.From = h.now().Add(-defaultDailyWindow)
	}

	days, err := h.analyticsService.Daily(c.Request.Context(), period, loc)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"days": days, "count": len(days)})
}
