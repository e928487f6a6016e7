package api

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/freight-ops-api/internal/auth"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/models"
	"github.com/ajharbinger/freight-ops-api/internal/services"
	"github.com/ajharbinger/freight-ops-api/pkg/config"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, db *sql.DB, svc *services.Services, cfg *config.Config, log logger.Logger) {
	RegisterValidators()

	var pinger Pinger
	if db != nil {
		pinger = db
	}

	authHandler := NewAuthHandler(svc.Auth, log)
	analyticsHandler := NewAnalyticsHandler(svc.Analytics, log)
	leadsHandler := NewLeadsHandler(svc.Intent, log)
	accountsHandler := NewAccountsHandler(svc.Fit, log)
	uploadHandler := NewUploadHandler(svc.Import, log)
	healthHandler := NewHealthHandler(svc.Health, pinger, log)
	toolsHandler := NewToolsHandler(svc.Intent, log)

	admin := auth.RequireRole(string(models.RoleAdmin))

	// Public routes
	public := r.Group("/api/v1")
	{
		public.GET("/healthz", healthHandler.Healthz)
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/refresh", authHandler.RefreshToken)
		public.POST("/auth/logout", authHandler.Logout)
	}

	// Voice agent tools
	tools := r.Group("/api/v1/tools")
	tools.Use(auth.ToolKeyMiddleware(cfg.ToolAPIKey))
	{
		tools.POST("/lead-intent", toolsHandler.LeadIntent)
	}

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))
	{
		protected.GET("/analytics/metrics", analyticsHandler.GetMetrics)
		protected.GET("/analytics/daily", analyticsHandler.GetDaily)

		protected.POST("/leads/:id/intent", leadsHandler.ScoreLead)
		protected.POST("/leads/intent/backfill", admin, leadsHandler.Backfill)

		protected.POST("/accounts/:id/fit", accountsHandler.ScoreAccount)
		protected.POST("/accounts/fit/score", admin, accountsHandler.ScoreAccounts)
		protected.GET("/accounts/queue", accountsHandler.GetQueue)

		protected.POST("/loads/import", uploadHandler.ImportLoads)

		protected.GET("/system-health", healthHandler.GetDashboard)
		protected.GET("/system-health/events", healthHandler.GetEvents)
		protected.POST("/system-health/run", admin, healthHandler.RunChecks)
	}
}
