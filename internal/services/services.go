package services

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/freight-ops-api/internal/analytics"
	"github.com/ajharbinger/freight-ops-api/internal/enrichment"
	"github.com/ajharbinger/freight-ops-api/internal/health"
	"github.com/ajharbinger/freight-ops-api/internal/importer"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/models"
	"github.com/ajharbinger/freight-ops-api/internal/notify"
	"github.com/ajharbinger/freight-ops-api/internal/repository"
	"github.com/ajharbinger/freight-ops-api/internal/scoring"
	"github.com/ajharbinger/freight-ops-api/pkg/config"
)

// Services contains all application services
type Services struct {
	Analytics AnalyticsService
	Intent    IntentService
	Fit       FitService
	Health    HealthService
	Import    ImportService
	Auth      AuthService
}

// AnalyticsService computes dashboard metrics from stored records
type AnalyticsService interface {
	Metrics(ctx context.Context, period analytics.Period) (*analytics.Metrics, error)
	Daily(ctx context.Context, period analytics.Period, loc *time.Location) ([]analytics.DailyMetrics, error)
}

// IntentService scores leads for buying intent
type IntentService interface {
	ScoreLead(ctx context.Context, leadID uuid.UUID) (*scoring.IntentResult, error)
	ScoreInput(in scoring.IntentInput) scoring.IntentResult
	Backfill(ctx context.Context, opts BackfillOptions) (*BackfillStats, error)
}

// FitService scores prospecting accounts and feeds the priority queue
type FitService interface {
	ScoreAccount(ctx context.Context, accountID uuid.UUID) (*FitOutcome, error)
	ScoreAccounts(ctx context.Context, opts FitBatchOptions) (*FitBatchStats, error)
	Queue(ctx context.Context, filters repository.QueueFilters) ([]models.QueueEntry, error)
}

// HealthService runs the monitor and serves the health dashboard
type HealthService interface {
	Run(ctx context.Context) (*HealthRunReport, error)
	Dashboard(ctx context.Context) (*health.Dashboard, error)
	Events(ctx context.Context, filters repository.EventFilters) ([]models.HealthEvent, error)
}

// ImportService imports loads from uploaded spreadsheets
type ImportService interface {
	ImportLoads(ctx context.Context, filename string, r io.Reader, startedBy *uuid.UUID) (*importer.Result, error)
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Login(ctx context.Context, email, password string) (*repository.LoginResponse, error)
	Register(ctx context.Context, req *repository.RegisterRequest) (*models.User, error)
	ValidateToken(ctx context.Context, token string) (*models.User, error)
	RefreshToken(ctx context.Context, token string) (*repository.LoginResponse, error)
}

// Dependencies are the collaborators NewServicesWithDeps wires together
type Dependencies struct {
	Repos      *repository.Repositories
	Config     *config.Config
	Logger     logger.Logger
	Monitor    *health.Monitor
	Dispatcher *notify.Dispatcher
	Inspector  SiteInspector
}

// SiteInspector fetches an account website for the fit website check
type SiteInspector interface {
	Inspect(ctx context.Context, url string) (*enrichment.SiteReport, error)
}

// NewServices creates a new Services instance with all dependencies
func NewServices(db *sql.DB, cfg *config.Config, log logger.Logger) *Services {
	repos := repository.NewRepositories(db)
	deps := Dependencies{
		Repos:      repos,
		Config:     cfg,
		Logger:     log,
		Monitor:    NewMonitor(cfg, repos.Health, log),
		Dispatcher: NewDispatcher(cfg, log),
	}
	if inspector := NewInspector(cfg); inspector != nil {
		deps.Inspector = inspector
	}
	return NewServicesWithDeps(deps)
}

// NewServicesWithDeps builds the services from explicit collaborators
func NewServicesWithDeps(deps Dependencies) *Services {
	log := deps.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	return &Services{
		Analytics: newAnalyticsService(deps.Repos, analytics.ParseReconcileMode(cfg.AnalyticsReconcileMode), log),
		Intent:    newIntentService(deps.Repos, scoring.NewIntentEngine(scoring.DefaultIntentRules()), log),
		Fit:       newFitService(deps.Repos, scoring.NewFitEngine(scoring.DefaultFitProfile()), deps.Inspector, log),
		Health:    newHealthService(deps.Repos, deps.Monitor, deps.Dispatcher, health.NewDebouncer(cfg.AlertDebounce()), log),
		Import:    newImportService(deps.Repos, log),
		Auth:      newAuthService(deps.Repos, cfg),
	}
}

// NewMonitor builds the health monitor from the table freshness probes and
// the configured HTTP ping targets
func NewMonitor(cfg *config.Config, source health.FreshnessSource, log logger.Logger) *health.Monitor {
	probes := health.DefaultFreshnessProbes(source)

	targets := cfg.GetPingTargets()
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	client := &http.Client{Timeout: cfg.HealthProbeTimeout()}
	for _, name := range names {
		probes = append(probes, health.NewPingProbe(name, targets[name], health.DefaultSlowThreshold, client))
	}
	return health.NewMonitor(probes, cfg.HealthProbeTimeout(), log)
}

// NewDispatcher builds the alert dispatcher with the email and SMS channels
func NewDispatcher(cfg *config.Config, log logger.Logger) *notify.Dispatcher {
	email := notify.NewEmailSender(notify.EmailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.AlertFromEmail,
		To:       splitList(cfg.AlertEmailTo),
	})
	sms := notify.NewSMSSender(notify.SMSConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioFromNumber,
		To:         splitList(cfg.AlertSMSTo),
	}, nil)
	return notify.NewDispatcher(log, email, sms)
}

// NewInspector returns the website inspector when website probing is
// enabled, nil otherwise
func NewInspector(cfg *config.Config) *enrichment.WebsiteInspector {
	if !cfg.FitWebsiteProbe {
		return nil
	}
	return enrichment.NewWebsiteInspector(2, scoring.DefaultFitProfile().TargetEquipment, nil)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
