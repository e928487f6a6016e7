package services

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/health"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/models"
	"github.com/ajharbinger/freight-ops-api/internal/notify"
	"github.com/ajharbinger/freight-ops-api/internal/repository"
)

// dashboardWindow is how far back the dashboard reads events for uptime
const dashboardWindow = 7 * 24 * time.Hour

// HealthRunReport is the outcome of one monitor run
type HealthRunReport struct {
	Overall   models.HealthStatus `json:"overall"`
	Results   []health.Result     `json:"results"`
	Alerts    []ServiceAlert      `json:"alerts"`
	CheckedAt time.Time           `json:"checked_at"`
}

// ServiceAlert records an alert fired for one service during a run
type ServiceAlert struct {
	Service  string                 `json:"service"`
	Channels []notify.ChannelResult `json:"channels"`
}

// healthServiceImpl implements HealthService
type healthServiceImpl struct {
	repos      *repository.Repositories
	monitor    *health.Monitor
	dispatcher *notify.Dispatcher
	debouncer  health.Debouncer
	logger     logger.Logger
	now        func() time.Time
}

func newHealthService(repos *repository.Repositories, monitor *health.Monitor, dispatcher *notify.Dispatcher, debouncer health.Debouncer, log logger.Logger) HealthService {
	return &healthServiceImpl{
		repos:      repos,
		monitor:    monitor,
		dispatcher: dispatcher,
		debouncer:  debouncer,
		logger:     log,
		now:        time.Now,
	}
}

// Run executes every probe and alerts failing services subject to the
// debounce window. Each service's event and state are written in one
// transaction; a storage failure for one service is logged and does not
// stop the others.
func (s *healthServiceImpl) Run(ctx context.Context) (*HealthRunReport, error) {
	if s.monitor == nil {
		return nil, apperrors.NotConfigured("health monitor is not configured")
	}

	results := s.monitor.Run(ctx)
	report := &HealthRunReport{
		Overall:   health.Overall(results),
		Results:   results,
		Alerts:    []ServiceAlert{},
		CheckedAt: s.now(),
	}

	for _, result := range results {
		if alert := s.record(ctx, result); alert != nil {
			report.Alerts = append(report.Alerts, *alert)
		}
	}

	s.logger.Info("Health check finished", "overall", string(report.Overall),
		"services", len(results), "alerts", len(report.Alerts))
	return report, nil
}

func (s *healthServiceImpl) record(ctx context.Context, result health.Result) *ServiceAlert {
	log := s.logger.With("service", result.Service)

	prev, err := s.repos.Health.GetState(ctx, result.Service)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error("Failed to load service state", err)
		return nil
	}

	next, changed := health.Transition(prev, result)
	if changed {
		log.Info("Service status changed", "status", string(result.Status))
	}

	var alert *ServiceAlert
	if s.debouncer.ShouldAlert(prev, result.Status, result.CheckedAt) && s.dispatcher != nil {
		dispatched := s.dispatcher.Alert(ctx, notify.Alert{
			Service:   result.Service,
			Status:    string(result.Status),
			Message:   result.Message,
			Diagnosis: result.Diagnosis,
			Timestamp: result.CheckedAt,
		})
		if dispatched.Attempted() {
			at := result.CheckedAt
			next.LastAlertedAt = &at
		}
		alert = &ServiceAlert{Service: result.Service, Channels: dispatched.Channels}
	}

	event := result.Event()
	err = s.repos.Tx.WithTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Health.InsertEvent(ctx, &event); err != nil {
			return err
		}
		return tx.Health.UpsertState(ctx, &next)
	})
	if err != nil {
		log.Error("Failed to store health result", err)
	}
	return alert
}

// Dashboard summarizes stored states with 24h and 7d uptime
func (s *healthServiceImpl) Dashboard(ctx context.Context) (*health.Dashboard, error) {
	now := s.now()

	states, err := s.repos.Health.ListStates(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list service states", err).WithOperation("Dashboard")
	}
	events, err := s.repos.Health.ListEvents(ctx, repository.EventFilters{Since: now.Add(-dashboardWindow)})
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list health events", err).WithOperation("Dashboard")
	}

	dash := health.Summarize(states, events, now)
	return &dash, nil
}

// Events lists stored health events, newest first
func (s *healthServiceImpl) Events(ctx context.Context, filters repository.EventFilters) ([]models.HealthEvent, error) {
	events, err := s.repos.Health.ListEvents(ctx, filters)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list health events", err).WithOperation("Events")
	}
	if events == nil {
		events = []models.HealthEvent{}
	}
	return events, nil
}
