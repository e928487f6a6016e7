package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ajharbinger/freight-ops-api/internal/analytics"
	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/models"
	"github.com/ajharbinger/freight-ops-api/internal/repository"
)

// analyticsServiceImpl implements AnalyticsService
type analyticsServiceImpl struct {
	repos  *repository.Repositories
	opts   analytics.Options
	logger logger.Logger
}

func newAnalyticsService(repos *repository.Repositories, mode analytics.ReconcileMode, log logger.Logger) AnalyticsService {
	return &analyticsServiceImpl{
		repos:  repos,
		opts:   analytics.Options{Reconcile: mode},
		logger: log,
	}
}

type periodRecords struct {
	calls []models.Call
	leads []models.Lead
	loads []models.Load
}

// load fetches the three record sets for the period in parallel
func (s *analyticsServiceImpl) load(ctx context.Context, period analytics.Period) (*periodRecords, error) {
	tr := repository.TimeRange{From: period.From, To: period.To}
	var recs periodRecords

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		recs.calls, err = s.repos.Call.List(gctx, tr)
		return err
	})
	g.Go(func() (err error) {
		recs.leads, err = s.repos.Lead.List(gctx, tr)
		return err
	})
	g.Go(func() (err error) {
		recs.loads, err = s.repos.Load.List(gctx, tr)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.DatabaseError("failed to load analytics records", err).WithOperation("Analytics.load")
	}
	return &recs, nil
}

func (s *analyticsServiceImpl) warn(m analytics.Metrics, period analytics.Period) {
	for _, w := range m.Warnings {
		s.logger.Warn("Analytics metrics reconciled", "warning", w,
			"mode", string(s.opts.Reconcile), "from", period.From, "to", period.To)
	}
}

// Metrics computes the canonical metrics for the period
func (s *analyticsServiceImpl) Metrics(ctx context.Context, period analytics.Period) (*analytics.Metrics, error) {
	recs, err := s.load(ctx, period)
	if err != nil {
		return nil, err
	}

	m := analytics.Compute(recs.calls, recs.leads, recs.loads, s.opts)
	s.warn(m, period)
	return &m, nil
}

// Daily computes one metrics record per calendar day in loc
func (s *analyticsServiceImpl) Daily(ctx context.Context, period analytics.Period, loc *time.Location) ([]analytics.DailyMetrics, error) {
	recs, err := s.load(ctx, period)
	if err != nil {
		return nil, err
	}

	days := analytics.Daily(recs.calls, recs.leads, recs.loads, loc, s.opts)
	for _, d := range days {
		s.warn(d.Metrics, period)
	}
	return days, nil
}
