package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/models"
	"github.com/ajharbinger/freight-ops-api/internal/repository"
	"github.com/ajharbinger/freight-ops-api/internal/scoring"
)

// DefaultFitBatchLimit caps a fit batch run when no limit is given
const DefaultFitBatchLimit = 100

// Queue outcomes reported per scored account
const (
	QueueAdded       = "queued"
	QueueBelowCutoff = "below_threshold"
	QueueAlreadyOpen = "already_queued"
	QueueError       = "queue_error"
)

// FitOutcome is the result of scoring one account
type FitOutcome struct {
	AccountID   uuid.UUID          `json:"account_id"`
	CompanyName string             `json:"company_name"`
	Result      scoring.FitResult  `json:"result"`
	Queue       string             `json:"queue"`
	Entry       *models.QueueEntry `json:"entry,omitempty"`
}

// FitBatchOptions selects accounts for a fit batch run
type FitBatchOptions struct {
	Limit   int  `json:"limit"`
	Rescore bool `json:"rescore"`
}

// FitBatchStats summarizes a fit batch run
type FitBatchStats struct {
	Scanned    int   `json:"scanned"`
	Scored     int   `json:"scored"`
	Queued     int   `json:"queued"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"duration_ms"`
}

// fitServiceImpl implements FitService
type fitServiceImpl struct {
	repos     *repository.Repositories
	engine    *scoring.FitEngine
	inspector SiteInspector
	logger    logger.Logger
	now       func() time.Time
}

func newFitService(repos *repository.Repositories, engine *scoring.FitEngine, inspector SiteInspector, log logger.Logger) FitService {
	return &fitServiceImpl{
		repos:     repos,
		engine:    engine,
		inspector: inspector,
		logger:    log,
		now:       time.Now,
	}
}

// ScoreAccount scores one account, stores the score and applies the queue
// policy
func (s *fitServiceImpl) ScoreAccount(ctx context.Context, accountID uuid.UUID) (*FitOutcome, error) {
	account, err := s.repos.Account.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("account not found", err).WithOperation("ScoreAccount")
		}
		return nil, apperrors.DatabaseError("failed to get account", err).WithOperation("ScoreAccount")
	}
	return s.score(ctx, *account)
}

// ScoreAccounts scores unscored accounts, or every account when rescoring.
// One failing account is counted and the batch continues.
func (s *fitServiceImpl) ScoreAccounts(ctx context.Context, opts FitBatchOptions) (*FitBatchStats, error) {
	started := s.now()
	if opts.Limit <= 0 {
		opts.Limit = DefaultFitBatchLimit
	}

	accounts, err := s.repos.Account.ListForFit(ctx, repository.FitCriteria{Rescore: opts.Rescore, Limit: opts.Limit})
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list accounts for fit scoring", err).WithOperation("ScoreAccounts")
	}

	stats := &FitBatchStats{Scanned: len(accounts)}
	for _, account := range accounts {
		if ctx.Err() != nil {
			break
		}
		outcome, err := s.score(ctx, account)
		if err != nil {
			stats.Failed++
			s.logger.Error("Failed to score account fit", err, "account_id", account.ID)
			continue
		}
		stats.Scored++
		if outcome.Queue == QueueAdded {
			stats.Queued++
		}
	}

	stats.DurationMs = s.now().Sub(started).Milliseconds()
	s.logger.Info("Fit batch finished", "scanned", stats.Scanned, "scored", stats.Scored,
		"queued", stats.Queued, "failed", stats.Failed)
	return stats, nil
}

// Queue lists the prospecting queue
func (s *fitServiceImpl) Queue(ctx context.Context, filters repository.QueueFilters) ([]models.QueueEntry, error) {
	entries, err := s.repos.Queue.List(ctx, filters)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list prospecting queue", err).WithOperation("Queue")
	}
	if entries == nil {
		entries = []models.QueueEntry{}
	}
	return entries, nil
}

func (s *fitServiceImpl) score(ctx context.Context, account models.Account) (*FitOutcome, error) {
	result := s.engine.Score(account, s.signals(ctx, account))

	if err := s.repos.Account.UpdateFit(ctx, account.ID, result.Score, result.Version, result.ScoredAt); err != nil {
		return nil, apperrors.DatabaseError("failed to store fit score", err).WithOperation("ScoreAccount")
	}

	outcome := &FitOutcome{
		AccountID:   account.ID,
		CompanyName: account.CompanyName,
		Result:      result,
	}
	outcome.Queue, outcome.Entry = s.enqueue(ctx, account.ID, result)

	s.logger.Info("Scored account fit", "account_id", account.ID, "score", result.Score,
		"version", result.Version, "queue", outcome.Queue, "components", result.TriggeredSummary())
	return outcome, nil
}

// enqueue applies the queue policy. The open-entry check and the insert are
// not atomic; a concurrent scorer can still queue the account twice.
func (s *fitServiceImpl) enqueue(ctx context.Context, accountID uuid.UUID, result scoring.FitResult) (string, *models.QueueEntry) {
	if result.Priority == nil {
		return QueueBelowCutoff, nil
	}

	open, err := s.repos.Queue.HasOpenEntry(ctx, accountID)
	if err != nil {
		s.logger.Error("Failed to check prospecting queue", err, "account_id", accountID)
		return QueueError, nil
	}
	if open {
		return QueueAlreadyOpen, nil
	}

	entry := &models.QueueEntry{
		AccountID: accountID,
		Priority:  *result.Priority,
		Status:    models.QueuePending,
		FitScore:  result.Score,
	}
	if err := s.repos.Queue.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to queue account", err, "account_id", accountID)
		return QueueError, nil
	}
	return QueueAdded, entry
}

// signals probes the account website when an inspector is configured.
// A failed probe leaves the website component on presence-only rules.
func (s *fitServiceImpl) signals(ctx context.Context, account models.Account) scoring.FitSignals {
	if s.inspector == nil || account.Website == "" {
		return scoring.FitSignals{}
	}

	report, err := s.inspector.Inspect(ctx, account.Website)
	if err != nil {
		s.logger.Warn("Website probe failed", "account_id", account.ID, "website", account.Website, "error", err.Error())
		return scoring.FitSignals{}
	}
	live := report.Live
	return scoring.FitSignals{WebsiteLive: &live}
}
