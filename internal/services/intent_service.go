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

// DefaultBackfillLimit caps a backfill run when no limit is given
const DefaultBackfillLimit = 200

// BackfillOptions selects which leads a backfill run scores
type BackfillOptions struct {
	Limit   int  `json:"limit"`
	Rescore bool `json:"rescore"`
	DryRun  bool `json:"dry_run"`
}

// BackfillStats summarizes one backfill run
type BackfillStats struct {
	Scanned    int           `json:"scanned"`
	Updated    int           `json:"updated"`
	HighIntent int           `json:"high_intent"`
	Failed     int           `json:"failed"`
	DryRun     bool          `json:"dry_run"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"duration_ms"`
}

// intentServiceImpl implements IntentService
type intentServiceImpl struct {
	repos  *repository.Repositories
	engine *scoring.IntentEngine
	logger logger.Logger
	now    func() time.Time
}

func newIntentService(repos *repository.Repositories, engine *scoring.IntentEngine, log logger.Logger) IntentService {
	return &intentServiceImpl{
		repos:  repos,
		engine: engine,
		logger: log,
		now:    time.Now,
	}
}

// ScoreInput scores an ad-hoc lead payload without touching storage
func (s *intentServiceImpl) ScoreInput(in scoring.IntentInput) scoring.IntentResult {
	return s.engine.Score(in)
}

// ScoreLead scores a stored lead and writes the result back
func (s *intentServiceImpl) ScoreLead(ctx context.Context, leadID uuid.UUID) (*scoring.IntentResult, error) {
	lead, err := s.repos.Lead.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("lead not found", err).WithOperation("ScoreLead")
		}
		return nil, apperrors.DatabaseError("failed to get lead", err).WithOperation("ScoreLead")
	}

	result := s.engine.Score(scoring.IntentInputFromLead(*lead))
	if err := s.repos.Lead.UpdateIntent(ctx, s.update(lead.ID, result)); err != nil {
		return nil, apperrors.DatabaseError("failed to store intent score", err).WithOperation("ScoreLead")
	}

	s.logger.Info("Scored lead intent", "lead_id", lead.ID, "score", result.Score,
		"high_intent", result.IsHighIntent, "reasons", result.TriggeredSummary())
	return &result, nil
}

// Backfill scores leads that have no intent score yet, or every lead when
// rescoring. A lead that fails to persist is counted and the run continues.
func (s *intentServiceImpl) Backfill(ctx context.Context, opts BackfillOptions) (*BackfillStats, error) {
	started := s.now()
	if opts.Limit <= 0 {
		opts.Limit = DefaultBackfillLimit
	}

	leads, err := s.repos.Lead.ListForIntent(ctx, repository.IntentCriteria{Rescore: opts.Rescore, Limit: opts.Limit})
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list leads for intent scoring", err).WithOperation("Backfill")
	}

	stats := &BackfillStats{Scanned: len(leads), DryRun: opts.DryRun}
	for _, lead := range leads {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Intent backfill interrupted", "scanned", stats.Scanned, "updated", stats.Updated)
			break
		}

		result := s.engine.Score(scoring.IntentInputFromLead(lead))
		if result.IsHighIntent {
			stats.HighIntent++
		}
		if opts.DryRun {
			continue
		}

		if err := s.repos.Lead.UpdateIntent(ctx, s.update(lead.ID, result)); err != nil {
			stats.Failed++
			s.logger.Error("Failed to store lead intent score", err, "lead_id", lead.ID)
			continue
		}
		stats.Updated++
	}

	stats.Duration = s.now().Sub(started)
	stats.DurationMs = stats.Duration.Milliseconds()
	s.logger.Info("Intent backfill finished",
		"scanned", stats.Scanned, "updated", stats.Updated, "high_intent", stats.HighIntent,
		"failed", stats.Failed, "dry_run", stats.DryRun, "duration", stats.Duration)
	return stats, nil
}

func (s *intentServiceImpl) update(leadID uuid.UUID, result scoring.IntentResult) repository.IntentUpdate {
	var reasons models.IntentReasons = result.Reasons
	return repository.IntentUpdate{
		LeadID:       leadID,
		Score:        result.Score,
		IsHighIntent: result.IsHighIntent,
		Reasons:      reasons,
		ScoredAt:     result.ScoredAt,
	}
}
