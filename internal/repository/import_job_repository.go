package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// importJobRepository implements ImportJobRepository
type importJobRepository struct {
	db dbExecutor
}

// NewImportJobRepository creates a new import job repository
func NewImportJobRepository(db dbExecutor) ImportJobRepository {
	return &importJobRepository{db: db}
}

// Create records the start of an import
func (r *importJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = string(models.ImportJobRunning)
	}

	query := `
		INSERT INTO import_jobs (id, filename, status, started_by)
		VALUES ($1, $2, $3, $4)
		RETURNING started_at
	`

	if err := r.db.QueryRowContext(ctx, query, job.ID, job.Filename, job.Status, job.StartedBy).Scan(&job.StartedAt); err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

// Finish stores the final counts and status of an import
func (r *importJobRepository) Finish(ctx context.Context, job *models.ImportJob) error {
	query := `
		UPDATE import_jobs SET
			status = $2, total_rows = $3, imported = $4, skipped_duplicates = $5,
			invalid = $6, completed_at = NOW(), error_message = $7
		WHERE id = $1
		RETURNING completed_at
	`

	err := r.db.QueryRowContext(ctx, query,
		job.ID, job.Status, job.TotalRows, job.Imported, job.SkippedDuplicates,
		job.Invalid, toNullString(job.ErrorMessage),
	).Scan(&job.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to finish import job: %w", err)
	}
	return nil
}
