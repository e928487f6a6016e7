package services

import (
	"context"
	"io"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/importer"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/models"
	"github.com/ajharbinger/freight-ops-api/internal/repository"
)

// importServiceImpl implements ImportService
type importServiceImpl struct {
	repos  *repository.Repositories
	logger logger.Logger
}

func newImportService(repos *repository.Repositories, log logger.Logger) ImportService {
	return &importServiceImpl{repos: repos, logger: log}
}

// ImportLoads parses an uploaded spreadsheet and inserts every valid row
// whose load number is not stored yet. The existence check and insert are
// separate statements; a concurrent import of the same load can still
// insert it twice.
func (s *importServiceImpl) ImportLoads(ctx context.Context, filename string, r io.Reader, startedBy *uuid.UUID) (*importer.Result, error) {
	job := &models.ImportJob{Filename: filename, StartedBy: startedBy}
	if err := s.repos.ImportJob.Create(ctx, job); err != nil {
		return nil, apperrors.DatabaseError("failed to record import job", err).WithOperation("ImportLoads")
	}
	log := s.logger.With("import_job_id", job.ID, "filename", filename)

	batch, err := s.parse(filename, r)
	if err != nil {
		job.Status = string(models.ImportJobFailed)
		job.ErrorMessage = apperrors.PublicMessage(err)
		s.finish(ctx, job, log)
		return nil, err
	}

	result := batch.Result
	for _, row := range batch.Rows {
		exists, err := s.repos.Load.ExistsByNumber(ctx, row.Load.LoadNumber)
		if err != nil {
			log.Error("Failed to check load number", err, "row", row.Number)
			result.Invalid++
			result.Errors = append(result.Errors, importer.RowError{Row: row.Number, Message: "could not check for an existing load"})
			continue
		}
		if exists {
			result.SkippedDuplicates++
			continue
		}

		load := row.Load
		if err := s.repos.Load.Create(ctx, &load); err != nil {
			log.Error("Failed to insert load", err, "row", row.Number)
			result.Invalid++
			result.Errors = append(result.Errors, importer.RowError{Row: row.Number, Message: "could not save load"})
			continue
		}
		result.Imported++
	}

	job.Status = string(models.ImportJobCompleted)
	job.TotalRows = result.TotalRows
	job.Imported = result.Imported
	job.SkippedDuplicates = result.SkippedDuplicates
	job.Invalid = result.Invalid
	s.finish(ctx, job, log)

	log.Info("Load import finished", "total_rows", result.TotalRows, "imported", result.Imported,
		"skipped_duplicates", result.SkippedDuplicates, "invalid", result.Invalid)
	return &result, nil
}

func (s *importServiceImpl) parse(filename string, r io.Reader) (*importer.Batch, error) {
	records, err := importer.ReadRecords(filename, r)
	if err != nil {
		return nil, err
	}
	return importer.Parse(records)
}

func (s *importServiceImpl) finish(ctx context.Context, job *models.ImportJob, log logger.Logger) {
	if err := s.repos.ImportJob.Finish(ctx, job); err != nil {
		log.Error("Failed to finish import job", err)
	}
}
