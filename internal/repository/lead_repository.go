package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// leadRepository implements LeadRepository
type leadRepository struct {
	db dbExecutor
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db dbExecutor) LeadRepository {
	return &leadRepository{db: db}
}

const leadColumns = `
	id, status, created_at, is_high_intent, intent_score, intent_reasons, intent_scored_at,
	call_id, booked_at, closed_at, company_name, mc_number, dot_number, load_number,
	origin, destination, equipment_type, transcript, summary, notes, callback_requested`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var (
		lead                               models.Lead
		intentScore                        sql.NullInt64
		intentScoredAt, bookedAt, closedAt sql.NullTime
		callID                             uuid.NullUUID
		company, mc, dot, loadNumber       sql.NullString
		origin, destination, equipment     sql.NullString
		transcript, summary, notes         sql.NullString
	)
	err := row.Scan(
		&lead.ID, &lead.Status, &lead.CreatedAt, &lead.IsHighIntent, &intentScore, &lead.IntentReasons, &intentScoredAt,
		&callID, &bookedAt, &closedAt, &company, &mc, &dot, &loadNumber,
		&origin, &destination, &equipment, &transcript, &summary, &notes, &lead.CallbackRequested,
	)
	if err != nil {
		return nil, err
	}

	lead.IntentScore = nullInt(intentScore)
	lead.IntentScoredAt = nullTime(intentScoredAt)
	lead.BookedAt = nullTime(bookedAt)
	lead.ClosedAt = nullTime(closedAt)
	if callID.Valid {
		id := callID.UUID
		lead.CallID = &id
	}
	lead.CompanyName = nullString(company)
	lead.MCNumber = nullString(mc)
	lead.DOTNumber = nullString(dot)
	lead.LoadNumber = nullString(loadNumber)
	lead.Origin = nullString(origin)
	lead.Destination = nullString(destination)
	lead.EquipmentType = nullString(equipment)
	lead.Transcript = nullString(transcript)
	lead.Summary = nullString(summary)
	lead.Notes = nullString(notes)
	return &lead, nil
}

func (r *leadRepository) queryLeads(ctx context.Context, query string, args ...interface{}) ([]models.Lead, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
	}
	return leads, nil
}

// GetByID retrieves a lead by ID
func (r *leadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

// List returns leads created inside the range, oldest first
func (r *leadRepository) List(ctx context.Context, tr TimeRange) ([]models.Lead, error) {
	var w whereBuilder
	w.timeRange("created_at", tr)
	query := `SELECT ` + leadColumns + ` FROM leads` + w.String() + ` ORDER BY created_at`
	return r.queryLeads(ctx, query, w.args...)
}

// ListForIntent returns unscored leads, or every lead when rescoring,
// newest first
func (r *leadRepository) ListForIntent(ctx context.Context, criteria IntentCriteria) ([]models.Lead, error) {
	var w whereBuilder
	if !criteria.Rescore {
		w.addRaw("intent_score IS NULL")
	}
	query := `SELECT ` + leadColumns + ` FROM leads` + w.String() + ` ORDER BY created_at DESC`
	query += w.limit(criteria.Limit)
	return r.queryLeads(ctx, query, w.args...)
}

// UpdateIntent writes an intent score back to a lead
func (r *leadRepository) UpdateIntent(ctx context.Context, u IntentUpdate) error {
	query := `
		UPDATE leads SET
			intent_score = $2, is_high_intent = $3, intent_reasons = $4, intent_scored_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, u.LeadID, u.Score, u.IsHighIntent, u.Reasons, u.ScoredAt)
	if err != nil {
		return fmt.Errorf("failed to update lead intent: %w", err)
	}
	return expectOneRow(result)
}
