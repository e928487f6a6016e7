package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// accountRepository implements AccountRepository
type accountRepository struct {
	db dbExecutor
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db dbExecutor) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `
	id, company_name, commodities, equipment_types, regions, dot_number, mc_number,
	operating_status, power_units, fmcsa_enriched_at, website, contact_email, contact_phone,
	fit_score, fit_version, fit_scored_at, created_at`

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account                        models.Account
		dot, mc, operatingStatus       sql.NullString
		website, email, phone, version sql.NullString
		powerUnits, fitScore           sql.NullInt64
		enrichedAt, scoredAt           sql.NullTime
	)
	err := row.Scan(
		&account.ID, &account.CompanyName,
		pq.Array(&account.Commodities), pq.Array(&account.EquipmentTypes), pq.Array(&account.Regions),
		&dot, &mc, &operatingStatus, &powerUnits, &enrichedAt, &website, &email, &phone,
		&fitScore, &version, &scoredAt, &account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.DOTNumber = nullString(dot)
	account.MCNumber = nullString(mc)
	account.OperatingStatus = nullString(operatingStatus)
	account.PowerUnits = nullInt(powerUnits)
	account.FMCSAEnrichedAt = nullTime(enrichedAt)
	account.Website = nullString(website)
	account.ContactEmail = nullString(email)
	account.ContactPhone = nullString(phone)
	account.FitScore = nullInt(fitScore)
	account.FitVersion = nullString(version)
	account.FitScoredAt = nullTime(scoredAt)
	return &account, nil
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// ListForFit returns unscored accounts, or every account when rescoring
func (r *accountRepository) ListForFit(ctx context.Context, criteria FitCriteria) ([]models.Account, error) {
	var w whereBuilder
	if !criteria.Rescore {
		w.addRaw("fit_score IS NULL")
	}
	query := `SELECT ` + accountColumns + ` FROM accounts` + w.String() + ` ORDER BY created_at`
	query += w.limit(criteria.Limit)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// UpdateFit writes the fit score and scoring version back to an account
func (r *accountRepository) UpdateFit(ctx context.Context, id uuid.UUID, score int, version string, scoredAt time.Time) error {
	query := `UPDATE accounts SET fit_score = $2, fit_version = $3, fit_scored_at = $4 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, score, version, scoredAt)
	if err != nil {
		return fmt.Errorf("failed to update account fit: %w", err)
	}
	return expectOneRow(result)
}

// queueRepository implements QueueRepository
type queueRepository struct {
	db dbExecutor
}

// NewQueueRepository creates a new prospecting queue repository
func NewQueueRepository(db dbExecutor) QueueRepository {
	return &queueRepository{db: db}
}

// HasOpenEntry reports whether the account is already pending or in progress
func (r *queueRepository) HasOpenEntry(ctx context.Context, accountID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM prospect_queue
			WHERE account_id = $1 AND status = ANY($2)
		)
	`

	open := pq.Array([]string{string(models.QueuePending), string(models.QueueInProgress)})

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, accountID, open).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check queue entry: %w", err)
	}
	return exists, nil
}

// Create inserts a queue entry
func (r *queueRepository) Create(ctx context.Context, entry *models.QueueEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Status == "" {
		entry.Status = models.QueuePending
	}

	query := `
		INSERT INTO prospect_queue (id, account_id, priority, status, fit_score)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, entry.ID, entry.AccountID, entry.Priority, entry.Status, entry.FitScore).
		Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create queue entry: %w", err)
	}
	return nil
}

// List returns queue entries ordered by priority then score
func (r *queueRepository) List(ctx context.Context, filters QueueFilters) ([]models.QueueEntry, error) {
	var w whereBuilder
	if filters.Status != "" {
		w.add("q.status = $%d", filters.Status)
	}
	if filters.Priority != "" {
		w.add("q.priority = $%d", filters.Priority)
	}

	query := `
		SELECT q.id, q.account_id, q.priority, q.status, q.fit_score, q.created_at, a.company_name
		FROM prospect_queue q
		JOIN accounts a ON a.id = q.account_id` + w.String() + `
		ORDER BY CASE q.priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END,
			q.fit_score DESC, q.created_at`
	query += w.limit(filters.Limit)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue: %w", err)
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		var entry models.QueueEntry
		err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Priority, &entry.Status,
			&entry.FitScore, &entry.CreatedAt, &entry.CompanyName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue: %w", err)
	}
	return entries, nil
}
