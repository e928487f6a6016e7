package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// loadRepository implements LoadRepository
type loadRepository struct {
	db dbExecutor
}

// NewLoadRepository creates a new load repository
func NewLoadRepository(db dbExecutor) LoadRepository {
	return &loadRepository{db: db}
}

// List returns loads created inside the range, oldest first
func (r *loadRepository) List(ctx context.Context, tr TimeRange) ([]models.Load, error) {
	var w whereBuilder
	w.timeRange("created_at", tr)

	query := `
		SELECT id, load_number, status, is_active, created_at, booked_at, booked_source,
			origin, destination, equipment_type, rate, pickup_date, commodity, weight_lbs
		FROM loads` + w.String() + ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query loads: %w", err)
	}
	defer rows.Close()

	var loads []models.Load
	for rows.Next() {
		var (
			load                            models.Load
			bookedAt, pickupDate            sql.NullTime
			bookedSource, equipment, commod sql.NullString
			rate, weight                    sql.NullFloat64
		)
		err := rows.Scan(
			&load.ID, &load.LoadNumber, &load.Status, &load.IsActive, &load.CreatedAt, &bookedAt, &bookedSource,
			&load.Origin, &load.Destination, &equipment, &rate, &pickupDate, &commod, &weight,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		load.BookedAt = nullTime(bookedAt)
		load.BookedSource = nullString(bookedSource)
		load.EquipmentType = nullString(equipment)
		load.Rate = nullFloat(rate)
		load.PickupDate = nullTime(pickupDate)
		load.Commodity = nullString(commod)
		load.WeightLbs = nullFloat(weight)
		loads = append(loads, load)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loads: %w", err)
	}
	return loads, nil
}

// ExistsByNumber reports whether a load number is already stored, ignoring case
func (r *loadRepository) ExistsByNumber(ctx context.Context, loadNumber string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM loads WHERE LOWER(load_number) = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(loadNumber))).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check load number: %w", err)
	}
	return exists, nil
}

// Create inserts a new load
func (r *loadRepository) Create(ctx context.Context, load *models.Load) error {
	if load.ID == uuid.Nil {
		load.ID = uuid.New()
	}
	if load.Status == "" {
		load.Status = models.LoadOpen
	}

	query := `
		INSERT INTO loads (id, load_number, status, is_active, origin, destination,
			equipment_type, rate, pickup_date, commodity, weight_lbs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		load.ID, load.LoadNumber, load.Status, load.IsActive, load.Origin, load.Destination,
		toNullString(load.EquipmentType), load.Rate, load.PickupDate, toNullString(load.Commodity), load.WeightLbs,
	).Scan(&load.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create load: %w", err)
	}
	return nil
}
