package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// freshnessTables are the only tables LatestTimestamp may read
var freshnessTables = map[string]bool{
	"calls":          true,
	"webhook_events": true,
	"leads":          true,
}

// healthRepository implements HealthRepository
type healthRepository struct {
	db dbExecutor
}

// NewHealthRepository creates a new health repository
func NewHealthRepository(db dbExecutor) HealthRepository {
	return &healthRepository{db: db}
}

// InsertEvent persists one probe result
func (r *healthRepository) InsertEvent(ctx context.Context, event *models.HealthEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO health_events (id, service, status, latency_ms, message, diagnosis, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.Service, event.Status, event.LatencyMs,
		toNullString(event.Message), toNullString(event.Diagnosis), event.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert health event: %w", err)
	}
	return nil
}

// ListEvents returns health events newest first
func (r *healthRepository) ListEvents(ctx context.Context, filters EventFilters) ([]models.HealthEvent, error) {
	var w whereBuilder
	if filters.Service != "" {
		w.add("service = $%d", filters.Service)
	}
	if !filters.Since.IsZero() {
		w.add("checked_at >= $%d", filters.Since)
	}

	query := `
		SELECT id, service, status, latency_ms, message, diagnosis, checked_at
		FROM health_events` + w.String() + ` ORDER BY checked_at DESC`
	query += w.limit(filters.Limit)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query health events: %w", err)
	}
	defer rows.Close()

	var events []models.HealthEvent
	for rows.Next() {
		var (
			event              models.HealthEvent
			message, diagnosis sql.NullString
		)
		err := rows.Scan(&event.ID, &event.Service, &event.Status, &event.LatencyMs,
			&message, &diagnosis, &event.CheckedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan health event: %w", err)
		}
		event.Message = nullString(message)
		event.Diagnosis = nullString(diagnosis)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate health events: %w", err)
	}
	return events, nil
}

// GetState returns the stored state for a service
func (r *healthRepository) GetState(ctx context.Context, service string) (*models.ServiceState, error) {
	query := `
		SELECT service, last_status, last_changed_at, last_alerted_at
		FROM service_state WHERE service = $1
	`

	var (
		state     models.ServiceState
		alertedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, service).
		Scan(&state.Service, &state.LastStatus, &state.LastChangedAt, &alertedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service state: %w", err)
	}
	state.LastAlertedAt = nullTime(alertedAt)
	return &state, nil
}

// UpsertState writes the state for a service, replacing any previous row
func (r *healthRepository) UpsertState(ctx context.Context, state *models.ServiceState) error {
	query := `
		INSERT INTO service_state (service, last_status, last_changed_at, last_alerted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (service) DO UPDATE SET
			last_status = EXCLUDED.last_status,
			last_changed_at = EXCLUDED.last_changed_at,
			last_alerted_at = EXCLUDED.last_alerted_at
	`

	_, err := r.db.ExecContext(ctx, query, state.Service, state.LastStatus, state.LastChangedAt, state.LastAlertedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert service state: %w", err)
	}
	return nil
}

// ListStates returns every stored service state ordered by service name
func (r *healthRepository) ListStates(ctx context.Context) ([]models.ServiceState, error) {
	query := `
		SELECT service, last_status, last_changed_at, last_alerted_at
		FROM service_state ORDER BY service
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query service states: %w", err)
	}
	defer rows.Close()

	var states []models.ServiceState
	for rows.Next() {
		var (
			state     models.ServiceState
			alertedAt sql.NullTime
		)
		if err := rows.Scan(&state.Service, &state.LastStatus, &state.LastChangedAt, &alertedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service state: %w", err)
		}
		state.LastAlertedAt = nullTime(alertedAt)
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service states: %w", err)
	}
	return states, nil
}

// LatestTimestamp returns the newest created_at in table, or nil when empty
func (r *healthRepository) LatestTimestamp(ctx context.Context, table string) (*time.Time, error) {
	if !freshnessTables[table] {
		return nil, fmt.Errorf("table %q is not monitored for freshness", table)
	}

	var latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM `+table).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to read latest %s timestamp: %w", table, err)
	}
	return nullTime(latest), nil
}
