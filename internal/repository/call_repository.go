package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// callRepository implements CallRepository
type callRepository struct {
	db dbExecutor
}

// NewCallRepository creates a new call repository
func NewCallRepository(db dbExecutor) CallRepository {
	return &callRepository{db: db}
}

// List returns calls created inside the range, oldest first
func (r *callRepository) List(ctx context.Context, tr TimeRange) ([]models.Call, error) {
	var w whereBuilder
	w.timeRange("created_at", tr)

	query := `
		SELECT id, created_at, duration_seconds, call_duration_secs, duration, is_high_intent
		FROM calls` + w.String() + ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	var calls []models.Call
	for rows.Next() {
		var (
			call                               models.Call
			durationSecs, callDuration, legacy sql.NullFloat64
		)
		if err := rows.Scan(&call.ID, &call.CreatedAt, &durationSecs, &callDuration, &legacy, &call.IsHighIntent); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		call.DurationSeconds = nullFloat(durationSecs)
		call.CallDurationSecs = nullFloat(callDuration)
		call.Duration = nullFloat(legacy)
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate calls: %w", err)
	}
	return calls, nil
}
