package health

import (
	"time"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// DefaultDebounceWindow is the minimum time between two alerts for one
// service
const DefaultDebounceWindow = 5 * time.Minute

// Debouncer decides whether a status change should alert
type Debouncer struct {
	Window time.Duration
}

// NewDebouncer creates a debouncer, falling back to the default window
func NewDebouncer(window time.Duration) Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return Debouncer{Window: window}
}

// ShouldAlert reports whether a result with status next, observed at now,
// alerts given the service's stored state. Only fail alerts. A service that
// never alerted alerts immediately; otherwise more than Window must have
// passed since the last alert, so a persisting failure re-alerts once per
// window.
func (d Debouncer) ShouldAlert(state *models.ServiceState, next models.HealthStatus, now time.Time) bool {
	if next != models.StatusFail {
		return false
	}
	if state == nil || state.LastAlertedAt == nil {
		return true
	}
	return now.Sub(*state.LastAlertedAt) > d.Window
}

// Transition applies a result to the stored state. LastChangedAt moves
// only when the status changes.
func Transition(state *models.ServiceState, result Result) (models.ServiceState, bool) {
	if state == nil {
		return models.ServiceState{
			Service:       result.Service,
			LastStatus:    result.Status,
			LastChangedAt: result.CheckedAt,
		}, true
	}

	next := *state
	if state.LastStatus == result.Status {
		return next, false
	}
	next.LastStatus = result.Status
	next.LastChangedAt = result.CheckedAt
	return next, true
}
