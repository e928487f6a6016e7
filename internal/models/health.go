package models

import (
	"time"

	"github.com/google/uuid"
)

// HealthStatus is the outcome of a single health probe
type HealthStatus string

const (
	StatusOK   HealthStatus = "ok"
	StatusWarn HealthStatus = "warn"
	StatusFail HealthStatus = "fail"
)

// Severity orders statuses so the worst one can be picked
func (s HealthStatus) Severity() int {
	switch s {
	case StatusOK:
		return 0
	case StatusWarn:
		return 1
	case StatusFail:
		return 2
	default:
		return 2
	}
}

// Worse returns the more severe of two statuses
func Worse(a, b HealthStatus) HealthStatus {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// HealthEvent is one persisted probe result
type HealthEvent struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	Service   string       `json:"service" db:"service"`
	Status    HealthStatus `json:"status" db:"status"`
	LatencyMs int64        `json:"latency_ms" db:"latency_ms"`
	Message   string       `json:"message,omitempty" db:"message"`
	Diagnosis string       `json:"diagnosis,omitempty" db:"diagnosis"`
	CheckedAt time.Time    `json:"checked_at" db:"checked_at"`
}

// ServiceState is the last known status of a monitored service
type ServiceState struct {
	Service       string       `json:"service" db:"service"`
	LastStatus    HealthStatus `json:"last_status" db:"last_status"`
	LastChangedAt time.Time    `json:"last_changed_at" db:"last_changed_at"`
	LastAlertedAt *time.Time   `json:"last_alerted_at,omitempty" db:"last_alerted_at"`
}
