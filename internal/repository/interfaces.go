package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// CallRepository defines the interface for call data access
type CallRepository interface {
	List(ctx context.Context, r TimeRange) ([]models.Call, error)
}

// LeadRepository defines the interface for lead data access
type LeadRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	List(ctx context.Context, r TimeRange) ([]models.Lead, error)
	ListForIntent(ctx context.Context, criteria IntentCriteria) ([]models.Lead, error)
	UpdateIntent(ctx context.Context, update IntentUpdate) error
}

// LoadRepository defines the interface for load data access
type LoadRepository interface {
	List(ctx context.Context, r TimeRange) ([]models.Load, error)
	ExistsByNumber(ctx context.Context, loadNumber string) (bool, error)
	Create(ctx context.Context, load *models.Load) error
}

// AccountRepository defines the interface for prospecting account data access
type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	ListForFit(ctx context.Context, criteria FitCriteria) ([]models.Account, error)
	UpdateFit(ctx context.Context, id uuid.UUID, score int, version string, scoredAt time.Time) error
}

// QueueRepository defines the interface for the prospecting queue
type QueueRepository interface {
	HasOpenEntry(ctx context.Context, accountID uuid.UUID) (bool, error)
	Create(ctx context.Context, entry *models.QueueEntry) error
	List(ctx context.Context, filters QueueFilters) ([]models.QueueEntry, error)
}

// HealthRepository defines the interface for health events and service state
type HealthRepository interface {
	InsertEvent(ctx context.Context, event *models.HealthEvent) error
	ListEvents(ctx context.Context, filters EventFilters) ([]models.HealthEvent, error)
	GetState(ctx context.Context, service string) (*models.ServiceState, error)
	UpsertState(ctx context.Context, state *models.ServiceState) error
	ListStates(ctx context.Context) ([]models.ServiceState, error)
	LatestTimestamp(ctx context.Context, table string) (*time.Time, error)
}

// ImportJobRepository defines the interface for load import job records
type ImportJobRepository interface {
	Create(ctx context.Context, job *models.ImportJob) error
	Finish(ctx context.Context, job *models.ImportJob) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Call      CallRepository
	Lead      LeadRepository
	Load      LoadRepository
	Account   AccountRepository
	Queue     QueueRepository
	Health    HealthRepository
	ImportJob ImportJobRepository
	User      UserRepository
	Tx        TransactionManager
}

// TimeRange is a half-open created_at window; a zero bound is open
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IntentCriteria selects leads for intent scoring
type IntentCriteria struct {
	Rescore bool
	Limit   int
}

// IntentUpdate is the intent score written back to a lead
type IntentUpdate struct {
	LeadID       uuid.UUID
	Score        int
	IsHighIntent bool
	Reasons      models.IntentReasons
	ScoredAt     time.Time
}

// FitCriteria selects accounts for fit scoring
type FitCriteria struct {
	Rescore bool
	Limit   int
}

// QueueFilters defines filters for listing the prospecting queue
type QueueFilters struct {
	Status   models.QueueStatus
	Priority models.QueuePriority
	Limit    int
}

// EventFilters defines filters for listing health events
type EventFilters struct {
	Service string
	Since   time.Time
	Limit   int
}
