package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/freight-ops-api/internal/models"
	"github.com/ajharbinger/freight-ops-api/internal/repository"
)

var errStorage = errors.New("storage unavailable")

// MockCallRepository implements CallRepository for testing
type MockCallRepository struct {
	calls []models.Call
	err   error
}

func (m *MockCallRepository) List(ctx context.Context, r repository.TimeRange) ([]models.Call, error) {
	return m.calls, m.err
}

// MockLeadRepository implements LeadRepository for testing
type MockLeadRepository struct {
	mu       sync.Mutex
	leads    []models.Lead
	updates  []repository.IntentUpdate
	failFor  map[uuid.UUID]bool
	criteria repository.IntentCriteria
}

func (m *MockLeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	for _, lead := range m.leads {
		if lead.ID == id {
			l := lead
			return &l, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockLeadRepository) List(ctx context.Context, r repository.TimeRange) ([]models.Lead, error) {
	return m.leads, nil
}

func (m *MockLeadRepository) ListForIntent(ctx context.Context, criteria repository.IntentCriteria) ([]models.Lead, error) {
	m.criteria = criteria
	var out []models.Lead
	for _, lead := range m.leads {
		if criteria.Rescore || lead.IntentScore == nil {
			out = append(out, lead)
		}
		if len(out) == criteria.Limit {
			break
		}
	}
	return out, nil
}

func (m *MockLeadRepository) UpdateIntent(ctx context.Context, update repository.IntentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[update.LeadID] {
		return errStorage
	}
	m.updates = append(m.updates, update)
	return nil
}

// MockLoadRepository implements LoadRepository for testing
type MockLoadRepository struct {
	loads   []models.Load
	created []models.Load
	failOn  string
}

func (m *MockLoadRepository) List(ctx context.Context, r repository.TimeRange) ([]models.Load, error) {
	return m.loads, nil
}

func (m *MockLoadRepository) ExistsByNumber(ctx context.Context, loadNumber string) (bool, error) {
	for _, load := range append(m.loads, m.created...) {
		if strings.EqualFold(load.LoadNumber, strings.TrimSpace(loadNumber)) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockLoadRepository) Create(ctx context.Context, load *models.Load) error {
	if m.failOn != "" && load.LoadNumber == m.failOn {
		return errStorage
	}
	load.ID = uuid.New()
	m.created = append(m.created, *load)
	return nil
}

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	accounts []models.Account
	scores   map[uuid.UUID]int
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	for _, account := range m.accounts {
		if account.ID == id {
			a := account
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockAccountRepository) ListForFit(ctx context.Context, criteria repository.FitCriteria) ([]models.Account, error) {
	var out []models.Account
	for _, account := range m.accounts {
		if criteria.Rescore || account.FitScore == nil {
			out = append(out, account)
		}
	}
	return out, nil
}

func (m *MockAccountRepository) UpdateFit(ctx context.Context, id uuid.UUID, score int, version string, scoredAt time.Time) error {
	if m.scores == nil {
		m.scores = make(map[uuid.UUID]int)
	}
	m.scores[id] = score
	return nil
}

// MockQueueRepository implements QueueRepository for testing
type MockQueueRepository struct {
	entries []models.QueueEntry
}

func (m *MockQueueRepository) HasOpenEntry(ctx context.Context, accountID uuid.UUID) (bool, error) {
	for _, e := range m.entries {
		if e.AccountID == accountID && (e.Status == models.QueuePending || e.Status == models.QueueInProgress) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockQueueRepository) Create(ctx context.Context, entry *models.QueueEntry) error {
	entry.ID = uuid.New()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *MockQueueRepository) List(ctx context.Context, filters repository.QueueFilters) ([]models.QueueEntry, error) {
	return m.entries, nil
}

// MockHealthRepository implements HealthRepository for testing
type MockHealthRepository struct {
	mu     sync.Mutex
	events []models.HealthEvent
	states map[string]models.ServiceState
	latest map[string]time.Time
}

func NewMockHealthRepository() *MockHealthRepository {
	return &MockHealthRepository{
		states: make(map[string]models.ServiceState),
		latest: make(map[string]time.Time),
	}
}

func (m *MockHealthRepository) InsertEvent(ctx context.Context, event *models.HealthEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = uuid.New()
	m.events = append(m.events, *event)
	return nil
}

func (m *MockHealthRepository) ListEvents(ctx context.Context, filters repository.EventFilters) ([]models.HealthEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.HealthEvent
	for _, e := range m.events {
		if filters.Service != "" && e.Service != filters.Service {
			continue
		}
		if !filters.Since.IsZero() && e.CheckedAt.Before(filters.Since) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *MockHealthRepository) GetState(ctx context.Context, service string) (*models.ServiceState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[service]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &state, nil
}

func (m *MockHealthRepository) UpsertState(ctx context.Context, state *models.ServiceState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.Service] = *state
	return nil
}

func (m *MockHealthRepository) ListStates(ctx context.Context) ([]models.ServiceState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ServiceState
	for _, s := range m.states {
		out = append(out, s)
	}
	return out, nil
}

func (m *MockHealthRepository) LatestTimestamp(ctx context.Context, table string) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts, ok := m.latest[table]
	if !ok {
		return nil, nil
	}
	return &ts, nil
}

// MockImportJobRepository implements ImportJobRepository for testing
type MockImportJobRepository struct {
	created  int
	finished []models.ImportJob
}

func (m *MockImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	m.created++
	job.ID = uuid.New()
	job.Status = string(models.ImportJobRunning)
	job.StartedAt = time.Now()
	return nil
}

func (m *MockImportJobRepository) Finish(ctx context.Context, job *models.ImportJob) error {
	m.finished = append(m.finished, *job)
	return nil
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	users map[string]*models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*models.User)}
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			user := *u
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := *u
	return &user, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	u := *user
	m.users[strings.ToLower(user.Email)] = &u
	return nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Create(ctx, user)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for email, u := range m.users {
		if u.ID == id {
			delete(m.users, email)
			return nil
		}
	}
	return repository.ErrNotFound
}

// MockTransactionManager runs fn against the same mock repositories
type MockTransactionManager struct {
	repos *repository.Repositories
	calls int
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	m.calls++
	return fn(m.repos)
}

func newMockRepositories() *repository.Repositories {
	repos := &repository.Repositories{
		Call:      &MockCallRepository{},
		Lead:      &MockLeadRepository{},
		Load:      &MockLoadRepository{},
		Account:   &MockAccountRepository{},
		Queue:     &MockQueueRepository{},
		Health:    NewMockHealthRepository(),
		ImportJob: &MockImportJobRepository{},
		User:      NewMockUserRepository(),
	}
	repos.Tx = &MockTransactionManager{repos: repos}
	return repos
}
