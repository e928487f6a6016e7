package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/freight-ops-api/internal/analytics"
	"github.com/ajharbinger/freight-ops-api/internal/enrichment"
	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/health"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/models"
	"github.com/ajharbinger/freight-ops-api/internal/notify"
	"github.com/ajharbinger/freight-ops-api/internal/repository"
	"github.com/ajharbinger/freight-ops-api/pkg/config"
)

func intPtr(v int) *int { return &v }

func highIntentLead() models.Lead {
	return models.Lead{
		ID:          uuid.New(),
		Status:      models.LeadPending,
		CompanyName: "Blue Line Trucking",
		MCNumber:    "123456",
		LoadNumber:  "L-1001",
		Transcript:  "Sounds good, book it",
	}
}

func TestIntentService_ScoreLead(t *testing.T) {
	repos := newMockRepositories()
	leads := repos.Lead.(*MockLeadRepository)
	lead := highIntentLead()
	leads.leads = []models.Lead{lead}

	svc := NewServicesWithDeps(Dependencies{Repos: repos}).Intent

	result, err := svc.ScoreLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.True(t, result.IsHighIntent)
	require.Len(t, leads.updates, 1)
	assert.Equal(t, result.Score, leads.updates[0].Score)
	assert.Equal(t, []string(result.Reasons), []string(leads.updates[0].Reasons))

	_, err = svc.ScoreLead(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}

func TestIntentService_Backfill(t *testing.T) {
	scored := highIntentLead()
	scored.IntentScore = intPtr(80)
	failing := models.Lead{ID: uuid.New(), Status: models.LeadPending}

	newRepos := func() (*repository.Repositories, *MockLeadRepository) {
		repos := newMockRepositories()
		leads := repos.Lead.(*MockLeadRepository)
		leads.leads = []models.Lead{highIntentLead(), scored, failing}
		leads.failFor = map[uuid.UUID]bool{failing.ID: true}
		return repos, leads
	}

	t.Run("skips scored leads and counts failures", func(t *testing.T) {
		repos, leads := newRepos()
		svc := NewServicesWithDeps(Dependencies{Repos: repos}).Intent

		stats, err := svc.Backfill(context.Background(), BackfillOptions{})
		require.NoError(t, err)
		assert.Equal(t, DefaultBackfillLimit, leads.criteria.Limit)
		assert.Equal(t, 2, stats.Scanned)
		assert.Equal(t, 1, stats.Updated)
		assert.Equal(t, 1, stats.Failed)
		assert.Equal(t, 1, stats.HighIntent)
		assert.False(t, stats.DryRun)
	})

	t.Run("rescore includes scored leads", func(t *testing.T) {
		repos, _ := newRepos()
		svc := NewServicesWithDeps(Dependencies{Repos: repos}).Intent

		stats, err := svc.Backfill(context.Background(), BackfillOptions{Rescore: true, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Scanned)
		assert.Equal(t, 2, stats.Updated)
		assert.Equal(t, 2, stats.HighIntent)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		repos, leads := newRepos()
		svc := NewServicesWithDeps(Dependencies{Repos: repos}).Intent

		stats, err := svc.Backfill(context.Background(), BackfillOptions{DryRun: true})
		require.NoError(t, err)
		assert.True(t, stats.DryRun)
		assert.Equal(t, 0, stats.Updated)
		assert.Equal(t, 0, stats.Failed)
		assert.Equal(t, 1, stats.HighIntent)
		assert.Empty(t, leads.updates)
	})
}

func strongAccount() models.Account {
	enriched := time.Now().Add(-24 * time.Hour)
	return models.Account{
		ID:              uuid.New(),
		CompanyName:     "Valley Produce Co",
		Commodities:     []string{"Fresh produce"},
		EquipmentTypes:  []string{"Reefer"},
		Regions:         []string{"TX"},
		PowerUnits:      intPtr(12),
		FMCSAEnrichedAt: &enriched,
		Website:         "https://valleyproduce.com",
	}
}

type fakeInspector struct {
	live bool
	err  error
}

func (f fakeInspector) Inspect(ctx context.Context, url string) (*enrichment.SiteReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &enrichment.SiteReport{URL: url, Live: f.live}, nil
}

func TestFitService_QueuePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("strong account is queued once", func(t *testing.T) {
		repos := newMockRepositories()
		account := strongAccount()
		repos.Account.(*MockAccountRepository).accounts = []models.Account{account}
		svc := NewServicesWithDeps(Dependencies{Repos: repos}).Fit

		outcome, err := svc.ScoreAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, outcome.Result.Score)
		assert.Equal(t, QueueAdded, outcome.Queue)
		require.NotNil(t, outcome.Entry)
		assert.Equal(t, models.PriorityHigh, outcome.Entry.Priority)
		assert.Equal(t, 100, repos.Account.(*MockAccountRepository).scores[account.ID])

		outcome, err = svc.ScoreAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, QueueAlreadyOpen, outcome.Queue)
		assert.Len(t, repos.Queue.(*MockQueueRepository).entries, 1)
	})

	t.Run("weak account stays off the queue", func(t *testing.T) {
		repos := newMockRepositories()
		account := models.Account{ID: uuid.New(), CompanyName: "Nobody LLC"}
		repos.Account.(*MockAccountRepository).accounts = []models.Account{account}
		svc := NewServicesWithDeps(Dependencies{Repos: repos}).Fit

		outcome, err := svc.ScoreAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, outcome.Result.Score)
		assert.Equal(t, QueueBelowCutoff, outcome.Queue)
		assert.Nil(t, outcome.Entry)
		assert.Empty(t, repos.Queue.(*MockQueueRepository).entries)
	})

	t.Run("dead website earns partial credit", func(t *testing.T) {
		repos := newMockRepositories()
		account := strongAccount()
		repos.Account.(*MockAccountRepository).accounts = []models.Account{account}
		svc := NewServicesWithDeps(Dependencies{Repos: repos, Inspector: fakeInspector{live: false}}).Fit

		outcome, err := svc.ScoreAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, 95, outcome.Result.Score)
	})

	t.Run("failed probe falls back to presence", func(t *testing.T) {
		repos := newMockRepositories()
		account := strongAccount()
		repos.Account.(*MockAccountRepository).accounts = []models.Account{account}
		svc := NewServicesWithDeps(Dependencies{Repos: repos, Inspector: fakeInspector{err: errors.New("timeout")}}).Fit

		outcome, err := svc.ScoreAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, outcome.Result.Score)
	})

	t.Run("unknown account", func(t *testing.T) {
		svc := NewServicesWithDeps(Dependencies{Repos: newMockRepositories()}).Fit
		_, err := svc.ScoreAccount(ctx, uuid.New())
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
	})
}

func TestFitService_ScoreAccounts(t *testing.T) {
	repos := newMockRepositories()
	scored := strongAccount()
	scored.FitScore = intPtr(100)
	repos.Account.(*MockAccountRepository).accounts = []models.Account{
		strongAccount(),
		{ID: uuid.New(), CompanyName: "Tiny Freight"},
		scored,
	}
	svc := NewServicesWithDeps(Dependencies{Repos: repos}).Fit

	stats, err := svc.ScoreAccounts(context.Background(), FitBatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 2, stats.Scored)
	assert.Equal(t, 1, stats.Queued)
	assert.Equal(t, 0, stats.Failed)

	entries, err := svc.Queue(context.Background(), repository.QueueFilters{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// stepProbe reports whatever status and time the test sets next
type stepProbe struct {
	mu     sync.Mutex
	status models.HealthStatus
	at     time.Time
}

func (p *stepProbe) Name() string { return "voice_agent" }

func (p *stepProbe) set(status models.HealthStatus, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status, p.at = status, at
}

func (p *stepProbe) Check(ctx context.Context) (health.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := health.Result{Service: p.Name(), Status: p.status, CheckedAt: p.at}
	if p.status == models.StatusFail {
		result.Message = "dial tcp: connection refused"
	}
	return result, nil
}

// countingChannel records every alert it is asked to send
type countingChannel struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (c *countingChannel) Name() string     { return "test" }
func (c *countingChannel) Configured() bool { return true }

func (c *countingChannel) Send(ctx context.Context, alert notify.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, alert)
	return nil
}

func TestHealthService_AlertDebounce(t *testing.T) {
	repos := newMockRepositories()
	probe := &stepProbe{}
	channel := &countingChannel{}
	log := logger.NewNopLogger()

	svc := NewServicesWithDeps(Dependencies{
		Repos:      repos,
		Config:     &config.Config{AlertDebounceMinutes: 5},
		Monitor:    health.NewMonitor([]health.Probe{probe}, time.Second, log),
		Dispatcher: notify.NewDispatcher(log, channel),
	}).Health

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	steps := []struct {
		status models.HealthStatus
		at     time.Time
		alerts int
	}{
		{models.StatusOK, start, 0},
		{models.StatusFail, start.Add(time.Minute), 1},
		{models.StatusFail, start.Add(3 * time.Minute), 0},
		{models.StatusFail, start.Add(7 * time.Minute), 1},
	}

	for i, step := range steps {
		probe.set(step.status, step.at)
		report, err := svc.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, step.status, report.Overall, "step %d", i)
		assert.Len(t, report.Alerts, step.alerts, "step %d", i)
	}

	require.Len(t, channel.alerts, 2)
	assert.NotEmpty(t, channel.alerts[0].Diagnosis)
	assert.Equal(t, "voice_agent", channel.alerts[0].Service)

	healthRepo := repos.Health.(*MockHealthRepository)
	assert.Len(t, healthRepo.events, 4)
	assert.Equal(t, 4, repos.Tx.(*MockTransactionManager).calls)
	state := healthRepo.states["voice_agent"]
	assert.Equal(t, models.StatusFail, state.LastStatus)
	assert.Equal(t, start.Add(time.Minute), state.LastChangedAt)
	require.NotNil(t, state.LastAlertedAt)
	assert.Equal(t, start.Add(7*time.Minute), *state.LastAlertedAt)

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, dash)
}

func TestHealthService_NotConfigured(t *testing.T) {
	svc := NewServicesWithDeps(Dependencies{Repos: newMockRepositories()}).Health
	_, err := svc.Run(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotConfigured))
}

func TestImportService_ImportLoads(t *testing.T) {
	repos := newMockRepositories()
	loads := repos.Load.(*MockLoadRepository)
	loads.loads = []models.Load{{LoadNumber: "L-100"}}
	loads.failOn = "L-103"
	jobs := repos.ImportJob.(*MockImportJobRepository)
	svc := NewServicesWithDeps(Dependencies{Repos: repos}).Import

	csv := strings.Join([]string{
		"Load #,Origin,Destination,Rate",
		"l-100,Dallas TX,Memphis TN,1200",
		"L-101,Dallas TX,Memphis TN,\"$1,500\"",
		"L-101,Dallas TX,Memphis TN,1500",
		"L-102,,Memphis TN,900",
		"L-103,Austin TX,Tulsa OK,800",
		"L-104,Austin TX,Tulsa OK,800",
	}, "\n")
	userID := uuid.New()

	result, err := svc.ImportLoads(context.Background(), "loads.csv", strings.NewReader(csv), &userID)
	require.NoError(t, err)
	assert.Equal(t, 6, result.TotalRows)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.SkippedDuplicates)
	assert.Equal(t, 2, result.Invalid)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 5, result.Errors[0].Row)
	assert.Equal(t, 6, result.Errors[1].Row)

	require.Len(t, jobs.finished, 1)
	job := jobs.finished[0]
	assert.Equal(t, string(models.ImportJobCompleted), job.Status)
	assert.Equal(t, 2, job.Imported)
	assert.Equal(t, &userID, job.StartedBy)
}

func TestImportService_BadFile(t *testing.T) {
	repos := newMockRepositories()
	jobs := repos.ImportJob.(*MockImportJobRepository)
	svc := NewServicesWithDeps(Dependencies{Repos: repos}).Import

	_, err := svc.ImportLoads(context.Background(), "loads.csv", strings.NewReader("Foo,Bar\n1,2\n"), nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidationError))

	require.Len(t, jobs.finished, 1)
	assert.Equal(t, string(models.ImportJobFailed), jobs.finished[0].Status)
	assert.Contains(t, jobs.finished[0].ErrorMessage, "missing required columns")
}

func TestAnalyticsService_Metrics(t *testing.T) {
	repos := newMockRepositories()
	dur := 95.0
	callID := uuid.New()
	repos.Call.(*MockCallRepository).calls = []models.Call{
		{ID: callID, DurationSeconds: &dur},
		{ID: uuid.New()},
	}
	repos.Lead.(*MockLeadRepository).leads = []models.Lead{
		{ID: uuid.New(), Status: models.LeadBooked, CallID: &callID},
	}
	repos.Load.(*MockLoadRepository).loads = []models.Load{
		{ID: uuid.New(), Status: models.LoadOpen, IsActive: true},
	}
	svc := NewServicesWithDeps(Dependencies{Repos: repos}).Analytics

	m, err := svc.Metrics(context.Background(), analytics.Period{})
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalCalls)
	assert.Equal(t, 1, m.TotalLeads)
	assert.Equal(t, 1, m.TotalLoads)
	assert.Equal(t, 1, m.UnknownDurationCalls)
	assert.Equal(t, 50.0, m.CallToLeadRate)

	repos.Call.(*MockCallRepository).err = errStorage
	_, err = svc.Metrics(context.Background(), analytics.Period{})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeDatabaseError))
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repos := newMockRepositories()
	svc := NewServicesWithDeps(Dependencies{Repos: repos, Config: &config.Config{JWTSecret: "test-secret"}}).Auth
	ctx := context.Background()

	user, err := svc.Register(ctx, &repository.RegisterRequest{Email: " Dispatch@Example.com ", Password: "freight123"})
	require.NoError(t, err)
	assert.Equal(t, "dispatch@example.com", user.Email)
	assert.Equal(t, string(models.RoleAgent), user.Role)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Register(ctx, &repository.RegisterRequest{Email: "dispatch@example.com", Password: "freight123"})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeConflict))

	_, err = svc.Register(ctx, &repository.RegisterRequest{Email: "weak@example.com", Password: "password"})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidationError))

	_, err = svc.Login(ctx, "dispatch@example.com", "wrong-pass1")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUnauthorized))

	login, err := svc.Login(ctx, "dispatch@example.com", "freight123")
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Empty(t, login.User.PasswordHash)

	validated, err := svc.ValidateToken(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, validated.ID)

	_, err = svc.ValidateToken(ctx, login.RefreshToken)
	assert.Error(t, err)

	refreshed, err := svc.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)
}
