package health

import (
	"math"
	"sort"
	"time"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// Uptime is the share of ok events per service over a window, as a
// percentage rounded to one decimal. A window without events is 100.
func Uptime(events []models.HealthEvent, service string, since time.Time) float64 {
	total, ok := 0, 0
	for _, e := range events {
		if e.Service != service || e.CheckedAt.Before(since) {
			continue
		}
		total++
		if e.Status == models.StatusOK {
			ok++
		}
	}
	if total == 0 {
		return 100
	}
	return math.Round(float64(ok)/float64(total)*1000) / 10
}

// ServiceSummary is one row of the system health dashboard
type ServiceSummary struct {
	Service       string              `json:"service"`
	Status        models.HealthStatus `json:"status"`
	LastChangedAt *time.Time          `json:"last_changed_at,omitempty"`
	LastAlertedAt *time.Time          `json:"last_alerted_at,omitempty"`
	Uptime24h     float64             `json:"uptime_24h"`
	Uptime7d      float64             `json:"uptime_7d"`
}

// Dashboard is the aggregate system health view
type Dashboard struct {
	Overall   models.HealthStatus `json:"overall"`
	Services  []ServiceSummary    `json:"services"`
	CheckedAt time.Time           `json:"checked_at"`
}

// Summarize builds the dashboard from stored states and the last seven
// days of events. Services are sorted by name.
func Summarize(states []models.ServiceState, events []models.HealthEvent, now time.Time) Dashboard {
	day := now.Add(-24 * time.Hour)
	week := now.Add(-7 * 24 * time.Hour)

	dash := Dashboard{Overall: models.StatusOK, Services: []ServiceSummary{}, CheckedAt: now}
	for _, st := range states {
		changed := st.LastChangedAt
		summary := ServiceSummary{
			Service:       st.Service,
			Status:        st.LastStatus,
			LastAlertedAt: st.LastAlertedAt,
			Uptime24h:     Uptime(events, st.Service, day),
			Uptime7d:      Uptime(events, st.Service, week),
		}
		if !changed.IsZero() {
			summary.LastChangedAt = &changed
		}
		dash.Services = append(dash.Services, summary)
		dash.Overall = models.Worse(dash.Overall, st.LastStatus)
	}

	sort.Slice(dash.Services, func(i, j int) bool {
		return dash.Services[i].Service < dash.Services[j].Service
	})
	return dash
}
