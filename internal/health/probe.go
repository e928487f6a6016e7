// Package health runs the system health probes, classifies failures and
// decides when a failing service should alert.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// Result is the outcome of one probe run
type Result struct {
	Service   string              `json:"service"`
	Status    models.HealthStatus `json:"status"`
	LatencyMs int64               `json:"latency_ms"`
	Message   string              `json:"message,omitempty"`
	Diagnosis string              `json:"diagnosis,omitempty"`
	CheckedAt time.Time           `json:"checked_at"`
}

// Event converts the result into a persistable health event
func (r Result) Event() models.HealthEvent {
	return models.HealthEvent{
		Service:   r.Service,
		Status:    r.Status,
		LatencyMs: r.LatencyMs,
		Message:   r.Message,
		Diagnosis: r.Diagnosis,
		CheckedAt: r.CheckedAt,
	}
}

// Probe checks one service. A returned error is recorded as a fail for
// that service.
type Probe interface {
	Name() string
	Check(ctx context.Context) (Result, error)
}

// FreshnessSource reports the newest row timestamp of a table
type FreshnessSource interface {
	LatestTimestamp(ctx context.Context, table string) (*time.Time, error)
}

// FreshnessThresholds are the row ages at which a table turns warn and fail
type FreshnessThresholds struct {
	Warn time.Duration
	Fail time.Duration
}

// FreshnessProbe fails when a table has stopped receiving rows
type FreshnessProbe struct {
	service    string
	table      string
	thresholds FreshnessThresholds
	source     FreshnessSource
	now        func() time.Time
}

// NewFreshnessProbe creates a freshness probe for table, reported as service
func NewFreshnessProbe(service, table string, thresholds FreshnessThresholds, source FreshnessSource) *FreshnessProbe {
	return &FreshnessProbe{
		service:    service,
		table:      table,
		thresholds: thresholds,
		source:     source,
		now:        time.Now,
	}
}

// Name returns the service name
func (p *FreshnessProbe) Name() string {
	return p.service
}

// Check compares the newest row age against the thresholds
func (p *FreshnessProbe) Check(ctx context.Context) (Result, error) {
	start := p.now()
	latest, err := p.source.LatestTimestamp(ctx, p.table)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read latest %s row: %w", p.table, err)
	}

	result := Result{
		Service:   p.service,
		CheckedAt: start,
		LatencyMs: p.now().Sub(start).Milliseconds(),
	}
	if latest == nil {
		result.Status = models.StatusFail
		result.Message = fmt.Sprintf("no rows in %s", p.table)
		return result, nil
	}

	age := start.Sub(*latest)
	switch {
	case age >= p.thresholds.Fail:
		result.Status = models.StatusFail
	case age >= p.thresholds.Warn:
		result.Status = models.StatusWarn
	default:
		result.Status = models.StatusOK
	}
	result.Message = fmt.Sprintf("last %s row %s ago", p.table, age.Round(time.Minute))
	return result, nil
}

// DefaultFreshnessProbes returns the calls, webhook_events and leads probes
func DefaultFreshnessProbes(source FreshnessSource) []Probe {
	return []Probe{
		NewFreshnessProbe("calls", "calls", FreshnessThresholds{Warn: 6 * time.Hour, Fail: 24 * time.Hour}, source),
		NewFreshnessProbe("webhooks", "webhook_events", FreshnessThresholds{Warn: 6 * time.Hour, Fail: 24 * time.Hour}, source),
		NewFreshnessProbe("leads", "leads", FreshnessThresholds{Warn: 12 * time.Hour, Fail: 48 * time.Hour}, source),
	}
}

// DefaultSlowThreshold is the latency above which a healthy ping is warn
const DefaultSlowThreshold = 3 * time.Second

// PingProbe checks that an HTTP endpoint answers with 2xx
type PingProbe struct {
	service string
	url     string
	slow    time.Duration
	client  *http.Client
}

// NewPingProbe creates a ping probe. client may be nil.
func NewPingProbe(service, url string, slow time.Duration, client *http.Client) *PingProbe {
	if client == nil {
		client = &http.Client{}
	}
	if slow <= 0 {
		slow = DefaultSlowThreshold
	}
	return &PingProbe{service: service, url: url, slow: slow, client: client}
}

// Name returns the service name
func (p *PingProbe) Name() string {
	return p.service
}

// Check issues one GET request
func (p *PingProbe) Check(ctx context.Context) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create ping request: %w", err)
	}
	req.Header.Set("User-Agent", "freight-ops-health/1.0")

	start := time.Now()
	resp, err := p.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("ping %s: %w", p.service, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	result := Result{
		Service:   p.service,
		CheckedAt: start,
		LatencyMs: latency.Milliseconds(),
		Message:   fmt.Sprintf("HTTP %d in %dms", resp.StatusCode, latency.Milliseconds()),
	}
	switch {
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		result.Status = models.StatusFail
	case latency > p.slow:
		result.Status = models.StatusWarn
	default:
		result.Status = models.StatusOK
	}
	return result, nil
}
