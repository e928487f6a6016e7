package health

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// DefaultProbeTimeout bounds each probe run
const DefaultProbeTimeout = 10 * time.Second

// Monitor runs a fixed set of probes concurrently
type Monitor struct {
	probes  []Probe
	timeout time.Duration
	logger  logger.Logger
	now     func() time.Time
}

// NewMonitor creates a monitor over probes with a per-probe timeout
func NewMonitor(probes []Probe, timeout time.Duration, log logger.Logger) *Monitor {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Monitor{probes: probes, timeout: timeout, logger: log, now: time.Now}
}

// Probes returns the configured probe names
func (m *Monitor) Probes() []string {
	names := make([]string, len(m.probes))
	for i, p := range m.probes {
		names[i] = p.Name()
	}
	return names
}

// Run executes every probe and waits for all of them. A probe that errors,
// panics or times out yields a fail result for that probe only. Results
// are returned in probe order.
func (m *Monitor) Run(ctx context.Context) []Result {
	results := make([]Result, len(m.probes))

	var g errgroup.Group
	for i, probe := range m.probes {
		i, probe := i, probe
		g.Go(func() error {
			results[i] = m.runProbe(ctx, probe)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (m *Monitor) runProbe(ctx context.Context, probe Probe) (result Result) {
	started := m.now()
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result = m.failed(probe.Name(), started, fmt.Errorf("probe panicked: %v", r))
		}
		if result.Status == models.StatusFail && result.Diagnosis == "" {
			result.Diagnosis = Diagnose(result.Message)
		}
		m.logger.Debug("health probe finished",
			"service", result.Service,
			"status", result.Status,
			"latency_ms", result.LatencyMs,
		)
	}()

	res, err := probe.Check(probeCtx)
	if err != nil {
		return m.failed(probe.Name(), started, err)
	}
	if res.Service == "" {
		res.Service = probe.Name()
	}
	if res.CheckedAt.IsZero() {
		res.CheckedAt = started
	}
	return res
}

func (m *Monitor) failed(service string, started time.Time, err error) Result {
	m.logger.Warn("health probe failed", "service", service, "error", err.Error())
	return Result{
		Service:   service,
		Status:    models.StatusFail,
		LatencyMs: m.now().Sub(started).Milliseconds(),
		Message:   err.Error(),
		Diagnosis: Diagnose(err.Error()),
		CheckedAt: started,
	}
}

// Overall returns the worst status across results, ok when empty
func Overall(results []Result) models.HealthStatus {
	overall := models.StatusOK
	for _, r := range results {
		overall = models.Worse(overall, r.Status)
	}
	return overall
}
