package app

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/catalog/internal/platform/httpx"
)

// Health statuses.
const (
	StatusHealthy   = "Healthy"
	StatusUnhealthy = "Unhealthy"
)

// Probe checks one dependency.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthCheck reports the state of one probe.
type HealthCheck struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// HealthReport is the body of /health.
type HealthReport struct {
	Status   string                 `json:"status"`
	Checks   map[string]HealthCheck `json:"checks"`
	Duration string                 `json:"duration"`
}

// CheckHealth runs every probe concurrently, each bounded by timeout.
func CheckHealth(ctx context.Context, timeout time.Duration, probes []Probe) HealthReport {
	start := time.Now()
	results := make([]HealthCheck, len(probes))

	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			began := time.Now()
			check := HealthCheck{Status: StatusHealthy}
			if err := p.Check(probeCtx); err != nil {
				check = HealthCheck{Status: StatusUnhealthy, Error: err.Error()}
			}
			check.Duration = time.Since(began).String()
			results[i] = check
			return nil
		})
	}
	_ = g.Wait()

	report := HealthReport{Status: StatusHealthy, Checks: make(map[string]HealthCheck, len(probes))}
	for i, p := range probes {
		report.Checks[p.Name] = results[i]
		if results[i].Status != StatusHealthy {
			report.Status = StatusUnhealthy
		}
	}
	report.Duration = time.Since(start).String()
	return report
}

// HealthHandler serves the aggregated probe report: 200 when every probe
// passes, 503 otherwise. Probe errors are only included when verbose.
func HealthHandler(probes []Probe, verbose bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := CheckHealth(r.Context(), 5*time.Second, probes)
		if !verbose {
			for name, check := range report.Checks {
				check.Error = ""
				report.Checks[name] = check
			}
		}
		status := http.StatusOK
		if report.Status != StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		httpx.JSON(w, status, report)
	}
}
