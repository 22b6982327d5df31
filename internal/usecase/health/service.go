package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates no search backend is reachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentLive     = "live"
	ComponentSnapshot = "snapshot"
	ComponentCache    = "cache"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	live     Pinger
	snapshot Pinger
	cache    Pinger
}

// New creates a Service. Any pinger can be nil when the component is not configured.
func New(live, snapshot, cache Pinger) *Service {
	return &Service{live: live, snapshot: snapshot, cache: cache}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	backends, backendsUp := 0, 0

	for _, c := range []struct {
		name    string
		p       Pinger
		backend bool
	}{
		{ComponentLive, s.live, true},
		{ComponentSnapshot, s.snapshot, true},
		{ComponentCache, s.cache, false},
	} {
		if c.p == nil {
			continue
		}
		res := ping(ctx, c.p)
		checks[c.name] = res
		if c.backend {
			backends++
			if res == CheckOK {
				backendsUp++
			}
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if backends > 0 && backendsUp == 0 {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func ping(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
