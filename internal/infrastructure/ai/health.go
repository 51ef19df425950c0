// Package ai provides health check integration for generation backends
package ai

import (
	"context"
	"time"

	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/alchemorsel/recipegen/pkg/healthcheck"
)

// pinger is implemented by backends that can be probed cheaply
type pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthChecker reports on the configured generation backend. Hosted
// providers are not probed since every probe would be a billed call.
type HealthChecker struct {
	service outbound.AIService
	timeout time.Duration
}

// NewHealthChecker creates a checker for service, which may be nil
func NewHealthChecker(service outbound.AIService) *HealthChecker {
	return &HealthChecker{service: service, timeout: 5 * time.Second}
}

// Check implements healthcheck.Checker
func (h *HealthChecker) Check(ctx context.Context) healthcheck.Check {
	start := time.Now()
	check := healthcheck.Check{
		Name:        "ai",
		LastChecked: start,
	}

	if h.service == nil {
		check.Status = healthcheck.StatusDegraded
		check.Message = "generation backend is not configured"
		return check
	}
	check.Metadata = map[string]string{"provider": h.service.Name()}

	p, ok := h.service.(pinger)
	if !ok {
		check.Status = healthcheck.StatusHealthy
		return check
	}

	probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := p.HealthCheck(probeCtx)
	check.Duration = time.Since(start)
	if err != nil {
		check.Status = healthcheck.StatusDegraded
		check.Message = err.Error()
		return check
	}

	check.Status = healthcheck.StatusHealthy
	return check
}

var _ healthcheck.Checker = (*HealthChecker)(nil)
