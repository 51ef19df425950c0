// Package healthcheck metrics integration
// Provides Prometheus metrics for health check monitoring
package healthcheck

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthMetrics provides Prometheus metrics for health checks
type HealthMetrics struct {
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	checkStatus   *prometheus.GaugeVec
	healthStatus  prometheus.Gauge
}

// NewHealthMetrics registers the health check metrics on reg
func NewHealthMetrics(namespace string, reg prometheus.Registerer) *HealthMetrics {
	factory := promauto.With(reg)

	return &HealthMetrics{
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "checks_total",
				Help:      "Total number of health checks performed",
			},
			[]string{"check_name", "status"},
		),
		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "check_duration_seconds",
				Help:      "Duration of individual health checks",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"check_name"},
		),
		checkStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "check_status",
				Help:      "Last status of each check (2=healthy, 1=degraded, 0=unhealthy)",
			},
			[]string{"check_name"},
		),
		healthStatus: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "status",
				Help:      "Overall health status (2=healthy, 1=degraded, 0=unhealthy)",
			},
		),
	}
}

// RecordCheck records the outcome of one check
func (hm *HealthMetrics) RecordCheck(check Check) {
	hm.checksTotal.WithLabelValues(check.Name, string(check.Status)).Inc()
	hm.checkDuration.WithLabelValues(check.Name).Observe(check.Duration.Seconds())
	hm.checkStatus.WithLabelValues(check.Name).Set(statusToFloat(check.Status))
}

// UpdateHealthStatus updates the overall health status gauge
func (hm *HealthMetrics) UpdateHealthStatus(status Status) {
	hm.healthStatus.Set(statusToFloat(status))
}

// statusToFloat converts a Status to a float for Prometheus metrics
func statusToFloat(status Status) float64 {
	switch status {
	case StatusHealthy:
		return 2
	case StatusDegraded:
		return 1
	case StatusUnhealthy:
		return 0
	default:
		return -1
	}
}
