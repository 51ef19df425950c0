package healthcheck

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHealthMetrics_RecordsChecks(t *testing.T) {
	reg := prometheus.NewRegistry()
	hc := New("1.0.0", zap.NewNop())
	hc.SetMetrics(NewHealthMetrics("recipegen", reg))
	hc.Register("store", staticChecker(StatusHealthy, ""))
	hc.Register("pdf", staticChecker(StatusDegraded, "no browser"))

	hc.Check(context.Background())

	expected := `
# HELP recipegen_healthcheck_check_status Last status of each check (2=healthy, 1=degraded, 0=unhealthy)
# TYPE recipegen_healthcheck_check_status gauge
recipegen_healthcheck_check_status{check_name="pdf"} 1
recipegen_healthcheck_check_status{check_name="store"} 2
# HELP recipegen_healthcheck_status Overall health status (2=healthy, 1=degraded, 0=unhealthy)
# TYPE recipegen_healthcheck_status gauge
recipegen_healthcheck_status 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"recipegen_healthcheck_check_status", "recipegen_healthcheck_status"))
	assert.Equal(t, 2, testutil.CollectAndCount(hc.metrics.checksTotal))
}

func TestStatusToFloat(t *testing.T) {
	assert.Equal(t, 2.0, statusToFloat(StatusHealthy))
	assert.Equal(t, 1.0, statusToFloat(StatusDegraded))
	assert.Equal(t, 0.0, statusToFloat(StatusUnhealthy))
	assert.Equal(t, -1.0, statusToFloat(Status("unknown")))
}
