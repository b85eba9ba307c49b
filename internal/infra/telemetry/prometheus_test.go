package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"plugrun/internal/domain"
)

func TestPrometheusMetrics_Registers(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.ObserveInvocation(domain.InvocationMetric{
		ToolID:   "hackernews/get_front_page",
		Outcome:  "success",
		Duration: 80 * time.Millisecond,
	})
	metrics.AddInflightInvocations(1)
	metrics.AddInflightInvocations(-1)
	metrics.ObserveScan(domain.ScanMetric{Bundles: 2, Tools: 5, Warnings: 1})
	metrics.ObserveScan(domain.ScanMetric{Err: errors.New("duplicate")})

	require.Equal(t, float64(2), testutil.ToFloat64(metrics.bundles))
	require.Equal(t, float64(5), testutil.ToFloat64(metrics.tools))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.scanWarnings))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.inflight))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.scans.WithLabelValues("error")))
}
