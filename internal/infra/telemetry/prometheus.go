package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"plugrun/internal/domain"
)

// PrometheusMetrics implements domain.Metrics on a prometheus registerer.
type PrometheusMetrics struct {
	invocationDuration *prometheus.HistogramVec
	inflight           prometheus.Gauge
	scans              *prometheus.CounterVec
	bundles            prometheus.Gauge
	tools              prometheus.Gauge
	scanWarnings       prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		invocationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plugrun_invocation_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"tool", "outcome"},
		),
		inflight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "plugrun_inflight_invocations",
				Help: "Current number of running tool invocations",
			},
		),
		scans: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plugrun_registry_scans_total",
				Help: "Total number of registry scans",
			},
			[]string{"result"},
		),
		bundles: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "plugrun_registry_bundles",
				Help: "Bundles in the current registry snapshot",
			},
		),
		tools: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "plugrun_registry_tools",
				Help: "Tools in the current registry snapshot",
			},
		),
		scanWarnings: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "plugrun_registry_scan_warnings",
				Help: "Warnings attached to the current registry snapshot",
			},
		),
	}
}

func (p *PrometheusMetrics) ObserveInvocation(metric domain.InvocationMetric) {
	p.invocationDuration.WithLabelValues(metric.ToolID, metric.Outcome).Observe(metric.Duration.Seconds())
}

func (p *PrometheusMetrics) AddInflightInvocations(delta int) {
	p.inflight.Add(float64(delta))
}

func (p *PrometheusMetrics) ObserveScan(metric domain.ScanMetric) {
	result := "success"
	if metric.Err != nil {
		result = "error"
	}
	p.scans.WithLabelValues(result).Inc()
	if metric.Err == nil {
		p.bundles.Set(float64(metric.Bundles))
		p.tools.Set(float64(metric.Tools))
		p.scanWarnings.Set(float64(metric.Warnings))
	}
}
