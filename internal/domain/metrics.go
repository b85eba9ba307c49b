package domain

import "time"

// ScanMetric captures the result of one registry scan.
type ScanMetric struct {
	Bundles  int
	Tools    int
	Warnings int
	Err      error
	Duration time.Duration
}

// InvocationMetric captures the result of one tool invocation.
type InvocationMetric struct {
	ToolID   string
	Outcome  string
	Duration time.Duration
}

// Metrics records operational metrics for scans and invocations.
type Metrics interface {
	ObserveScan(metric ScanMetric)
	ObserveInvocation(metric InvocationMetric)
	AddInflightInvocations(delta int)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveScan(ScanMetric)             {}
func (NopMetrics) ObserveInvocation(InvocationMetric) {}
func (NopMetrics) AddInflightInvocations(int)         {}
