package domain

import "time"

const (
	// DefaultInvokeTimeout is the hard wall-clock limit for one invocation.
	DefaultInvokeTimeout = 30 * time.Second

	// DefaultObservabilityListenAddress serves /metrics and /healthz.
	DefaultObservabilityListenAddress = "127.0.0.1:9163"

	// BundleManifestFileName is the manifest file expected in every bundle
	// and tool directory.
	BundleManifestFileName = "manifest.json"

	// BundleConfigFileName is the optional per-bundle configuration file.
	// It is created by installation tooling, so absence is normal.
	BundleConfigFileName = "config.json"
)
