// Package config loads the runner's own runtime configuration. This is the
// runner's config, not a bundle's config.json; bundles are handled by
// bundleconfig.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"plugrun/internal/domain"
)

const (
	defaultInvokeTimeoutSeconds = 30
	defaultAuditPath            = "plugrun-audit.db"
)

// Runtime is the normalized runner configuration.
type Runtime struct {
	BundlesRoot   string
	InvokeTimeout time.Duration
	Watch         bool
	Audit         AuditConfig
	Observability ObservabilityConfig
}

type AuditConfig struct {
	Enabled bool
	Path    string
}

type ObservabilityConfig struct {
	ListenAddress string
}

type rawRuntime struct {
	BundlesRoot          string           `mapstructure:"bundlesRoot"`
	InvokeTimeoutSeconds int              `mapstructure:"invokeTimeoutSeconds"`
	Watch                bool             `mapstructure:"watch"`
	Audit                rawAuditConfig   `mapstructure:"audit"`
	Observability        rawObservability `mapstructure:"observability"`
}

type rawAuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type rawObservability struct {
	ListenAddress string `mapstructure:"listenAddress"`
}

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("config")}
}

func newRuntimeViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("invokeTimeoutSeconds", defaultInvokeTimeoutSeconds)
	v.SetDefault("watch", false)
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.path", defaultAuditPath)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	return v
}

// Load reads the runner configuration from path. An empty path yields the
// defaults so the CLI works with flags alone.
func (l *Loader) Load(path string) (Runtime, error) {
	v := newRuntimeViper()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Runtime{}, fmt.Errorf("read config: %w", err)
		}
		if err := v.ReadConfig(bytes.NewBuffer(data)); err != nil {
			return Runtime{}, fmt.Errorf("parse config: %w", err)
		}
	}

	var raw rawRuntime
	if err := v.Unmarshal(&raw); err != nil {
		return Runtime{}, fmt.Errorf("decode config: %w", err)
	}

	runtime, errs := normalizeRuntime(raw)
	if len(errs) > 0 {
		return Runtime{}, errors.New(strings.Join(errs, "; "))
	}
	return runtime, nil
}

func normalizeRuntime(raw rawRuntime) (Runtime, []string) {
	var errs []string

	if raw.InvokeTimeoutSeconds <= 0 {
		errs = append(errs, "invokeTimeoutSeconds must be > 0")
	}

	auditPath := strings.TrimSpace(raw.Audit.Path)
	if raw.Audit.Enabled && auditPath == "" {
		errs = append(errs, "audit.path is required when audit.enabled is true")
	}

	addr := strings.TrimSpace(raw.Observability.ListenAddress)
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}

	return Runtime{
		BundlesRoot:   strings.TrimSpace(raw.BundlesRoot),
		InvokeTimeout: time.Duration(raw.InvokeTimeoutSeconds) * time.Second,
		Watch:         raw.Watch,
		Audit: AuditConfig{
			Enabled: raw.Audit.Enabled,
			Path:    auditPath,
		},
		Observability: ObservabilityConfig{
			ListenAddress: addr,
		},
	}, errs
}
