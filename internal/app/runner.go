// Package app wires the registry, config resolver, invoker and audit store
// into the runner surface an orchestrator consumes.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plugrun/internal/domain"
	"plugrun/internal/infra/audit"
	"plugrun/internal/infra/bundleconfig"
	"plugrun/internal/infra/config"
	"plugrun/internal/infra/invoker"
	"plugrun/internal/infra/registry"
)

// ErrToolNotFound reports a lookup miss as a typed error.
type ErrToolNotFound struct {
	ToolID string
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool %q not found", e.ToolID)
}

// InvocationResult is the outcome envelope handed back to the orchestrator.
// MissingConfig is advisory: required bundle config keys that were absent at
// invocation time. It never blocks the call.
type InvocationResult struct {
	ID            string
	ToolID        string
	Outcome       domain.Outcome
	Duration      time.Duration
	MissingConfig []string
}

type Runner struct {
	logger   *zap.Logger
	registry *registry.Registry
	invoker  *invoker.Invoker
	audit    *audit.Store
	runtime  config.Runtime
}

type Options struct {
	Logger  *zap.Logger
	Metrics domain.Metrics
	Runtime config.Runtime
	// Audit is optional; nil disables invocation records.
	Audit *audit.Store
}

func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}
	return &Runner{
		logger:   logger.Named("runner"),
		registry: registry.New(opts.Runtime.BundlesRoot, logger, metrics),
		invoker: invoker.New(invoker.Options{
			Logger:  logger,
			Metrics: metrics,
			Timeout: opts.Runtime.InvokeTimeout,
		}),
		audit:   opts.Audit,
		runtime: opts.Runtime,
	}
}

// Start performs the initial scan and, when configured, begins watching the
// bundles root for install and update activity.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.registry.Scan(ctx); err != nil {
		return err
	}
	if r.runtime.Watch {
		r.registry.Watch(ctx)
	}
	return nil
}

// Reload rescans the bundles root and atomically publishes a new snapshot.
func (r *Runner) Reload(ctx context.Context) error {
	return r.registry.Scan(ctx)
}

// List returns the bundle manifests of the current snapshot in scan order.
func (r *Runner) List() []domain.BundleManifest {
	return r.registry.List()
}

// Warnings returns the scan warnings attached to the current snapshot.
func (r *Runner) Warnings() []domain.ScanWarning {
	snap, ok := r.registry.Snapshot()
	if !ok {
		return nil
	}
	return snap.Warnings
}

// Instructions relays a bundle's display text, truncated at the hard
// character bound. The text is opaque payload; nothing here interprets it.
func (r *Runner) Instructions(bundleName string) (string, bool, error) {
	bundle, err := r.lookupBundle(bundleName)
	if err != nil {
		return "", false, err
	}
	text, ok := domain.RelayInstructions(bundle.Manifest)
	return text, ok, nil
}

// CheckConfig reports the bundle's required config keys currently absent from
// its config.json. Advisory only; see Invoke.
func (r *Runner) CheckConfig(bundleName string) ([]string, error) {
	bundle, err := r.lookupBundle(bundleName)
	if err != nil {
		return nil, err
	}
	values, err := bundleconfig.Resolve(bundle.Root)
	if err != nil {
		return nil, err
	}
	return bundleconfig.MissingRequired(bundle.Manifest, values), nil
}

// Invoke runs one tool. Lookup misses and malformed tool ids are errors;
// everything that happens after a descriptor resolves lands in the typed
// Outcome, never in err.
func (r *Runner) Invoke(ctx context.Context, toolID string, params map[string]any) (InvocationResult, error) {
	bundleName, _, err := domain.SplitToolID(toolID)
	if err != nil {
		return InvocationResult{}, err
	}
	desc, ok := r.registry.Lookup(toolID)
	if !ok {
		return InvocationResult{}, &ErrToolNotFound{ToolID: toolID}
	}

	result := InvocationResult{
		ID:     uuid.NewString(),
		ToolID: toolID,
	}

	// Missing required keys are surfaced, never enforced: the tool itself is
	// the judge of whether it can run without them.
	if bundle, ok := r.bundleByName(bundleName); ok {
		values, cfgErr := bundleconfig.Resolve(bundle.Root)
		if cfgErr != nil {
			r.logger.Warn("bundle config unreadable",
				zap.String("bundle", bundleName),
				zap.Error(cfgErr),
			)
		} else if missing := bundleconfig.MissingRequired(bundle.Manifest, values); len(missing) > 0 {
			r.logger.Warn("required bundle config missing",
				zap.String("bundle", bundleName),
				zap.Strings("keys", missing),
			)
			result.MissingConfig = missing
		}
	}

	started := time.Now()
	result.Outcome = r.invoker.Invoke(ctx, desc, params)
	result.Duration = time.Since(started)

	r.recordAudit(result, started)
	return result, nil
}

func (r *Runner) recordAudit(result InvocationResult, started time.Time) {
	if r.audit == nil {
		return
	}
	rec := audit.Record{
		ID:        result.ID,
		ToolID:    result.ToolID,
		Outcome:   result.Outcome.Kind(),
		Duration:  result.Duration,
		StartedAt: started,
	}
	if result.Outcome.Failure != nil {
		rec.ExitCode = result.Outcome.Failure.ExitCode
	}
	if err := r.audit.Append(rec); err != nil {
		r.logger.Warn("audit append failed", zap.String("invocation", result.ID), zap.Error(err))
	}
}

func (r *Runner) lookupBundle(name string) (domain.Bundle, error) {
	bundle, ok := r.bundleByName(name)
	if !ok {
		return domain.Bundle{}, fmt.Errorf("bundle %q not found", name)
	}
	return bundle, nil
}

func (r *Runner) bundleByName(name string) (domain.Bundle, bool) {
	snap, ok := r.registry.Snapshot()
	if !ok {
		return domain.Bundle{}, false
	}
	return snap.LookupBundle(name)
}
