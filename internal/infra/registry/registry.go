// Package registry discovers plugin bundles on disk and publishes immutable
// snapshots of the resulting tool index.
package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"plugrun/internal/domain"
	"plugrun/internal/infra/manifest"
)

// Registry scans a root directory for bundles and serves lookups against the
// most recently published snapshot. A failed rescan keeps the previous
// snapshot; in-flight invocations holding descriptors from an old snapshot
// are unaffected by a reload.
type Registry struct {
	logger  *zap.Logger
	metrics domain.Metrics
	root    string

	state    atomic.Value
	revision atomic.Uint64

	reloadMu  sync.Mutex
	watchOnce sync.Once
}

// New builds a registry over root. Call Scan before serving lookups.
func New(root string, logger *zap.Logger, metrics domain.Metrics) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}
	return &Registry{
		logger:  logger.Named("registry"),
		metrics: metrics,
		root:    root,
	}
}

// Snapshot returns the current snapshot. ok is false before the first
// successful scan.
func (r *Registry) Snapshot() (domain.Snapshot, bool) {
	state, ok := r.state.Load().(domain.Snapshot)
	return state, ok
}

// Lookup resolves a fully qualified tool id against the current snapshot.
func (r *Registry) Lookup(toolID string) (domain.ToolDescriptor, bool) {
	snap, ok := r.Snapshot()
	if !ok {
		return domain.ToolDescriptor{}, false
	}
	return snap.Lookup(toolID)
}

// List returns the bundle manifests of the current snapshot in scan order.
func (r *Registry) List() []domain.BundleManifest {
	snap, ok := r.Snapshot()
	if !ok {
		return nil
	}
	return snap.List()
}

// Scan rescans the root and atomically publishes a new snapshot. On error
// the previous snapshot (or none, before the first scan) stays in place.
func (r *Registry) Scan(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	started := time.Now()
	bundles, warnings, err := scanRoot(ctx, r.root, r.logger)
	if err == nil {
		var snap domain.Snapshot
		snap, err = domain.NewSnapshot(bundles, warnings, r.revision.Load()+1, time.Now())
		if err == nil {
			r.revision.Store(snap.Revision)
			r.state.Store(snap)
			r.logger.Info("snapshot published",
				zap.Uint64("revision", snap.Revision),
				zap.Int("bundles", len(snap.Bundles)),
				zap.Int("tools", snap.ToolCount()),
				zap.Int("warnings", len(snap.Warnings)),
			)
		}
	}

	metric := domain.ScanMetric{Err: err, Duration: time.Since(started)}
	if err == nil {
		snap, _ := r.Snapshot()
		metric.Bundles = len(snap.Bundles)
		metric.Tools = snap.ToolCount()
		metric.Warnings = len(snap.Warnings)
	}
	r.metrics.ObserveScan(metric)
	return err
}

func scanRoot(ctx context.Context, root string, logger *zap.Logger) ([]domain.Bundle, []domain.ScanWarning, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, &domain.ScanError{Root: root, Message: err.Error()}
	}
	entries, err := os.ReadDir(absRoot)
	if err != nil {
		return nil, nil, &domain.ScanError{Root: root, Message: fmt.Sprintf("read root: %v", err)}
	}

	var bundles []domain.Bundle
	var warnings []domain.ScanWarning
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if !entry.IsDir() {
			continue
		}
		bundleRoot := filepath.Join(absRoot, entry.Name())
		manifestPath := filepath.Join(bundleRoot, domain.BundleManifestFileName)
		raw, err := os.ReadFile(manifestPath)
		if err != nil {
			if os.IsNotExist(err) {
				// Likely a partially installed bundle; discovery stays quiet.
				logger.Debug("bundle without manifest skipped", zap.String("path", bundleRoot))
				continue
			}
			warnings = append(warnings, domain.ScanWarning{Path: manifestPath, Reason: err.Error()})
			continue
		}

		bundleManifest, err := manifest.ParseBundle(raw, manifestPath)
		if err != nil {
			warnings = append(warnings, domain.ScanWarning{Path: manifestPath, Reason: err.Error()})
			continue
		}

		tools, toolWarnings := scanTools(bundleRoot, bundleManifest.Name)
		warnings = append(warnings, toolWarnings...)
		bundles = append(bundles, domain.Bundle{
			Manifest: bundleManifest,
			Root:     bundleRoot,
			Tools:    tools,
		})
	}
	return bundles, warnings, nil
}

// scanTools enumerates the immediate subdirectories of one bundle. A broken
// tool is isolated from the rest of its bundle: it becomes a warning, never
// a scan failure.
func scanTools(bundleRoot, bundleName string) ([]domain.ToolDescriptor, []domain.ScanWarning) {
	entries, err := os.ReadDir(bundleRoot)
	if err != nil {
		return nil, []domain.ScanWarning{{Path: bundleRoot, Reason: err.Error()}}
	}

	var tools []domain.ToolDescriptor
	var warnings []domain.ScanWarning
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		toolDir := filepath.Join(bundleRoot, entry.Name())
		manifestPath := filepath.Join(toolDir, domain.BundleManifestFileName)
		raw, err := os.ReadFile(manifestPath)
		if err != nil {
			warnings = append(warnings, domain.ScanWarning{Path: toolDir, Reason: fmt.Sprintf("read tool manifest: %v", err)})
			continue
		}
		toolManifest, err := manifest.ParseTool(raw, toolDir, manifestPath)
		if err != nil {
			warnings = append(warnings, domain.ScanWarning{Path: manifestPath, Reason: err.Error()})
			continue
		}
		tools = append(tools, domain.ToolDescriptor{
			ID:         domain.JoinToolID(bundleName, toolManifest.Name),
			BundleRoot: bundleRoot,
			ToolDir:    toolDir,
			Entrypoint: filepath.Join(toolDir, toolManifest.Entrypoint),
			Manifest:   toolManifest,
		})
	}
	return tools, warnings
}
