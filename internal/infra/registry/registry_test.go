package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"plugrun/internal/domain"
)

func writeBundle(t *testing.T, root, dir, manifest string) string {
	t.Helper()
	bundleRoot := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(bundleRoot, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bundleRoot, "manifest.json"), []byte(manifest), 0o644))
	return bundleRoot
}

func writeTool(t *testing.T, bundleRoot, dir, manifest string) string {
	t.Helper()
	toolDir := filepath.Join(bundleRoot, dir)
	require.NoError(t, os.MkdirAll(toolDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(toolDir, "manifest.json"), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(toolDir, "run.sh"), []byte("#!/bin/sh\necho '{}'\n"), 0o755))
	return toolDir
}

func TestScan_BuildsSnapshot(t *testing.T) {
	root := t.TempDir()
	hn := writeBundle(t, root, "hackernews", `{"name": "hackernews", "description": "HN tools"}`)
	writeTool(t, hn, "get_front_page", `{"name": "get_front_page", "description": "Top stories", "entrypoint": "run.sh"}`)
	writeTool(t, hn, "get_item", `{"name": "get_item", "description": "One item", "entrypoint": "run.sh"}`)
	weather := writeBundle(t, root, "weather", `{"name": "weather", "description": "Weather tools"}`)
	writeTool(t, weather, "forecast", `{"name": "forecast", "description": "Forecast", "entrypoint": "run.sh"}`)

	reg := New(root, zap.NewNop(), nil)
	require.NoError(t, reg.Scan(context.Background()))

	desc, ok := reg.Lookup("hackernews/get_front_page")
	require.True(t, ok)
	require.Equal(t, hn, desc.BundleRoot)
	require.Equal(t, filepath.Join(hn, "get_front_page"), desc.ToolDir)
	require.Equal(t, filepath.Join(hn, "get_front_page", "run.sh"), desc.Entrypoint)

	names := make([]string, 0)
	for _, m := range reg.List() {
		names = append(names, m.Name)
	}
	require.Equal(t, []string{"hackernews", "weather"}, names)

	snap, ok := reg.Snapshot()
	require.True(t, ok)
	require.Equal(t, uint64(1), snap.Revision)
	require.Empty(t, snap.Warnings)
}

func TestScan_BeforeFirstScan(t *testing.T) {
	reg := New(t.TempDir(), zap.NewNop(), nil)
	_, ok := reg.Lookup("a/b")
	require.False(t, ok)
	require.Nil(t, reg.List())
	_, ok = reg.Snapshot()
	require.False(t, ok)
}

func TestScan_SkipsDirWithoutManifest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "half-installed"), 0o755))
	writeBundle(t, root, "ok", `{"name": "ok", "description": "d"}`)

	reg := New(root, zap.NewNop(), nil)
	require.NoError(t, reg.Scan(context.Background()))

	snap, _ := reg.Snapshot()
	require.Len(t, snap.Bundles, 1)
	require.Empty(t, snap.Warnings)
}

func TestScan_BrokenToolBecomesWarning(t *testing.T) {
	root := t.TempDir()
	hn := writeBundle(t, root, "hackernews", `{"name": "hackernews", "description": "HN tools"}`)
	writeTool(t, hn, "good", `{"name": "good", "description": "d", "entrypoint": "run.sh"}`)
	// Entrypoint declared but never written to disk.
	broken := filepath.Join(hn, "broken")
	require.NoError(t, os.MkdirAll(broken, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(broken, "manifest.json"), []byte(`{"name": "broken", "description": "d", "entrypoint": "run.sh"}`), 0o644))

	reg := New(root, zap.NewNop(), nil)
	require.NoError(t, reg.Scan(context.Background()))

	snap, _ := reg.Snapshot()
	require.Len(t, snap.Bundles, 1)
	require.Len(t, snap.Bundles[0].Tools, 1)
	require.Len(t, snap.Warnings, 1)
	require.Contains(t, snap.Warnings[0].Reason, "does not exist")

	_, ok := reg.Lookup("hackernews/broken")
	require.False(t, ok)
	_, ok = reg.Lookup("hackernews/good")
	require.True(t, ok)
}

func TestScan_InvalidBundleManifestBecomesWarning(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "bad", `{"description": "no name"}`)
	writeBundle(t, root, "ok", `{"name": "ok", "description": "d"}`)

	reg := New(root, zap.NewNop(), nil)
	require.NoError(t, reg.Scan(context.Background()))

	snap, _ := reg.Snapshot()
	require.Len(t, snap.Bundles, 1)
	require.Equal(t, "ok", snap.Bundles[0].Manifest.Name)
	require.Len(t, snap.Warnings, 1)
}

func TestScan_DuplicateBundleKeepsPreviousSnapshot(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "a-hackernews", `{"name": "hackernews", "description": "d"}`)

	reg := New(root, zap.NewNop(), nil)
	require.NoError(t, reg.Scan(context.Background()))
	first, _ := reg.Snapshot()

	// Second directory declaring the same bundle name must fail the rescan.
	writeBundle(t, root, "b-hackernews", `{"name": "hackernews", "description": "d"}`)
	err := reg.Scan(context.Background())
	var scanErr *domain.ScanError
	require.True(t, errors.As(err, &scanErr))

	current, ok := reg.Snapshot()
	require.True(t, ok)
	require.Equal(t, first.Revision, current.Revision)
	require.Len(t, current.Bundles, 1)
}

func TestScan_DuplicateOnFirstScanLeavesRegistryEmpty(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "a", `{"name": "same", "description": "d"}`)
	writeBundle(t, root, "b", `{"name": "same", "description": "d"}`)

	reg := New(root, zap.NewNop(), nil)
	err := reg.Scan(context.Background())
	var scanErr *domain.ScanError
	require.True(t, errors.As(err, &scanErr))

	_, ok := reg.Snapshot()
	require.False(t, ok)
}

func TestScan_ReloadPublishesNewRevision(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "one", `{"name": "one", "description": "d"}`)

	reg := New(root, zap.NewNop(), nil)
	require.NoError(t, reg.Scan(context.Background()))
	writeBundle(t, root, "two", `{"name": "two", "description": "d"}`)
	require.NoError(t, reg.Scan(context.Background()))

	snap, _ := reg.Snapshot()
	require.Equal(t, uint64(2), snap.Revision)
	require.Len(t, snap.Bundles, 2)
}
