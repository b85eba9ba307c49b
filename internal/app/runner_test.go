package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"plugrun/internal/domain"
	"plugrun/internal/infra/audit"
	"plugrun/internal/infra/config"
)

const echoScript = `#!/bin/sh
input=$(cat)
query=$(printf '%s' "$input" | sed -n 's/.*"query":"\([^"]*\)".*/\1/p')
printf '{"result": "You asked: %s"}' "$query"
`

func writeFixtureBundle(t *testing.T, root string) {
	t.Helper()
	toolDir := filepath.Join(root, "hackernews", "get_front_page")
	require.NoError(t, os.MkdirAll(toolDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "hackernews", "manifest.json"), []byte(`{
		"name": "hackernews",
		"description": "Tools for reading Hacker News",
		"instructions": "Call get_front_page for browsing.",
		"config": {"api_token": {"description": "API token", "required": true}}
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(toolDir, "manifest.json"), []byte(`{
		"name": "get_front_page",
		"description": "Fetch top stories",
		"entrypoint": "run.sh",
		"parameters": {"query": {"type": "string", "description": "Search query"}}
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(toolDir, "run.sh"), []byte(echoScript), 0o755))
}

func newTestRunner(t *testing.T, root string, store *audit.Store) *Runner {
	t.Helper()
	runner := New(Options{
		Logger: zap.NewNop(),
		Audit:  store,
		Runtime: config.Runtime{
			BundlesRoot:   root,
			InvokeTimeout: 10 * time.Second,
		},
	})
	require.NoError(t, runner.Start(context.Background()))
	return runner
}

func TestRunner_InvokeEcho(t *testing.T) {
	root := t.TempDir()
	writeFixtureBundle(t, root)
	runner := newTestRunner(t, root, nil)

	result, err := runner.Invoke(context.Background(), "hackernews/get_front_page", map[string]any{"query": "test"})
	require.NoError(t, err)
	require.NotEmpty(t, result.ID)
	require.True(t, result.Outcome.OK(), "failure: %v", result.Outcome.Failure)
	require.Equal(t, map[string]any{"result": "You asked: test"}, result.Outcome.Output)

	// api_token is declared required and config.json does not exist yet; the
	// invocation proceeds with the gap reported, not enforced.
	require.Equal(t, []string{"api_token"}, result.MissingConfig)
}

func TestRunner_InvokeUnknownTool(t *testing.T) {
	root := t.TempDir()
	writeFixtureBundle(t, root)
	runner := newTestRunner(t, root, nil)

	_, err := runner.Invoke(context.Background(), "hackernews/nope", nil)
	var notFound *ErrToolNotFound
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "hackernews/nope", notFound.ToolID)

	_, err = runner.Invoke(context.Background(), "not-a-tool-id", nil)
	require.Error(t, err)
}

func TestRunner_MissingConfigClearsAfterInstall(t *testing.T) {
	root := t.TempDir()
	writeFixtureBundle(t, root)
	runner := newTestRunner(t, root, nil)

	missing, err := runner.CheckConfig("hackernews")
	require.NoError(t, err)
	require.Equal(t, []string{"api_token"}, missing)

	require.NoError(t, os.WriteFile(
		filepath.Join(root, "hackernews", "config.json"),
		[]byte(`{"api_token": "abc"}`),
		0o644,
	))

	missing, err = runner.CheckConfig("hackernews")
	require.NoError(t, err)
	require.Empty(t, missing)

	result, err := runner.Invoke(context.Background(), "hackernews/get_front_page", map[string]any{"query": "q"})
	require.NoError(t, err)
	require.Empty(t, result.MissingConfig)
}

func TestRunner_Instructions(t *testing.T) {
	root := t.TempDir()
	writeFixtureBundle(t, root)
	runner := newTestRunner(t, root, nil)

	text, ok, err := runner.Instructions("hackernews")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Call get_front_page for browsing.", text)

	_, _, err = runner.Instructions("absent")
	require.ErrorContains(t, err, "not found")
}

func TestRunner_InstructionsTruncated(t *testing.T) {
	root := t.TempDir()
	bundleRoot := filepath.Join(root, "verbose")
	require.NoError(t, os.MkdirAll(bundleRoot, 0o755))
	long := strings.Repeat("x", 6000)
	require.NoError(t, os.WriteFile(filepath.Join(bundleRoot, "manifest.json"),
		[]byte(`{"name": "verbose", "description": "d", "instructions": "`+long+`"}`), 0o644))
	runner := newTestRunner(t, root, nil)

	text, ok, err := runner.Instructions("verbose")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, text, domain.InstructionsLimit)
}

func TestRunner_AuditRecordsInvocation(t *testing.T) {
	root := t.TempDir()
	writeFixtureBundle(t, root)
	store, err := audit.Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	runner := newTestRunner(t, root, store)
	result, err := runner.Invoke(context.Background(), "hackernews/get_front_page", map[string]any{"query": "q"})
	require.NoError(t, err)

	recent, err := store.Recent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, result.ID, recent[0].ID)
	require.Equal(t, "hackernews/get_front_page", recent[0].ToolID)
	require.Equal(t, "success", recent[0].Outcome)
}

func TestRunner_Reload(t *testing.T) {
	root := t.TempDir()
	writeFixtureBundle(t, root)
	runner := newTestRunner(t, root, nil)
	require.Len(t, runner.List(), 1)

	other := filepath.Join(root, "weather")
	require.NoError(t, os.MkdirAll(other, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(other, "manifest.json"),
		[]byte(`{"name": "weather", "description": "d"}`), 0o644))

	require.NoError(t, runner.Reload(context.Background()))
	require.Len(t, runner.List(), 2)
	require.Empty(t, runner.Warnings())
}
