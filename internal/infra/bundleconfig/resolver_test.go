package bundleconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"plugrun/internal/domain"
)

func TestResolve_MissingFileIsEmptyMapping(t *testing.T) {
	values, err := Resolve(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, values)
	require.Empty(t, values)
}

func TestResolve_ReadsFlatObject(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(root, domain.BundleConfigFileName),
		[]byte(`{"api_token": "abc", "page_size": 25, "verbose": true}`),
		0o644,
	))

	values, err := Resolve(root)
	require.NoError(t, err)
	require.Equal(t, "abc", values["api_token"])
	require.Equal(t, float64(25), values["page_size"])
	require.Equal(t, true, values["verbose"])
}

func TestResolve_MalformedFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, domain.BundleConfigFileName), []byte(`[]`), 0o644))

	_, err := Resolve(root)
	require.Error(t, err)
}

func TestMissingRequired(t *testing.T) {
	m := domain.BundleManifest{
		Name:        "hn",
		Description: "d",
		Config: map[string]domain.ConfigSpec{
			"api_token": {Description: "token", Required: true},
			"base_url":  {Description: "override", Required: false},
			"account":   {Description: "account", Required: true},
		},
	}

	missing := MissingRequired(m, map[string]any{"api_token": "abc"})
	require.Equal(t, []string{"account"}, missing)

	missing = MissingRequired(m, nil)
	require.Equal(t, []string{"account", "api_token"}, missing)

	require.Empty(t, MissingRequired(domain.BundleManifest{Name: "plain"}, nil))
}
