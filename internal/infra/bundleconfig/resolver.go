// Package bundleconfig reads a bundle's optional config.json and answers the
// advisory "are all required keys present" question. It never blocks an
// invocation; a tool that depends on an absent key fails on its own terms.
package bundleconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"plugrun/internal/domain"
)

// Resolve loads bundleRoot/config.json into a flat key/value mapping. The
// file is created by installation tooling after the bundle lands on disk, so
// a missing file is normal and yields an empty mapping.
func Resolve(bundleRoot string) (map[string]any, error) {
	path := filepath.Join(bundleRoot, domain.BundleConfigFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

// MissingRequired lists required config keys the bundle declares that are
// absent from values, sorted for stable reporting. Advisory only.
func MissingRequired(m domain.BundleManifest, values map[string]any) []string {
	var missing []string
	for key, spec := range m.Config {
		if !spec.Required {
			continue
		}
		if _, ok := values[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
