// Package manifest parses and validates bundle and tool manifests. Validation
// is pure apart from the entrypoint existence and executability checks, which
// only read the filesystem.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"plugrun/internal/domain"
)

type rawBundleManifest struct {
	Name         *string                  `json:"name"`
	Description  *string                  `json:"description"`
	Instructions *string                  `json:"instructions"`
	Config       map[string]rawConfigSpec `json:"config"`
}

type rawConfigSpec struct {
	Description *string `json:"description"`
	Required    *bool   `json:"required"`
}

type rawToolManifest struct {
	Name        *string                     `json:"name"`
	Description *string                     `json:"description"`
	Entrypoint  *string                     `json:"entrypoint"`
	Parameters  map[string]rawParameterSpec `json:"parameters"`
}

type rawParameterSpec struct {
	Type        *string `json:"type"`
	Description *string `json:"description"`
}

// ParseBundle validates raw manifest.json bytes as a bundle manifest.
func ParseBundle(raw []byte, path string) (domain.BundleManifest, error) {
	var decoded rawBundleManifest
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.BundleManifest{}, &domain.ValidationError{Path: path, Problems: []string{fmt.Sprintf("parse manifest: %v", err)}}
	}

	var problems []string
	if decoded.Name == nil || strings.TrimSpace(*decoded.Name) == "" {
		problems = append(problems, "name is required")
	}
	if decoded.Description == nil || strings.TrimSpace(*decoded.Description) == "" {
		problems = append(problems, "description is required")
	}

	config := make(map[string]domain.ConfigSpec, len(decoded.Config))
	for _, key := range sortedKeys(decoded.Config) {
		spec := decoded.Config[key]
		if spec.Description == nil {
			problems = append(problems, fmt.Sprintf("config.%s: description is required", key))
		}
		if spec.Required == nil {
			problems = append(problems, fmt.Sprintf("config.%s: required is required", key))
		}
		if spec.Description != nil && spec.Required != nil {
			config[key] = domain.ConfigSpec{Description: *spec.Description, Required: *spec.Required}
		}
	}

	if len(problems) > 0 {
		return domain.BundleManifest{}, &domain.ValidationError{Path: path, Problems: problems}
	}

	m := domain.BundleManifest{
		Name:        strings.TrimSpace(*decoded.Name),
		Description: *decoded.Description,
	}
	if decoded.Instructions != nil {
		m.Instructions = *decoded.Instructions
	}
	if len(config) > 0 {
		m.Config = config
	}
	return m, nil
}

// ParseTool validates raw manifest.json bytes as a tool manifest. The
// entrypoint must resolve to an existing executable regular file under
// toolDir; an unresolvable entrypoint is a validation error here, not a
// deferred invocation failure.
func ParseTool(raw []byte, toolDir, path string) (domain.ToolManifest, error) {
	var decoded rawToolManifest
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.ToolManifest{}, &domain.ValidationError{Path: path, Problems: []string{fmt.Sprintf("parse manifest: %v", err)}}
	}

	var problems []string
	if decoded.Name == nil || strings.TrimSpace(*decoded.Name) == "" {
		problems = append(problems, "name is required")
	}
	if decoded.Description == nil {
		problems = append(problems, "description is required")
	}
	if decoded.Entrypoint == nil || strings.TrimSpace(*decoded.Entrypoint) == "" {
		problems = append(problems, "entrypoint is required")
	} else if err := checkEntrypoint(toolDir, *decoded.Entrypoint); err != nil {
		problems = append(problems, err.Error())
	}

	params := make(map[string]domain.ParameterSpec, len(decoded.Parameters))
	for _, key := range sortedKeys(decoded.Parameters) {
		spec := decoded.Parameters[key]
		if spec.Type == nil {
			problems = append(problems, fmt.Sprintf("parameters.%s: type is required", key))
			continue
		}
		paramType, ok := domain.NormalizeParamType(*spec.Type)
		if !ok {
			problems = append(problems, fmt.Sprintf("parameters.%s: type must be string, integer, number or boolean", key))
			continue
		}
		if spec.Description == nil {
			problems = append(problems, fmt.Sprintf("parameters.%s: description is required", key))
			continue
		}
		params[key] = domain.ParameterSpec{Type: paramType, Description: *spec.Description}
	}

	if len(problems) > 0 {
		return domain.ToolManifest{}, &domain.ValidationError{Path: path, Problems: problems}
	}

	m := domain.ToolManifest{
		Name:        strings.TrimSpace(*decoded.Name),
		Description: *decoded.Description,
		Entrypoint:  *decoded.Entrypoint,
	}
	if len(params) > 0 {
		m.Parameters = params
	}
	return m, nil
}

func checkEntrypoint(toolDir, entrypoint string) error {
	if filepath.IsAbs(entrypoint) {
		return fmt.Errorf("entrypoint %q must be a relative path", entrypoint)
	}
	resolved := filepath.Join(toolDir, entrypoint)
	if rel, err := filepath.Rel(toolDir, resolved); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("entrypoint %q escapes the tool directory", entrypoint)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return fmt.Errorf("entrypoint %q does not exist", entrypoint)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("entrypoint %q is not a regular file", entrypoint)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("entrypoint %q is not executable", entrypoint)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
