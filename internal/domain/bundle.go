package domain

import (
	"fmt"
	"strings"
)

// ParamType enumerates the flat parameter types a tool may declare.
type ParamType string

const (
	ParamTypeString  ParamType = "string"
	ParamTypeInteger ParamType = "integer"
	ParamTypeNumber  ParamType = "number"
	ParamTypeBoolean ParamType = "boolean"
)

// NormalizeParamType ensures a declared parameter type is valid and normalized.
func NormalizeParamType(raw string) (ParamType, bool) {
	value := ParamType(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case ParamTypeString, ParamTypeInteger, ParamTypeNumber, ParamTypeBoolean:
		return value, true
	default:
		return "", false
	}
}

// ParameterSpec describes one declared tool parameter.
type ParameterSpec struct {
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
}

// ConfigSpec describes one bundle configuration key. Required is advisory
// metadata only; it never gates invocation.
type ConfigSpec struct {
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// BundleManifest is the validated manifest.json of a plugin bundle.
// Identity is Name; instances are immutable once loaded.
type BundleManifest struct {
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Instructions string                `json:"instructions,omitempty"`
	Config       map[string]ConfigSpec `json:"config,omitempty"`
}

// ToolManifest is the validated manifest.json of a single tool inside a bundle.
type ToolManifest struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Entrypoint  string                   `json:"entrypoint"`
	Parameters  map[string]ParameterSpec `json:"parameters,omitempty"`
}

// ToolDescriptor is the resolved, invocable form of a tool. All paths are
// absolute. The tool directory sits exactly one level below the bundle root,
// so an entrypoint's relative "../config.json" resolves to the bundle root.
type ToolDescriptor struct {
	ID         string
	BundleRoot string
	ToolDir    string
	Entrypoint string
	Manifest   ToolManifest
}

// JoinToolID builds the fully qualified tool identifier.
func JoinToolID(bundle, tool string) string {
	return bundle + "/" + tool
}

// SplitToolID splits a fully qualified tool identifier into bundle and tool
// names. It fails on identifiers that are not exactly bundle/tool.
func SplitToolID(id string) (bundle, tool string, err error) {
	parts := strings.Split(id, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid tool id %q: want bundle/tool", id)
	}
	return parts[0], parts[1], nil
}
