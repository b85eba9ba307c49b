package domain

import (
	"fmt"
	"time"
)

// Bundle groups a validated bundle manifest with its resolved tools,
// preserving directory scan order.
type Bundle struct {
	Manifest BundleManifest
	Root     string
	Tools    []ToolDescriptor
}

// Snapshot is an immutable view of everything discovered by one registry
// scan. Consumers see either the fully built previous snapshot or the fully
// built next one, never a partially populated index.
type Snapshot struct {
	Bundles  []Bundle
	Warnings []ScanWarning
	Revision uint64
	LoadedAt time.Time

	tools map[string]ToolDescriptor
}

// NewSnapshot builds a snapshot from scanned bundles and enforces the
// uniqueness invariants: bundle names unique across the snapshot, tool names
// unique within their bundle. Violations are load-time errors; a duplicate
// must never silently shadow an earlier entry.
func NewSnapshot(bundles []Bundle, warnings []ScanWarning, revision uint64, loadedAt time.Time) (Snapshot, error) {
	if loadedAt.IsZero() {
		loadedAt = time.Now()
	}
	tools := make(map[string]ToolDescriptor)
	bundleSeen := make(map[string]struct{}, len(bundles))
	for _, b := range bundles {
		if _, ok := bundleSeen[b.Manifest.Name]; ok {
			return Snapshot{}, &ScanError{Message: fmt.Sprintf("duplicate bundle name %q", b.Manifest.Name)}
		}
		bundleSeen[b.Manifest.Name] = struct{}{}
		for _, tool := range b.Tools {
			if _, ok := tools[tool.ID]; ok {
				return Snapshot{}, &ScanError{Message: fmt.Sprintf("duplicate tool %q in bundle %q", tool.Manifest.Name, b.Manifest.Name)}
			}
			tools[tool.ID] = tool
		}
	}
	return Snapshot{
		Bundles:  bundles,
		Warnings: warnings,
		Revision: revision,
		LoadedAt: loadedAt,
		tools:    tools,
	}, nil
}

// Lookup resolves a fully qualified tool id to its descriptor.
func (s Snapshot) Lookup(toolID string) (ToolDescriptor, bool) {
	desc, ok := s.tools[toolID]
	return desc, ok
}

// LookupBundle resolves a bundle by name.
func (s Snapshot) LookupBundle(name string) (Bundle, bool) {
	for _, b := range s.Bundles {
		if b.Manifest.Name == name {
			return b, true
		}
	}
	return Bundle{}, false
}

// List returns the bundle manifests in directory scan order.
func (s Snapshot) List() []BundleManifest {
	out := make([]BundleManifest, 0, len(s.Bundles))
	for _, b := range s.Bundles {
		out = append(out, b.Manifest)
	}
	return out
}

// ToolCount reports the number of invocable tools in the snapshot.
func (s Snapshot) ToolCount() int {
	return len(s.tools)
}
