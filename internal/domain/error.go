package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed or incomplete manifest. It is fatal to
// loading that one manifest, never to the registry as a whole.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path == "" {
		return strings.Join(e.Problems, "; ")
	}
	return fmt.Sprintf("%s: %s", e.Path, strings.Join(e.Problems, "; "))
}

// ScanError reports a uniqueness violation discovered during a registry scan.
// It is fatal to the whole scan; the registry keeps its previous snapshot.
type ScanError struct {
	Root    string
	Message string
}

func (e *ScanError) Error() string {
	if e == nil {
		return ""
	}
	if e.Root == "" {
		return e.Message
	}
	return fmt.Sprintf("scan %s: %s", e.Root, e.Message)
}

// ScanWarning records a bundle or tool that was skipped during discovery.
type ScanWarning struct {
	Path   string
	Reason string
}

func (w ScanWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}
