package domain

import (
	"fmt"
	"strings"
)

// FailureKind classifies why an invocation did not produce a usable result.
type FailureKind string

const (
	// FailureSpawn indicates the entrypoint could not be started; no process ran.
	FailureSpawn FailureKind = "spawn_error"
	// FailureTimeout indicates the wall-clock limit expired before exit.
	FailureTimeout FailureKind = "timeout"
	// FailureNonZeroExit indicates the process exited with a nonzero code.
	FailureNonZeroExit FailureKind = "non_zero_exit"
	// FailureMalformedOutput indicates exit 0 but stdout was not one JSON object.
	FailureMalformedOutput FailureKind = "malformed_output"
)

// Failure is the terminal error form of an invocation. It is reported to the
// caller as data, never raised as an unrecoverable fault.
type Failure struct {
	Kind     FailureKind
	ExitCode int
	Stderr   string
	Cause    error
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	msg := strings.TrimSpace(f.Stderr)
	switch f.Kind {
	case FailureTimeout:
		// Partial stdout must never leak into timeout messages.
		return "tool invocation timed out"
	case FailureNonZeroExit:
		if msg == "" {
			return fmt.Sprintf("tool exited with code %d", f.ExitCode)
		}
		return fmt.Sprintf("tool exited with code %d: %s", f.ExitCode, msg)
	case FailureSpawn:
		if f.Cause != nil {
			return fmt.Sprintf("tool failed to start: %v", f.Cause)
		}
		return "tool failed to start"
	case FailureMalformedOutput:
		if f.Cause != nil {
			return fmt.Sprintf("tool produced malformed output: %v", f.Cause)
		}
		return "tool produced malformed output"
	default:
		return string(f.Kind)
	}
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Cause
}

// Outcome is the typed result of one invocation. Exactly one of Output or
// Failure is set.
type Outcome struct {
	Output  map[string]any
	Failure *Failure
}

func (o Outcome) OK() bool {
	return o.Failure == nil
}

// Kind labels the outcome for logs and metrics.
func (o Outcome) Kind() string {
	if o.Failure == nil {
		return "success"
	}
	return string(o.Failure.Kind)
}
