package main

import "plugrun/internal/domain"

// Exit codes distinguish failure classes so an orchestrator shelling out to
// the CLI can react without parsing output.
const (
	exitCodeFailure         = 1
	exitCodeSpawnError      = 2
	exitCodeTimeout         = 3
	exitCodeNonZeroExit     = 4
	exitCodeMalformedOutput = 5
)

type exitError struct {
	code    int
	message string
	silent  bool
}

func (e exitError) Error() string {
	return e.message
}

func exitSilent(code int) error {
	return exitError{code: code, silent: true}
}

// exitForFailure converts an invocation failure into the CLI exit code for
// its kind. The failure itself was already printed by the output layer.
func exitForFailure(f *domain.Failure) error {
	return exitSilent(failureExitCode(f))
}

func failureExitCode(f *domain.Failure) int {
	if f == nil {
		return 0
	}
	switch f.Kind {
	case domain.FailureSpawn:
		return exitCodeSpawnError
	case domain.FailureTimeout:
		return exitCodeTimeout
	case domain.FailureNonZeroExit:
		return exitCodeNonZeroExit
	case domain.FailureMalformedOutput:
		return exitCodeMalformedOutput
	default:
		return exitCodeFailure
	}
}
