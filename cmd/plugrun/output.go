package main

import (
	"encoding/json"
	"fmt"

	"plugrun/internal/app"
	"plugrun/internal/domain"
)

func writeJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printBundles(bundles []domain.BundleManifest, warnings []domain.ScanWarning, jsonOutput bool) error {
	if jsonOutput {
		entries := make([]map[string]any, 0, len(bundles))
		for _, b := range bundles {
			entries = append(entries, map[string]any{
				"name":        b.Name,
				"description": b.Description,
			})
		}
		payload := map[string]any{"bundles": entries}
		if len(warnings) > 0 {
			warn := make([]map[string]any, 0, len(warnings))
			for _, w := range warnings {
				warn = append(warn, map[string]any{
					"path":   w.Path,
					"reason": w.Reason,
				})
			}
			payload["warnings"] = warn
		}
		return writeJSON(payload)
	}
	for _, b := range bundles {
		fmt.Printf("%s\t%s\n", b.Name, b.Description)
	}
	for _, w := range warnings {
		fmt.Printf("warning: %s: %s\n", w.Path, w.Reason)
	}
	return nil
}

func printInvocationResult(result app.InvocationResult, jsonOutput bool) error {
	if jsonOutput {
		payload := map[string]any{
			"id":         result.ID,
			"tool":       result.ToolID,
			"outcome":    result.Outcome.Kind(),
			"durationMs": result.Duration.Milliseconds(),
		}
		if len(result.MissingConfig) > 0 {
			payload["missingConfig"] = result.MissingConfig
		}
		if result.Outcome.OK() {
			payload["output"] = result.Outcome.Output
		} else {
			failure := map[string]any{
				"kind":   string(result.Outcome.Failure.Kind),
				"stderr": result.Outcome.Failure.Stderr,
			}
			if result.Outcome.Failure.Kind == domain.FailureNonZeroExit {
				failure["exitCode"] = result.Outcome.Failure.ExitCode
			}
			payload["failure"] = failure
		}
		return writeJSON(payload)
	}

	if result.Outcome.OK() {
		data, err := json.Marshal(result.Outcome.Output)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	failure := result.Outcome.Failure
	fmt.Printf("failure=%s", failure.Kind)
	if failure.Kind == domain.FailureNonZeroExit {
		fmt.Printf(" exitCode=%d", failure.ExitCode)
	}
	fmt.Println()
	if failure.Stderr != "" {
		fmt.Println(failure.Stderr)
	}
	if failure.Cause != nil {
		fmt.Println(failure.Cause.Error())
	}
	return nil
}
