package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Scan the bundles root and report manifest problems without running anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, err := opts.loadRuntime()
			if err != nil {
				return err
			}
			runtime.Watch = false
			runtime.Audit.Enabled = false

			runner, cleanup, err := buildRunner(cmd.Context(), opts, runtime, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			warnings := runner.Warnings()
			if opts.jsonOutput {
				entries := make([]map[string]any, 0, len(warnings))
				for _, w := range warnings {
					entries = append(entries, map[string]any{
						"path":   w.Path,
						"reason": w.Reason,
					})
				}
				if err := writeJSON(map[string]any{
					"bundles":  len(runner.List()),
					"warnings": entries,
				}); err != nil {
					return err
				}
			} else {
				fmt.Printf("bundles=%d warnings=%d\n", len(runner.List()), len(warnings))
				for _, w := range warnings {
					fmt.Printf("warning: %s: %s\n", w.Path, w.Reason)
				}
			}
			if len(warnings) > 0 {
				return exitSilent(1)
			}
			return nil
		},
	}
}
