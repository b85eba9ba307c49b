package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInstructionsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "instructions <bundle>",
		Short: "Print a bundle's usage instructions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := opts.loadRuntime()
			if err != nil {
				return err
			}
			runtime.Watch = false

			runner, cleanup, err := buildRunner(cmd.Context(), opts, runtime, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			text, ok, err := runner.Instructions(args[0])
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(map[string]any{
					"bundle":       args[0],
					"instructions": text,
					"present":      ok,
				})
			}
			if ok {
				fmt.Println(text)
			}
			return nil
		},
	}
}
