package main

import (
	"github.com/spf13/cobra"
)

func newListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered bundles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			return printBundles(runner.List(), runner.Warnings(), opts.jsonOutput)
		},
	}
}
