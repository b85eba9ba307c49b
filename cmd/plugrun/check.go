package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckConfigCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config <bundle>",
		Short: "Report required bundle config keys that are not set",
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

			missing, err := runner.CheckConfig(args[0])
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				if err := writeJSON(map[string]any{
					"bundle":  args[0],
					"missing": missing,
				}); err != nil {
					return err
				}
			} else {
				for _, key := range missing {
					fmt.Println(key)
				}
			}
			if len(missing) > 0 {
				return exitSilent(1)
			}
			return nil
		},
	}
}
