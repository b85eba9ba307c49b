package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// jsonMapValue is a pflag.Value that parses a JSON object literal.
type jsonMapValue struct {
	values map[string]any
}

var _ pflag.Value = (*jsonMapValue)(nil)

func (v *jsonMapValue) String() string {
	if len(v.values) == 0 {
		return "{}"
	}
	data, err := json.Marshal(v.values)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func (v *jsonMapValue) Set(raw string) error {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fmt.Errorf("not a JSON object: %w", err)
	}
	if parsed == nil {
		return fmt.Errorf("not a JSON object: null")
	}
	v.values = parsed
	return nil
}

func (v *jsonMapValue) Type() string {
	return "json"
}

func newInvokeCmd(opts *cliOptions) *cobra.Command {
	params := &jsonMapValue{values: map[string]any{}}

	cmd := &cobra.Command{
		Use:   "invoke <bundle/tool>",
		Short: "Run one tool with a JSON parameter object",
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

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			result, err := runner.Invoke(ctx, args[0], params.values)
			if err != nil {
				return err
			}
			if err := printInvocationResult(result, opts.jsonOutput); err != nil {
				return err
			}
			if !result.Outcome.OK() {
				return exitForFailure(result.Outcome.Failure)
			}
			return nil
		},
	}

	cmd.Flags().VarP(params, "params", "p", "tool input as a JSON object")
	return cmd
}
