package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"plugrun/internal/app"
	"plugrun/internal/domain"
	"plugrun/internal/infra/audit"
	"plugrun/internal/infra/config"
)

type cliOptions struct {
	configPath  string
	bundlesRoot string
	jsonOutput  bool
	verbose     bool
	logger      *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		logger: zap.NewNop(),
	}

	root := &cobra.Command{
		Use:           "plugrun",
		Short:         "Discover tool bundles and run their tools as subprocesses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.verbose {
				logger, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				opts.logger = logger
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to runner config file")
	root.PersistentFlags().StringVar(&opts.bundlesRoot, "root", "", "bundles root directory (overrides config)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newListCmd(&opts),
		newInvokeCmd(&opts),
		newInstructionsCmd(&opts),
		newCheckConfigCmd(&opts),
		newValidateCmd(&opts),
		newServeCmd(&opts),
	)

	return root
}

func (o *cliOptions) loadRuntime() (config.Runtime, error) {
	runtime, err := config.NewLoader(o.logger).Load(o.configPath)
	if err != nil {
		return config.Runtime{}, err
	}
	if o.bundlesRoot != "" {
		runtime.BundlesRoot = o.bundlesRoot
	}
	if runtime.BundlesRoot == "" {
		return config.Runtime{}, errors.New("no bundles root configured; pass --root or set bundlesRoot in the config file")
	}
	return runtime, nil
}

// buildRunner assembles a started runner for one command. The returned
// cleanup closes the audit store when one was opened.
func buildRunner(ctx context.Context, opts *cliOptions, runtime config.Runtime, metrics domain.Metrics) (*app.Runner, func(), error) {
	var store *audit.Store
	cleanup := func() {}
	if runtime.Audit.Enabled {
		var err error
		store, err = audit.Open(runtime.Audit.Path)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { _ = store.Close() }
	}

	runner := app.New(app.Options{
		Logger:  opts.logger,
		Metrics: metrics,
		Runtime: runtime,
		Audit:   store,
	})
	if err := runner.Start(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return runner, cleanup, nil
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
