package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"plugrun/internal/infra/telemetry"
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	var listenAddress string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Watch the bundles root and expose metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// serve is the long-running mode; it always logs, --verbose only
			// switches to the development encoder.
			if !opts.verbose {
				logger, err := zap.NewProduction()
				if err != nil {
					return err
				}
				opts.logger = logger
			}
			logger := opts.logger

			runtime, err := opts.loadRuntime()
			if err != nil {
				return err
			}
			runtime.Watch = true
			if listenAddress != "" {
				runtime.Observability.ListenAddress = listenAddress
			}

			registry := prometheus.NewRegistry()
			metrics := telemetry.NewPrometheusMetrics(registry)

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			_, cleanup, err := buildRunner(ctx, opts, runtime, metrics)
			if err != nil {
				return err
			}
			defer cleanup()

			logger.Info("serving",
				zap.String("bundlesRoot", runtime.BundlesRoot),
				zap.String("listenAddress", runtime.Observability.ListenAddress),
			)

			err = telemetry.StartHTTPServer(ctx, telemetry.HTTPServerOptions{
				Addr:     runtime.Observability.ListenAddress,
				Registry: registry,
			}, logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listenAddress, "listen", "", "observability listen address (overrides config)")
	return cmd
}
