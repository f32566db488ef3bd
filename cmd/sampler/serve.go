package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rhuss/lorasampler/pkg/transport"
	transporthttp "github.com/rhuss/lorasampler/pkg/transport/http"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose the sampler over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, adapter, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer adapter.Close()

			metricsPath := ""
			if cfg.Observability.Metrics.Enabled {
				metricsPath = cfg.Observability.Metrics.Path
			}

			srv := transporthttp.NewServer(transport.FromSampler(adapter),
				transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
				transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
				transporthttp.WithMetricsPath(metricsPath),
				transporthttp.WithReadiness(func(ctx context.Context) error {
					_, err := adapter.ListModels(ctx)
					return err
				}),
				transporthttp.WithLogger(slog.Default()),
			)

			slog.Info("sampler configured",
				"base_url", adapter.Config().BaseURL,
				"adapter_id", adapter.Config().AdapterID,
				"adapter_source", adapter.Config().AdapterSource,
				"max_attempts", cfg.Retry.MaxAttempts,
			)
			return srv.Run(cmd.Context())
		},
	}
}
