package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rhuss/lorasampler/pkg/config"
	"github.com/rhuss/lorasampler/pkg/debug"
	"github.com/rhuss/lorasampler/pkg/provider/predibase"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "sampler",
		Short:         "Chat completions against a Predibase LoRA adapter",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: discovered)")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newGenerateCmd(&configPath),
		newServeCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration, initializes logging, and builds the adapter.
func setup(configPath string, opts ...predibase.Option) (*config.Config, *predibase.Adapter, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level)

	opts = append([]predibase.Option{
		predibase.WithRetryPolicy(cfg.RetryPolicy()),
		predibase.WithLogger(slog.Default()),
	}, opts...)

	adapter, err := predibase.New(cfg.AdapterConfig(), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating adapter: %w", err)
	}
	return cfg, adapter, nil
}
