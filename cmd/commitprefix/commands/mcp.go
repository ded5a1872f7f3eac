package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/commitprefix/pkg/config"
	"github.com/Sumatoshi-tech/commitprefix/pkg/mcp"
	"github.com/Sumatoshi-tech/commitprefix/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		debug       bool
		configPath  string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes one tool:
  - commitprefix_search: find a commit timestamp whose id starts with a prefix,
    for the HEAD commit of a repository or for a raw commit object`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadMCPConfig(cobraCmd, configPath, metricsAddr, debug)
			if err != nil {
				return err
			}

			tel, err := initObservability(cfg, observability.ModeMCP, cobraCmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer tel.Close()

			toolMetrics, err := observability.NewToolMetrics(tel.Meter)
			if err != nil {
				return err
			}

			searchMetrics, err := observability.NewSearchMetrics(tel.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:         tel.Logger,
				Metrics:        toolMetrics,
				SearchMetrics:  searchMetrics,
				Tracer:         tel.Tracer,
				DefaultWorkers: cfg.Search.Workers,
			})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging to stderr")
	cmd.Flags().StringVar(&configPath, flagConfig, "", "config file (default .commitprefix.yaml in . or $HOME)")
	cmd.Flags().StringVar(&metricsAddr, flagMetricsAddr, "", "serve Prometheus metrics on this address")

	return cmd
}

func loadMCPConfig(cmd *cobra.Command, configPath, metricsAddr string, debug bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	// stdout carries the protocol, so logs are always structured on stderr.
	cfg.Logging.JSON = true

	if debug {
		cfg.Logging.Level = "debug"
	}

	if cmd.Flags().Changed(flagMetricsAddr) {
		cfg.Observability.MetricsAddr = metricsAddr
	}

	return cfg, nil
}
