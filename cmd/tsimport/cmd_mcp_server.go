package main

import (
	"fmt"

	"github.com/JulieCB/tvb-root/internal/config"
	"github.com/JulieCB/tvb-root/internal/logging"
	"github.com/JulieCB/tvb-root/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve tsimport tools over MCP on stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout.

Tools: tsimport_import, tsimport_list, tsimport_show, tsimport_topologies.
Data files must lie inside --root. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "tsimport",
				Version:  version,
				Root:     root,
				Settings: cfg,
				Logger:   logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
			})
			if err != nil {
				return fmt.Errorf("failed to start MCP server: %w", err)
			}
			return server.Run(cmd.Context())
		},
	}
}
