package main

import (
	"fmt"

	"github.com/JulieCB/tvb-root/internal/config"
	"github.com/JulieCB/tvb-root/internal/workspace"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a tsimport data directory under --root",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			dir, err := workspace.Init(root, cfg)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"status": "initialized", "path": dir})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized tsimport data directory at %s\n", dir)
			return nil
		},
	}
}
