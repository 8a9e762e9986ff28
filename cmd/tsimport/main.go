package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/JulieCB/tvb-root/internal/config"
	"github.com/JulieCB/tvb-root/internal/logging"
	"github.com/JulieCB/tvb-root/internal/workspace"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tsimport",
		Short: "Import MATLAB v7.3 recordings as TVB time series",
		Long: `tsimport reads a numeric dataset from a MATLAB v7.3 file, checks it
against a connectivity or sensor array, and stores it as a region or EEG
time series: an HDF5 container plus a row in a local SQLite index.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newTopologyCmd(),
		newImportCmd(),
		newListCmd(),
		newShowCmd(),
		newExportCmd(),
		newValidateCmd(),
		newBackupCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "tsimport version %s\n", version)
			}
		},
	}
}

// openWorkspace loads the configuration and opens the data directory
// under --root. Logs go to stderr.
func openWorkspace(cmd *cobra.Command) (*workspace.Workspace, error) {
	root, _ := cmd.Flags().GetString("root")
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	return workspace.Open(root, cfg, logger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
