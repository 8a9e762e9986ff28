package main

import (
	"fmt"

	"github.com/JulieCB/tvb-root/internal/workspace"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the index and the containers for consistency",
		Long: `Check the index and the HDF5 containers for consistency.

This command checks for:
  - SQLite integrity and foreign key violations
  - Index rows whose container is missing or unreadable
  - Containers whose data shape differs from the indexed shape
  - Containers with no index row
  - Staging files left by interrupted imports

With --fix, orphan containers and staging files are deleted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			fix, _ := cmd.Flags().GetBool("fix")

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			issues, err := ws.Check(cmd.Context())
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			found := len(issues)
			if fix {
				issues, err = ws.Repair(issues)
				if err != nil {
					return err
				}
			}

			return outputValidationResults(cmd, issues, found-len(issues), jsonOut)
		},
	}

	cmd.Flags().Bool("fix", false, "Delete orphan containers and stale staging files")

	return cmd
}

func outputValidationResults(cmd *cobra.Command, issues []workspace.Issue, fixed int, jsonOut bool) error {
	valid := len(issues) == 0
	out := cmd.OutOrStdout()

	if jsonOut {
		if issues == nil {
			issues = []workspace.Issue{}
		}
		return writeJSON(out, map[string]any{
			"valid":       valid,
			"issue_count": len(issues),
			"fixed":       fixed,
			"issues":      issues,
		})
	}

	if fixed > 0 {
		fmt.Fprintf(out, "Fixed %d issue(s).\n", fixed)
	}
	if valid {
		fmt.Fprintln(out, "✓ Index and containers are consistent.")
		return nil
	}

	fmt.Fprintf(out, "✗ Found %d issue(s):\n\n", len(issues))
	for i, is := range issues {
		fmt.Fprintf(out, "%d. [%s] %s\n", i+1, is.Kind, is.Detail)
		if is.GID != "" {
			fmt.Fprintf(out, "   GID:  %s\n", is.GID)
		}
		if is.Path != "" {
			fmt.Fprintf(out, "   Path: %s\n", is.Path)
		}
	}
	return nil
}
