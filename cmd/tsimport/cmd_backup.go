package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/JulieCB/tvb-root/internal/backup"
	"github.com/JulieCB/tvb-root/internal/logging"
	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot and restore the index",
		Long: `Snapshot the index (topologies and time series rows) into a checksummed
gzip file under .tsimport/backups/, and merge snapshots back.

HDF5 containers are not part of a snapshot. After restoring into a fresh
project, 'tsimport validate' lists the rows whose container is missing.

Examples:
  tsimport backup create --keep 5
  tsimport backup list
  tsimport backup verify .tsimport/backups/tsimport-backup-20240301-120000.json.gz
  tsimport backup restore <file>`,
	}
	cmd.AddCommand(
		newBackupCreateCmd(),
		newBackupListCmd(),
		newBackupVerifyCmd(),
		newBackupRestoreCmd(),
	)
	return cmd
}

func newBackupCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a snapshot of the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			out, _ := cmd.Flags().GetString("out")
			keep, _ := cmd.Flags().GetInt("keep")
			maxAge, _ := cmd.Flags().GetString("max-age")

			var policies []backup.RetentionPolicy
			if keep > 0 {
				policies = append(policies, &backup.CountPolicy{MaxCount: keep})
			}
			if maxAge != "" {
				age, err := backup.ParseDuration(maxAge)
				if err != nil {
					return fmt.Errorf("--max-age: %w", err)
				}
				policies = append(policies, &backup.AgePolicy{MaxAge: age})
			}

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			dir := backup.Dir(ws.Dir)
			if out == "" {
				out = backup.GeneratePath(dir, time.Now())
			}
			snap, err := backup.Create(cmd.Context(), ws.Store, out)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			ws.Logger.Info("backup created", logging.File(out), "time_series", len(snap.TimeSeries))

			var deleted []string
			if len(policies) > 0 {
				deleted, err = backup.ApplyRetention(dir, &backup.CompositePolicy{Policies: policies})
				if err != nil {
					return fmt.Errorf("applying retention: %w", err)
				}
			}

			if jsonOut {
				if deleted == nil {
					deleted = []string{}
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"path":           out,
					"connectivities": len(snap.Connectivities),
					"sensors":        len(snap.Sensors),
					"time_series":    len(snap.TimeSeries),
					"deleted":        deleted,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d time series, %d connectivities, %d sensor arrays to %s\n",
				len(snap.TimeSeries), len(snap.Connectivities), len(snap.Sensors), out)
			for _, d := range deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed old backup %s\n", filepath.Base(d))
			}
			return nil
		},
	}
	cmd.Flags().String("out", "", "Snapshot path (default: .tsimport/backups/tsimport-backup-<timestamp>.json.gz)")
	cmd.Flags().Int("keep", 0, "Keep only the N most recent snapshots (0 keeps all)")
	cmd.Flags().String("max-age", "", "Also keep snapshots younger than this (e.g. 30d, 2w, 720h)")
	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			infos, err := backup.List(backup.Dir(ws.Dir))
			if err != nil {
				return err
			}
			if jsonOut {
				if infos == nil {
					infos = []backup.Info{}
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"backups": infos, "count": len(infos)})
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backups.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FILE\tCREATED\tSIZE")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%d\n", filepath.Base(info.Path), info.CreatedAt.Format(time.RFC3339), info.Size)
			}
			return w.Flush()
		},
	}
}

func newBackupVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Check a snapshot's checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			if err := backup.VerifyChecksum(args[0]); err != nil {
				return err
			}
			header, err := backup.ReadHeader(args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"valid": true, "header": header})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d time series, %d connectivities, %d sensor arrays (created %s)\n",
				header.TimeSeries, header.Connectivities, header.Sensors, header.CreatedAt)
			return nil
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Merge a snapshot into the index",
		Long: `Merge a snapshot into the index. Rows whose GID is already present are
skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			result, err := backup.Restore(cmd.Context(), ws.Store, args[0])
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			ws.Logger.Info("backup restored", logging.File(args[0]),
				"time_series", result.TimeSeriesRestored, "skipped", result.TimeSeriesSkipped)

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d time series (%d skipped), %d topologies (%d skipped)\n",
				result.TimeSeriesRestored, result.TimeSeriesSkipped, result.TopologiesRestored, result.TopologiesSkipped)
			return nil
		},
	}
}
