package main

import (
	"errors"
	"fmt"

	"github.com/JulieCB/tvb-root/internal/export"
	"github.com/JulieCB/tvb-root/internal/store"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <gid>",
		Short: "Export a time series to an Arrow IPC file",
		Long: `Write a stored time series as an Arrow IPC file with a float64 "time"
column and a fixed-size-list "data" column (one value per channel).
The schema metadata carries the GID, type, shape and sampling.

Examples:
  tsimport export <gid>                     # writes <gid>.arrow
  tsimport export <gid> --out rest.arrow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			out, _ := cmd.Flags().GetString("out")
			gid := args[0]
			if out == "" {
				out = gid + ".arrow"
			}

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			ts, err := ws.Store.GetTimeSeries(cmd.Context(), gid)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no time series with GID %s", gid)
			}
			if err != nil {
				return err
			}

			c, err := ws.Storage.Open(gid)
			if err != nil {
				return err
			}
			defer c.Close()
			data, err := c.Data()
			if err != nil {
				return err
			}
			times, err := c.Time()
			if err != nil {
				return err
			}

			if err := export.WriteFile(out, ts, data, times); err != nil {
				return fmt.Errorf("exporting %s: %w", gid, err)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"gid":  gid,
					"path": out,
					"rows": len(times),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%d samples) to %s\n", gid, len(times), out)
			return nil
		},
	}
	cmd.Flags().String("out", "", "Output file (default <gid>.arrow)")
	return cmd
}
