package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/JulieCB/tvb-root/internal/store"
	"github.com/JulieCB/tvb-root/internal/timeseries"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List imported time series",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			typeFlag, _ := cmd.Flags().GetString("type")

			tsType, err := timeseries.TypeFor(typeFlag)
			if err != nil {
				return err
			}

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			rows, err := ws.Store.ListTimeSeries(cmd.Context(), tsType)
			if err != nil {
				return err
			}

			if jsonOut {
				if rows == nil {
					rows = []*store.TimeSeriesIndex{}
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"time_series": rows,
					"count":       len(rows),
				})
			}

			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No time series imported yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GID\tTYPE\tSHAPE\tRATE (Hz)\tTITLE")
			for _, ts := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%v\t%g\t%s\n", ts.GID, ts.TimeSeriesType, ts.Shape(), ts.SampleRate, ts.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("type", "", "Filter by type: region, eeg, TimeSeriesRegion or TimeSeriesEEG")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <gid>",
		Short: "Show one imported time series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			ts, err := ws.Store.GetTimeSeries(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no time series with GID %s", args[0])
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), ts)
			}

			topoLabel, topoGID := "Connectivity", ts.ConnectivityGID
			if ts.SensorsGID != "" {
				topoLabel, topoGID = "Sensors", ts.SensorsGID
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "GID:           %s\n", ts.GID)
			fmt.Fprintf(out, "Title:         %s\n", ts.Title)
			fmt.Fprintf(out, "Type:          %s\n", ts.TimeSeriesType)
			fmt.Fprintf(out, "%-15s%s\n", topoLabel+":", topoGID)
			fmt.Fprintf(out, "Shape:         %v\n", ts.Shape())
			fmt.Fprintf(out, "Labels:        %s\n", ts.LabelsOrdering)
			fmt.Fprintf(out, "Sample rate:   %g Hz (period %g %s)\n", ts.SampleRate, ts.SamplePeriod, ts.SamplePeriodUnit)
			fmt.Fprintf(out, "Start time:    %g\n", ts.StartTime)
			source := ts.DatasetName
			if ts.StructurePath != "" {
				source += "." + ts.StructurePath
			}
			fmt.Fprintf(out, "Source:        %s in %s\n", source, ts.SourceFile)
			fmt.Fprintf(out, "Container:     %s\n", ts.DataPath)
			fmt.Fprintf(out, "Created:       %s\n", ts.CreatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
