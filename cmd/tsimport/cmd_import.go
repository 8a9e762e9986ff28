package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/JulieCB/tvb-root/internal/importer"
	"github.com/JulieCB/tvb-root/internal/timeseries"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <data-file>",
		Short: "Import a MATLAB v7.3 dataset as a region or EEG time series",
		Long: `Import a 2D numeric dataset from a MATLAB v7.3 file.

The data must be (time, channels) after the optional transpose and slice.
Pass --connectivity for a region time series (channels are regions) or
--sensors for an EEG time series (channels are sensors).

Examples:
  tsimport import rec.mat --dataset data --connectivity <gid>
  tsimport import rec.mat --dataset out --structure-path eeg.signal --sensors <gid> --transpose
  tsimport import rec.mat --dataset data --connectivity <gid> --slice "1000:5000, :" --sampling-rate 256`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dataset, _ := cmd.Flags().GetString("dataset")
			structurePath, _ := cmd.Flags().GetString("structure-path")
			transpose, _ := cmd.Flags().GetBool("transpose")
			slice, _ := cmd.Flags().GetString("slice")
			rate, _ := cmd.Flags().GetFloat64("sampling-rate")
			startTime, _ := cmd.Flags().GetFloat64("start-time")
			title, _ := cmd.Flags().GetString("title")
			connGID, _ := cmd.Flags().GetString("connectivity")
			sensorsGID, _ := cmd.Flags().GetString("sensors")

			kind, topoGID, err := importTarget(connGID, sensorsGID)
			if err != nil {
				return err
			}
			dataFile, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolving data file: %w", err)
			}

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			topo, err := ws.Topology(cmd.Context(), topoGID)
			if err != nil {
				return err
			}
			im, err := ws.Importer(kind)
			if err != nil {
				return err
			}

			row, err := im.Launch(cmd.Context(), importer.Request{
				DataFile:      dataFile,
				DatasetName:   dataset,
				StructurePath: structurePath,
				Transpose:     transpose,
				Slice:         slice,
				SamplingRate:  ws.SamplingRate(rate),
				StartTime:     startTime,
				Title:         title,
				Topology:      topo,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), row)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s %s\n", row.TimeSeriesType, row.GID)
			fmt.Fprintf(cmd.OutOrStdout(), "  title: %s\n  shape: %v\n  sample rate: %g Hz\n", row.Title, row.Shape(), row.SampleRate)
			return nil
		},
	}

	cmd.Flags().String("dataset", "", "Name of the top-level variable holding the data (required)")
	cmd.Flags().String("structure-path", "", "Dot-separated field path inside a struct variable")
	cmd.Flags().Bool("transpose", false, "Swap the axes first (for data stored as channels x time)")
	cmd.Flags().String("slice", "", `Numpy-style slice applied after transpose, e.g. "10:20, :"`)
	cmd.Flags().Float64("sampling-rate", 0, "Sampling rate in Hz (default importer.default_sampling_rate)")
	cmd.Flags().Float64("start-time", 0, "Time of the first sample in "+timeseries.StartTimeUnit)
	cmd.Flags().String("title", "", `Title (default "<dataset> from <file>")`)
	cmd.Flags().String("connectivity", "", "Connectivity GID for a region time series")
	cmd.Flags().String("sensors", "", "Sensor array GID for an EEG time series")
	cmd.MarkFlagRequired("dataset")

	return cmd
}

// importTarget maps the topology flags to an importer kind.
func importTarget(connGID, sensorsGID string) (kind, gid string, err error) {
	switch {
	case connGID != "" && sensorsGID != "":
		return "", "", errors.New("give either --connectivity or --sensors, not both")
	case connGID != "":
		return timeseries.KindRegion, connGID, nil
	case sensorsGID != "":
		return timeseries.KindEEG, sensorsGID, nil
	default:
		return "", "", errors.New("a topology is required: --connectivity <gid> or --sensors <gid>")
	}
}
