package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/JulieCB/tvb-root/internal/topology"
	"github.com/spf13/cobra"
)

func newTopologyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Manage connectivities and sensor arrays",
		Long: `Register the reference objects time series are imported against.

Examples:
  tsimport topology add-connectivity --title "DK 68" --regions 68
  tsimport topology add-sensors --title "10-20 cap" --count 19
  tsimport topology list
  tsimport topology show <gid>`,
	}

	cmd.AddCommand(
		newTopologyAddConnectivityCmd(),
		newTopologyAddSensorsCmd(),
		newTopologyListCmd(),
		newTopologyShowCmd(),
	)
	return cmd
}

func newTopologyAddConnectivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-connectivity",
		Short: "Register a connectivity by its number of regions",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			title, _ := cmd.Flags().GetString("title")
			regions, _ := cmd.Flags().GetInt("regions")

			c, err := topology.NewConnectivity(title, regions)
			if err != nil {
				return err
			}

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.Store.AddConnectivity(cmd.Context(), c); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), c)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added connectivity %s (%d regions)\n", c.ID, c.NumberOfRegions)
			return nil
		},
	}
	cmd.Flags().String("title", "", "Connectivity title")
	cmd.Flags().Int("regions", 0, "Number of regions (required)")
	cmd.MarkFlagRequired("regions")
	return cmd
}

func newTopologyAddSensorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-sensors",
		Short: "Register a sensor array by its number of sensors",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			title, _ := cmd.Flags().GetString("title")
			sensorsType, _ := cmd.Flags().GetString("type")
			count, _ := cmd.Flags().GetInt("count")

			a, err := topology.NewSensorArray(title, sensorsType, count)
			if err != nil {
				return err
			}

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.Store.AddSensors(cmd.Context(), a); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), a)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s sensor array %s (%d sensors)\n", a.SensorsType, a.ID, a.NumberOfSensors)
			return nil
		},
	}
	cmd.Flags().String("title", "", "Sensor array title")
	cmd.Flags().String("type", "EEG", "Sensor type")
	cmd.Flags().Int("count", 0, "Number of sensors (required)")
	cmd.MarkFlagRequired("count")
	return cmd
}

func newTopologyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List connectivities and sensor arrays",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			conns, err := ws.Store.ListConnectivities(cmd.Context())
			if err != nil {
				return err
			}
			sensors, err := ws.Store.ListSensors(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				if conns == nil {
					conns = []*topology.Connectivity{}
				}
				if sensors == nil {
					sensors = []*topology.SensorArray{}
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"connectivities": conns,
					"sensors":        sensors,
				})
			}

			if len(conns) == 0 && len(sensors) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No topologies. Add one with 'tsimport topology add-connectivity' or 'add-sensors'.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GID\tKIND\tCHANNELS\tTITLE")
			for _, c := range conns {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.ID, c.Kind(), c.NumberOfRegions, c.Title)
			}
			for _, a := range sensors {
				fmt.Fprintf(tw, "%s\t%s (%s)\t%d\t%s\n", a.ID, a.Kind(), a.SensorsType, a.NumberOfSensors, a.Title)
			}
			return tw.Flush()
		},
	}
}

func newTopologyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <gid>",
		Short: "Show one connectivity or sensor array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			topo, err := ws.Topology(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"kind":     topo.Kind(),
					"topology": topo,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "GID:      %s\n", topo.GID())
			fmt.Fprintf(out, "Kind:     %s\n", topo.Kind())
			fmt.Fprintf(out, "Channels: %d %s\n", topo.ChannelCount(), topo.Unit())
			return nil
		},
	}
}
