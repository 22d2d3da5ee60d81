package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/audio/portaudio"
)

// listDevices enumerates output devices. Tests replace it.
var listDevices = portaudio.OutputDevices

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio output devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := listDevices()
		if err != nil {
			return fmt.Errorf("list output devices: %w", err)
		}
		if structuredOutput() {
			return outputResult(cmd, devices)
		}
		if len(devices) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No output devices")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DEFAULT\tINDEX\tNAME\tCHANNELS\tRATE\tLATENCY")
		for _, d := range devices {
			def := ""
			if d.IsDefault {
				def = "*"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%.0f\t%.1fms\n", def, d.Index, d.Name, d.MaxOutputChannels, d.DefaultSampleRate, d.LowOutputLatency*1000)
		}
		return w.Flush()
	},
}
