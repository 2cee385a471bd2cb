package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-keytrack/midi"
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI input ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer midi.CloseDriver()

		ins, err := midi.InPorts(midi.DefaultScanTimeout)
		if err != nil {
			return fmt.Errorf("%w (try: sudo killall coreaudiod midiserver)", err)
		}
		if len(ins) == 0 {
			return midi.ErrNoDevices
		}
		for i, in := range ins {
			fmt.Fprintf(cmd.OutOrStdout(), "  %d: %s\n", i, in.String())
		}
		return nil
	},
}
