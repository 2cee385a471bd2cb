package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"go-keytrack/events"
	"go-keytrack/midi"
)

var replayRealtime bool

func init() {
	replayCmd.Flags().BoolVar(&replayRealtime, "realtime", false, "pace output at the file's tempo")
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay <file.mid>",
	Short: "Analyse a Standard MIDI File and print every chord",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		evs, err := midi.ReadFile(args[0])
		if err != nil {
			return err
		}
		return replay(cmd.OutOrStdout(), evs, replayRealtime)
	},
}

// replay feeds evs through a fresh engine and prints one line per chord.
// Lines where the key changed are marked with *.
func replay(w io.Writer, evs []midi.TimedEvent, realtime bool) error {
	out := events.NewChannels(events.DefaultQueueSize)
	eng := newEngine(out)
	snap := events.EmptySnapshot()

	start := time.Now()
	chords := 0
	for _, te := range evs {
		if realtime {
			if d := te.At - time.Since(start); d > 0 {
				time.Sleep(d)
			}
		}
		s, ok := eng.Handle(te.Event)
		if !ok {
			continue
		}
		chords++

		mark := " "
		if out.Keys.Len() > 0 {
			mark = "*"
		}
		out.Drain(&snap)
		if _, err := fmt.Fprintf(w, "%s %s  %-24s %-12s %3.0f%%  %-8s %s\n",
			mark, formatOffset(te.At), s, snap.Key, snap.Certainty*100, snap.Degree, snap.Alternates); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%d chords, final key %s\n", chords, snap.Key)
	return err
}

func formatOffset(d time.Duration) string {
	m := int(d / time.Minute)
	s := (d % time.Minute).Seconds()
	return fmt.Sprintf("%02d:%06.3f", m, s)
}
