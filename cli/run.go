package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-keytrack/debug"
	"go-keytrack/events"
	"go-keytrack/midi"
	"go-keytrack/theme"
	"go-keytrack/tui"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:         "run",
	Short:       "Show the key of a live keyboard in the terminal",
	Annotations: map[string]string{annotationTUI: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLive(cmd)
	},
}

func runLive(cmd *cobra.Command) error {
	th, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		return err
	}

	src, err := openSource(cmd)
	if err != nil {
		return err
	}
	defer midi.CloseDriver()
	defer src.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out := events.NewChannels(events.DefaultQueueSize)
	eng := newEngine(out)

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx, src) }()

	m := tui.NewModel(out, eng, th, src.ID(), pollInterval())
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()

	cancel()
	if runErr := <-done; runErr != nil && !errors.Is(runErr, context.Canceled) {
		debug.Logger().Error("tracking stopped", "err", runErr)
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
