package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"go-keytrack/debug"
	"go-keytrack/events"
	"go-keytrack/midi"
	"go-keytrack/server"
)

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Track a keyboard and serve the current key over HTTP",
	Long: `Track a keyboard and serve the current key over HTTP.

  GET  /state   current key, certainty, degree, alternates and histogram
  POST /reset   forget the key and start over`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		return serve(cmd)
	},
}

func serve(cmd *cobra.Command) error {
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
	srv := server.New(out, eng, pollInterval(), debug.Logger())

	go func() {
		err := eng.Run(ctx, src)
		if err != nil && !errors.Is(err, context.Canceled) {
			debug.Logger().Error("tracking stopped", "err", err)
		}
	}()

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
