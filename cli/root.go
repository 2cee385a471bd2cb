package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"go-keytrack/config"
	"go-keytrack/debug"
	"go-keytrack/engine"
	"go-keytrack/events"
	"go-keytrack/midi"
)

// commands annotated with this own the terminal, so logs never go to stderr
const annotationTUI = "tui"

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "keytrack",
	Short: "Real-time key tracking for MIDI keyboards",
	Long: `keytrack listens to a MIDI keyboard, groups what you play into chords and
reports the musical key, its certainty, the roman numeral of every chord and
the runner-up keys.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return setupLogging(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		debug.Disable()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "config file (default ~/.config/go-keytrack/config.json)")
	pf.String("port", "", "MIDI input port name, substring match (default first port)")
	pf.String("file", "", "play a Standard MIDI File instead of a keyboard")
	pf.Float64("threshold", 0, "certainty a key must exceed to be reported, in (0, 1]")
	pf.Int("window", 0, "number of chords analysed")
	pf.Int("alternates", 0, "number of runner-up keys shown")
	pf.String("profile", "", "key profile: krumhansl or temperley")
	pf.Bool("debug", false, "enable debug logging")
	pf.String("log", "", "debug log path, - for stderr")
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

func loadConfig(cmd *cobra.Command) error {
	var err error
	if cfgPath != "" {
		cfg, err = config.LoadFile(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Input.PortName, _ = flags.GetString("port")
	}
	if flags.Changed("threshold") {
		cfg.Tracker.Threshold, _ = flags.GetFloat64("threshold")
	}
	if flags.Changed("window") {
		cfg.Tracker.Window, _ = flags.GetInt("window")
	}
	if flags.Changed("alternates") {
		cfg.Tracker.Alternates, _ = flags.GetInt("alternates")
	}
	if flags.Changed("profile") {
		cfg.Tracker.Profile, _ = flags.GetString("profile")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	return cfg.Validate()
}

func setupLogging(cmd *cobra.Command) error {
	_, tui := cmd.Annotations[annotationTUI]
	path, _ := cmd.Flags().GetString("log")

	switch {
	case cfg.Debug:
		if path == "" {
			path = "-"
			if tui {
				path = debug.DefaultPath()
			}
		}
		return debug.Enable(path, log.DebugLevel)
	case path != "":
		return debug.Enable(path, log.InfoLevel)
	case !tui:
		return debug.Enable("-", log.InfoLevel)
	}
	return nil
}

func newEngine(out *events.Channels) *engine.Engine {
	return engine.New(engine.Options{
		Threshold:   cfg.Tracker.Threshold,
		Window:      cfg.Tracker.Window,
		Alternates:  cfg.Tracker.Alternates,
		ScoreLength: cfg.UI.ScoreLength,
		Profile:     cfg.Profile(),
		Logger:      debug.Logger(),
	}, out)
}

// openSource returns the --file source if given, otherwise the configured keyboard
func openSource(cmd *cobra.Command) (midi.Source, error) {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		src, err := midi.OpenFile(path, true)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return src, nil
	}
	kb, err := midi.OpenKeyboard(cfg.Input.PortName)
	if err != nil {
		return nil, fmt.Errorf("open keyboard: %w", err)
	}
	return kb, nil
}

func pollInterval() time.Duration {
	return time.Duration(cfg.UI.PollMillis) * time.Millisecond
}
