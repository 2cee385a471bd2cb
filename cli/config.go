package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"go-keytrack/config"
)

var configSave bool

func init() {
	configCmd.Flags().BoolVar(&configSave, "save", false, "write the effective config to the default location")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))

		if !configSave {
			return nil
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		path, _ := config.ConfigPath()
		fmt.Fprintf(cmd.ErrOrStderr(), "saved %s\n", path)
		return nil
	},
}
