package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage the YAML configuration",
	Annotations: map[string]string{"skipDB": "true"},
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a config file with the default settings",
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if _, err := os.Stat(cfgPath); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", cfgPath)
		}
		if err := Cfg.Save(cfgPath); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("📝 Wrote default configuration to %s\n", cfgPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
