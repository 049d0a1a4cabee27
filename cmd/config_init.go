package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dashin-hq/inventory-cli/internal/config"
)

var configInitOut string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file with defaults",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(configInitOut); err == nil {
			return eris.Errorf("%s already exists, not overwriting", configInitOut)
		}

		out, err := config.Default().YAML()
		if err != nil {
			return err
		}
		if err := os.WriteFile(configInitOut, out, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", configInitOut)
		}

		zap.L().Info("config written", zap.String("path", configInitOut))
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitOut, "out", "config.yaml", "destination path")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
