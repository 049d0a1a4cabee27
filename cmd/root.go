package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dashin-hq/inventory-cli/internal/config"
)

var cfg *config.Config

var flagTenant string

var rootCmd = &cobra.Command{
	Use:   "inventory-cli",
	Short: "Lead inventory, enrichment and quality-flag engine",
	Long:  "Deduplicates lead sightings into a tenant-scoped inventory, merges enrichment non-destructively, tracks per-client lead usage, and learns from quality-flag resolutions.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// tenantID resolves the tenant for the current invocation: the
// --tenant flag, falling back to the configured default.
func tenantID() (string, error) {
	if flagTenant != "" {
		return flagTenant, nil
	}
	if cfg != nil && cfg.Tenant.Default != "" {
		return cfg.Tenant.Default, nil
	}
	return "", eris.New("tenant is required (--tenant or tenant.default in config)")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagTenant, "tenant", "", "tenant scope for this command")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
