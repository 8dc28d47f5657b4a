package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricelens/pricelens/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pricelens",
	Short: "Cross-marketplace product comparison engine",
	Long:  "Fans a search out to configured marketplace adapters, normalizes and groups equivalent listings, ranks the comparison groups, and tracks query history for trend analysis.",
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

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
