package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCMD = &cobra.Command{
	Use:   "tradeguard",
	Short: "Checklist-gated trade journal",
	Long: `TradeGuard is a personal pre-trade discipline tool. It gates entry
into a leveraged position behind a mandatory checklist, tracks the position
while open, and records the realized outcome.`,
}

func Execute() {
	if err := rootCMD.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCMD.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yml")
}
