package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "futurescan",
	Short: "futurescan - Binance USDT-M futures data availability tracker",
	Long: `futurescan Unified CLI

Tracks which daily klines archives exist on Binance Vision for every
USDT-M perpetual, reconciles the findings into a Postgres ledger, and
derives daily volume rankings.

Usage:
  go run ./cmd/futurescan [command]

Examples:
  go run ./cmd/futurescan update
  go run ./cmd/futurescan backfill --from 2019-09-25
  go run ./cmd/futurescan query timeline BTCUSDT
  go run ./cmd/futurescan serve`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
