package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run one daily reconciliation pass",
	Long: `Probes the trailing lookback window for every known perpetual,
writes the results to the ledger, appends volume rankings, and runs the
post-write health checks.

The lookback window (PROBE_LOOKBACK_DAYS) makes runs self-healing: a day
that failed yesterday is re-probed today as long as it stays inside the
window.

Example:
  go run ./cmd/futurescan update
  go run ./cmd/futurescan update --lookback 7`,
	RunE: runUpdate,
}

var updateLookback int

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().IntVar(&updateLookback, "lookback", 0, "override lookback window in days")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if updateLookback > 0 {
		app.cfg.Probe.LookbackDays = updateLookback
	}

	from, to := app.engine.DailyWindow(nowUTC())
	PrintRunHeader("Daily Reconciliation", from.Format("2006-01-02"), to.Format("2006-01-02"), 0)

	summary, err := app.engine.DailyRun(cmd.Context())
	if summary != nil {
		PrintRunSummary(summary)
	}
	if err != nil {
		return fmt.Errorf("daily run: %w", err)
	}
	return nil
}
