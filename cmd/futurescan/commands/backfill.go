package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/futurescan/internal/engine"
)

// backfillCmd represents the backfill command
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Bulk-load historical availability via bucket listing",
	Long: `Enumerates every symbol's full artifact history with S3 bucket
listing instead of per-date probes. One paginated listing per symbol
replaces thousands of HEAD requests, which is the only practical way to
load several years of history.

Dates with no listing entry are written as explicit unavailable rows, so
the ledger covers the whole requested range either way.

Example:
  go run ./cmd/futurescan backfill --from 2019-09-25
  go run ./cmd/futurescan backfill --symbols BTCUSDT,ETHUSDT --from 2024-01-01
  go run ./cmd/futurescan backfill --from 2019-09-25 --checkpoint backfill.json`,
	RunE: runBackfill,
}

var (
	backfillFrom       string
	backfillTo         string
	backfillSymbols    []string
	backfillCheckpoint string
)

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().StringVar(&backfillFrom, "from", "", "start date (YYYY-MM-DD, required)")
	backfillCmd.Flags().StringVar(&backfillTo, "to", "", "end date (YYYY-MM-DD, default yesterday)")
	backfillCmd.Flags().StringSliceVar(&backfillSymbols, "symbols", nil, "restrict to specific symbols")
	backfillCmd.Flags().StringVar(&backfillCheckpoint, "checkpoint", "", "checkpoint file for resumable runs")
	backfillCmd.MarkFlagRequired("from")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	from, err := parseDateFlag("from", backfillFrom)
	if err != nil {
		return err
	}

	to := nowUTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	if backfillTo != "" {
		if to, err = parseDateFlag("to", backfillTo); err != nil {
			return err
		}
	}

	symbols := backfillSymbols
	if len(symbols) == 0 {
		if symbols, err = app.catalog.Symbols(cmd.Context()); err != nil {
			return fmt.Errorf("assemble symbol catalog: %w", err)
		}
	}

	PrintRunHeader("Historical Backfill", from.Format("2006-01-02"), to.Format("2006-01-02"), len(symbols))

	summary, err := app.backfiller.Backfill(cmd.Context(), engine.BackfillOptions{
		Symbols:        symbols,
		From:           from,
		To:             to,
		CheckpointPath: backfillCheckpoint,
	})
	if summary != nil {
		PrintRunSummary(summary)
	}
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	return nil
}
