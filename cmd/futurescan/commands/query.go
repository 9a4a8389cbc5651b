package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/futurescan/internal/contracts"
)

// queryCmd represents the query command group
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Inspect the availability ledger",
	Long: `Read-only views over the availability ledger.

Example:
  go run ./cmd/futurescan query timeline BTCUSDT
  go run ./cmd/futurescan query snapshot --date 2024-03-15
  go run ./cmd/futurescan query counts --days 14`,
}

var queryTimelineCmd = &cobra.Command{
	Use:   "timeline <symbol>",
	Short: "Print one symbol's full availability history",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueryTimeline,
}

var querySnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print every symbol's state for one date",
	RunE:  runQuerySnapshot,
}

var queryCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Print per-date available symbol counts",
	RunE:  runQueryCounts,
}

var (
	querySnapshotDate string
	queryCountsDays   int
)

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(queryTimelineCmd)
	queryCmd.AddCommand(querySnapshotCmd)
	queryCmd.AddCommand(queryCountsCmd)

	querySnapshotCmd.Flags().StringVar(&querySnapshotDate, "date", "", "date to show (YYYY-MM-DD, default yesterday)")
	queryCountsCmd.Flags().IntVar(&queryCountsDays, "days", 30, "number of trailing days to show")
}

func runQueryTimeline(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	symbol := args[0]
	records, err := app.store.Timeline(cmd.Context(), symbol)
	if err != nil {
		return fmt.Errorf("load timeline: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no ledger rows for %s", symbol)
	}

	PrintRunHeader(fmt.Sprintf("Timeline: %s", symbol),
		records[0].Date.Format("2006-01-02"),
		records[len(records)-1].Date.Format("2006-01-02"),
		0)
	printRecords(records, false)
	return nil
}

func runQuerySnapshot(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	date := nowUTC().AddDate(0, 0, -1)
	if querySnapshotDate != "" {
		date, err = parseDateFlag("date", querySnapshotDate)
		if err != nil {
			return err
		}
	}

	records, err := app.store.Snapshot(cmd.Context(), date)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no ledger rows for %s", date.Format("2006-01-02"))
	}

	PrintRunHeader("Snapshot", date.Format("2006-01-02"), date.Format("2006-01-02"), len(records))
	printRecords(records, true)
	return nil
}

func runQueryCounts(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	since := nowUTC().AddDate(0, 0, -queryCountsDays)
	counts, err := app.store.CountsByDate(cmd.Context(), since)
	if err != nil {
		return fmt.Errorf("load counts: %w", err)
	}

	PrintRunHeader("Available Symbol Counts", since.Format("2006-01-02"), "now", 0)
	for _, c := range counts {
		fmt.Printf("  %s  %5d\n", c.Date.Format("2006-01-02"), c.Count)
	}
	return nil
}

func printRecords(records []contracts.AvailabilityRecord, bySymbol bool) {
	for _, r := range records {
		label := r.Date.Format("2006-01-02")
		if bySymbol {
			label = fmt.Sprintf("%-20s", r.Symbol)
		}
		state := "missing"
		size := ""
		if r.Available {
			state = "available"
			if r.FileSizeBytes != nil {
				size = fmt.Sprintf("%12d bytes", *r.FileSizeBytes)
			}
		}
		volume := ""
		if r.Volume != nil {
			volume = fmt.Sprintf("  vol %.0f USDT", r.Volume.QuoteVolumeUSDT)
		}
		fmt.Printf("  %s  %-9s %s%s\n", label, state, size, volume)
	}
}
