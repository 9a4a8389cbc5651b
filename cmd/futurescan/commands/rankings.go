package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/futurescan/internal/ranking"
)

// rankingsCmd represents the rankings command group
var rankingsCmd = &cobra.Command{
	Use:   "rankings",
	Short: "Manage the volume ranking archive",
	Long: `Generates and inspects the daily volume rankings derived from the
availability ledger.

The archive is append-only: "append" extends it strictly past the last
ranked date, "rebuild" truncates and regenerates the whole history (the
only way to pick up corrected volume data).

Example:
  go run ./cmd/futurescan rankings append
  go run ./cmd/futurescan rankings rebuild
  go run ./cmd/futurescan rankings show --date 2024-03-15 --top 20
  go run ./cmd/futurescan rankings export --from 2024-01-01 -o rankings.csv`,
}

var rankingsAppendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append rankings for dates past the archive high-water mark",
	RunE:  runRankingsAppend,
}

var rankingsRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Truncate and regenerate the whole ranking archive",
	RunE:  runRankingsRebuild,
}

var rankingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print rankings for one date",
	RunE:  runRankingsShow,
}

var rankingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the archive as CSV",
	RunE:  runRankingsExport,
}

var (
	rankingsShowDate string
	rankingsShowTop  int

	rankingsExportFrom string
	rankingsExportTo   string
	rankingsExportOut  string
)

func init() {
	rootCmd.AddCommand(rankingsCmd)
	rankingsCmd.AddCommand(rankingsAppendCmd)
	rankingsCmd.AddCommand(rankingsRebuildCmd)
	rankingsCmd.AddCommand(rankingsShowCmd)
	rankingsCmd.AddCommand(rankingsExportCmd)

	rankingsShowCmd.Flags().StringVar(&rankingsShowDate, "date", "", "date to show (YYYY-MM-DD, default latest)")
	rankingsShowCmd.Flags().IntVar(&rankingsShowTop, "top", 30, "number of rows to print")

	rankingsExportCmd.Flags().StringVar(&rankingsExportFrom, "from", "", "start date (YYYY-MM-DD, default archive start)")
	rankingsExportCmd.Flags().StringVar(&rankingsExportTo, "to", "", "end date (YYYY-MM-DD, default archive end)")
	rankingsExportCmd.Flags().StringVarP(&rankingsExportOut, "out", "o", "rankings.csv", "output file")
}

func runRankingsAppend(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	upTo := app.validator.EffectiveEnd(nowUTC())
	PrintRunHeader("Ranking Append", "", upTo.Format("2006-01-02"), 0)

	rows, err := app.rankings.Append(cmd.Context(), upTo)
	if err != nil {
		return fmt.Errorf("append rankings: %w", err)
	}
	fmt.Println()
	fmt.Printf("✅ %d ranking rows appended\n", rows)
	return nil
}

func runRankingsRebuild(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	upTo := app.validator.EffectiveEnd(nowUTC())
	PrintRunHeader("Ranking Rebuild", "", upTo.Format("2006-01-02"), 0)

	rows, err := app.rankings.Rebuild(cmd.Context(), upTo)
	if err != nil {
		return fmt.Errorf("rebuild rankings: %w", err)
	}
	fmt.Println()
	fmt.Printf("✅ archive rebuilt, %d ranking rows\n", rows)
	return nil
}

func runRankingsExport(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	from := app.cfg.Validation.HistoryStartDate()
	if rankingsExportFrom != "" {
		if from, err = parseDateFlag("from", rankingsExportFrom); err != nil {
			return err
		}
	}
	to := nowUTC()
	if rankingsExportTo != "" {
		if to, err = parseDateFlag("to", rankingsExportTo); err != nil {
			return err
		}
	}

	out, err := os.Create(rankingsExportOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", rankingsExportOut, err)
	}
	defer out.Close()

	rows, err := ranking.ExportCSV(cmd.Context(), app.store, out, from, to)
	if err != nil {
		return fmt.Errorf("export rankings: %w", err)
	}
	fmt.Printf("✅ %d rows written to %s\n", rows, rankingsExportOut)
	return nil
}

func runRankingsShow(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	date := nowUTC()
	if rankingsShowDate != "" {
		date, err = parseDateFlag("date", rankingsShowDate)
		if err != nil {
			return err
		}
	} else {
		latest, ok, err := app.store.MaxRankingDate(ctx)
		if err != nil {
			return fmt.Errorf("find latest ranked date: %w", err)
		}
		if !ok {
			return fmt.Errorf("ranking archive is empty, run \"rankings append\" first")
		}
		date = latest
	}

	rows, err := app.store.RankingsForDate(ctx, date)
	if err != nil {
		return fmt.Errorf("load rankings: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rankings for %s", date.Format("2006-01-02"))
	}

	PrintRunHeader("Volume Rankings", "", date.Format("2006-01-02"), len(rows))
	fmt.Printf("  %4s  %-20s %18s %8s %8s %6s\n", "Rank", "Symbol", "Volume (USDT)", "Share%", "Chg7d", "Days")
	for i, r := range rows {
		if i >= rankingsShowTop {
			break
		}
		change := "-"
		if r.RankChange7D != nil {
			change = fmt.Sprintf("%+d", *r.RankChange7D)
		}
		fmt.Printf("  %4d  %-20s %18.0f %8.2f %8s %6d\n",
			r.Rank, r.Symbol, r.QuoteVolumeUSDT, r.MarketSharePct, change, r.DaysAvailable)
	}
	return nil
}
