package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run ledger health checks",
	Long: `Checks the ledger for calendar gaps, dates with suspiciously few
symbols, and drift against the live exchange catalog.

With --repair, any missing dates found by the continuity check are
re-probed and merged back into the ledger before the command exits.

Example:
  go run ./cmd/futurescan validate
  go run ./cmd/futurescan validate --repair`,
	RunE: runValidate,
}

var validateRepair bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateRepair, "repair", false, "re-probe missing dates found by the continuity check")
}

func runValidate(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	PrintRunHeader("Ledger Validation", "", "", 0)
	report, err := app.validator.Validate(ctx)
	if err != nil {
		return fmt.Errorf("validate ledger: %w", err)
	}
	PrintValidation(report)

	if !report.HasFindings() {
		fmt.Println()
		fmt.Println("✅ Ledger is healthy")
		return nil
	}

	if validateRepair && report.Continuity != nil && !report.Continuity.OK() {
		fmt.Println()
		fmt.Printf("  Repairing %d missing dates...\n", len(report.Continuity.MissingDates))
		summary, err := app.engine.RepairGaps(ctx, report.Continuity)
		if summary != nil {
			PrintRunSummary(summary)
		}
		if err != nil {
			return fmt.Errorf("repair gaps: %w", err)
		}
		return nil
	}

	return fmt.Errorf("validation found issues")
}
