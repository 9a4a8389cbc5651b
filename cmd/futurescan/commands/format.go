package commands

import (
	"fmt"

	"github.com/wonny/futurescan/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// Every command prints run output through these helpers
// ═══════════════════════════════════════════════════════════

// PrintRunHeader prints a formatted run header
func PrintRunHeader(title, from, to string, symbols int) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println("───────────────────────────────────────────────────────────")
	if from != "" {
		fmt.Printf("  Period    : %s ~ %s\n", from, to)
	}
	if symbols > 0 {
		fmt.Printf("  Symbols   : %d\n", symbols)
	}
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintRunSummary prints the outcome of a reconciliation run
func PrintRunSummary(summary *contracts.RunSummary) {
	fmt.Println()
	fmt.Printf("  Probed      : %d rows\n", summary.Probed)
	fmt.Printf("  Available   : %d\n", summary.Available)
	fmt.Printf("  Unavailable : %d\n", summary.Unavailable)
	if summary.RankingRows > 0 {
		fmt.Printf("  Rankings    : %d rows appended\n", summary.RankingRows)
	}
	fmt.Println()
	fmt.Printf("✅ Completed in %.2fs\n", summary.Duration.Seconds())

	if summary.Validation != nil {
		PrintValidation(summary.Validation)
	}
}

// PrintValidation prints a validation report
func PrintValidation(report *contracts.ValidationReport) {
	fmt.Println()
	fmt.Println("  Validation:")
	if report.Continuity != nil {
		if report.Continuity.OK() {
			fmt.Println("    continuity   : ok")
		} else {
			fmt.Printf("    continuity   : %d missing dates\n", len(report.Continuity.MissingDates))
		}
	}
	if report.Completeness != nil {
		if report.Completeness.OK() {
			fmt.Println("    completeness : ok")
		} else {
			fmt.Printf("    completeness : %d short dates\n", len(report.Completeness.ShortDates))
		}
	}
	if report.CrossCheck != nil {
		if report.CrossCheck.Skipped {
			fmt.Printf("    cross-check  : skipped (%s)\n", report.CrossCheck.SkipReason)
		} else {
			fmt.Printf("    cross-check  : %.1f%% match (%d ledger / %d catalog)\n",
				report.CrossCheck.MatchPct, report.CrossCheck.LedgerCount, report.CrossCheck.CatalogCount)
		}
	}
}
