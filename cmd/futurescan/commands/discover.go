package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List symbols known to the bucket and the ledger",
	Long: `Walks the Vision bucket's klines prefix, unions the result with the
ledger's history, and prints the working set. Newly listed symbols the
ledger has never seen are marked NEW.

Example:
  go run ./cmd/futurescan discover
  go run ./cmd/futurescan discover --refresh`,
	RunE: runDiscover,
}

var discoverRefresh bool

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().BoolVar(&discoverRefresh, "refresh", false, "bypass the discovery cache")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if discoverRefresh {
		if err := app.catalog.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh catalog cache: %w", err)
		}
	}

	symbols, err := app.catalog.Symbols(ctx)
	if err != nil {
		return fmt.Errorf("assemble symbol catalog: %w", err)
	}
	fresh, err := app.catalog.DetectNew(ctx)
	if err != nil {
		return fmt.Errorf("detect new symbols: %w", err)
	}

	isNew := make(map[string]bool, len(fresh))
	for _, s := range fresh {
		isNew[s] = true
	}

	PrintRunHeader("Symbol Catalog", "", "", len(symbols))
	for _, s := range symbols {
		if isNew[s] {
			fmt.Printf("  %-20s NEW\n", s)
		} else {
			fmt.Printf("  %s\n", s)
		}
	}
	fmt.Println()
	fmt.Printf("✅ %d symbols (%d new)\n", len(symbols), len(fresh))
	return nil
}
