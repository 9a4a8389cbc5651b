package validation

import (
	"context"
	"sort"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
	"github.com/wonny/futurescan/internal/vision"
)

// CheckCatalog compares the ledger's available symbols on one date against
// the live exchange catalog and scores the match over the union of both
// sets. Some drift is normal: freshly listed symbols have no archive file
// yet and delisted ones keep their historical rows.
//
// A geo-blocked catalog API degrades to a skipped report with a warning;
// every other catalog failure propagates.
func (v *Validator) CheckCatalog(ctx context.Context, date time.Time) (*contracts.CrossCheckReport, error) {
	report := &contracts.CrossCheckReport{Date: date}

	catalog, err := v.exchangeInfo.ActivePerpetuals(ctx)
	if err != nil {
		if vision.IsGeoBlocked(err) {
			v.logger.WithError(err).Warn("exchange catalog geo-blocked, skipping cross-check")
			report.Skipped = true
			report.SkipReason = "exchange catalog API geo-blocked"
			return report, nil
		}
		return nil, err
	}

	ledgerSymbols, err := v.store.AvailableSymbols(ctx, date)
	if err != nil {
		return nil, err
	}

	inLedger := make(map[string]struct{}, len(ledgerSymbols))
	for _, s := range ledgerSymbols {
		inLedger[s] = struct{}{}
	}
	inCatalog := make(map[string]struct{}, len(catalog))
	for _, s := range catalog {
		inCatalog[s] = struct{}{}
	}

	for _, s := range ledgerSymbols {
		if _, ok := inCatalog[s]; ok {
			report.MatchCount++
		} else {
			report.OnlyInLedger = append(report.OnlyInLedger, s)
		}
	}
	for _, s := range catalog {
		if _, ok := inLedger[s]; !ok {
			report.OnlyInCatalog = append(report.OnlyInCatalog, s)
		}
	}
	sort.Strings(report.OnlyInLedger)
	sort.Strings(report.OnlyInCatalog)

	report.LedgerCount = len(ledgerSymbols)
	report.CatalogCount = len(catalog)
	union := report.MatchCount + len(report.OnlyInLedger) + len(report.OnlyInCatalog)
	if union > 0 {
		report.MatchPct = float64(report.MatchCount) / float64(union) * 100
	}

	v.logger.WithFields(map[string]interface{}{
		"date":      date.Format("2006-01-02"),
		"ledger":    report.LedgerCount,
		"catalog":   report.CatalogCount,
		"match_pct": report.MatchPct,
	}).Info("Catalog cross-check completed")
	return report, nil
}
