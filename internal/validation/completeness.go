package validation

import (
	"context"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
)

// CheckCompleteness flags dates in [from, to] whose available-row count fell
// below the configured minimum. A short date usually means a probe run died
// partway through; the rolling lookback window repairs it on the next run,
// this check makes the damage visible in the meantime.
//
// Callers bound to with the same publication buffer as the continuity check:
// a date still inside the buffer legitimately has few artifacts published.
func (v *Validator) CheckCompleteness(ctx context.Context, from, to time.Time, minCount int) (*contracts.CompletenessReport, error) {
	counts, err := v.store.CountsByDate(ctx, from)
	if err != nil {
		return nil, err
	}

	report := &contracts.CompletenessReport{Since: from, Until: to, MinCount: minCount}
	for _, dc := range counts {
		if dc.Date.After(to) {
			continue
		}
		if dc.Count < minCount {
			report.ShortDates = append(report.ShortDates, dc)
		}
	}

	if !report.OK() {
		v.logger.Warnf("completeness check found %d dates below %d symbols",
			len(report.ShortDates), minCount)
	}
	return report, nil
}
