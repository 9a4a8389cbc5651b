package validation

import (
	"context"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
)

// CheckContinuity finds calendar dates in [from, to] with no ledger rows.
// Flat calendar walk: the futures data source publishes every day including
// weekends and holidays, so any absent date is a missed or failed run.
func (v *Validator) CheckContinuity(ctx context.Context, from, to time.Time) (*contracts.GapReport, error) {
	probed, err := v.store.ProbedDates(ctx, from, to)
	if err != nil {
		return nil, err
	}

	have := make(map[string]struct{}, len(probed))
	for _, d := range probed {
		have[d.Format("2006-01-02")] = struct{}{}
	}

	report := &contracts.GapReport{From: from, To: to}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if _, ok := have[d.Format("2006-01-02")]; !ok {
			report.MissingDates = append(report.MissingDates, d)
		}
	}

	if !report.OK() {
		v.logger.Warnf("continuity check found %d missing dates in [%s, %s]",
			len(report.MissingDates), from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return report, nil
}
