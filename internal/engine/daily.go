package engine

import (
	"context"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
	"github.com/wonny/futurescan/internal/prober"
	"github.com/wonny/futurescan/pkg/config"
	"github.com/wonny/futurescan/pkg/logger"
)

// SymbolSource supplies the probe working set. *catalog.Catalog satisfies it.
type SymbolSource interface {
	Symbols(ctx context.Context) ([]string, error)
}

// Ledger is the write surface runs persist through. *ledger.Store satisfies it.
type Ledger interface {
	UpsertBatch(ctx context.Context, records []contracts.AvailabilityRecord) (int, error)
}

// Prober probes (symbol, date) pairs. *prober.BatchProber satisfies it.
type Prober interface {
	ProbeDateRange(ctx context.Context, symbols []string, from, to time.Time, checkpoint prober.CheckpointFunc) error
}

// RankingAppender extends the rankings archive. *ranking.Generator satisfies it.
type RankingAppender interface {
	Append(ctx context.Context, upTo time.Time) (int, error)
}

// Reporter runs the post-write health checks. *validation.Validator satisfies it.
type Reporter interface {
	Validate(ctx context.Context) (*contracts.ValidationReport, error)
}

// Engine wires one reconciliation run end to end: catalog, probe, persist,
// rank, validate.
type Engine struct {
	catalog   SymbolSource
	prober    Prober
	store     Ledger
	rankings  RankingAppender
	validator Reporter
	logger    *logger.Logger
	cfg       *config.Config
}

// New creates a reconciliation engine.
func New(cat SymbolSource, p Prober, store Ledger, rankings RankingAppender, validator Reporter, log *logger.Logger, cfg *config.Config) *Engine {
	return &Engine{
		catalog:   cat,
		prober:    p,
		store:     store,
		rankings:  rankings,
		validator: validator,
		logger:    log.WithField("module", "engine"),
		cfg:       cfg,
	}
}

// DailyWindow is the date span a daily run re-probes: the trailing lookback
// window ending yesterday (the newest date the source can have published).
func (e *Engine) DailyWindow(now time.Time) (from, to time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to = today.AddDate(0, 0, -1)
	from = to.AddDate(0, 0, -(e.cfg.Probe.LookbackDays - 1))
	if start := e.cfg.Validation.HistoryStartDate(); from.Before(start) {
		from = start
	}
	return from, to
}

// publishedEnd is the newest date the source has fully published: today
// minus the publication buffer.
func (e *Engine) publishedEnd(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -e.cfg.Validation.BufferDays)
}

// DailyRun executes one scheduled reconciliation pass.
//
// The window covers more than just yesterday, so a failure on any given day
// heals on the next successful run while that day is still inside the
// lookback. Each date's results are committed before the next date is
// probed; a failure mid-range keeps everything already written.
func (e *Engine) DailyRun(ctx context.Context) (*contracts.RunSummary, error) {
	started := time.Now()
	from, to := e.DailyWindow(started.UTC())

	symbols, err := e.catalog.Symbols(ctx)
	if err != nil {
		return nil, err
	}

	summary := &contracts.RunSummary{
		StartDate: from,
		EndDate:   to,
		Symbols:   len(symbols),
	}

	e.logger.WithFields(map[string]interface{}{
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
		"symbols": len(symbols),
	}).Info("Daily reconciliation started")

	err = e.prober.ProbeDateRange(ctx, symbols, from, to,
		func(date time.Time, records []contracts.AvailabilityRecord) error {
			n, upsertErr := e.store.UpsertBatch(ctx, records)
			if upsertErr != nil {
				return upsertErr
			}
			summary.Probed += n
			for _, r := range records {
				if r.Available {
					summary.Available++
				} else {
					summary.Unavailable++
				}
			}
			return nil
		})
	if err != nil {
		summary.Duration = time.Since(started)
		return summary, err
	}

	// Rankings stop at the publication edge, not the probe window's end.
	// The archive is immutable once a date is written, and ranking a date
	// the source is still publishing would bake a partial cohort in for good.
	rankUpTo := to
	if end := e.publishedEnd(started.UTC()); end.Before(rankUpTo) {
		rankUpTo = end
	}
	rankingRows, err := e.rankings.Append(ctx, rankUpTo)
	if err != nil {
		summary.Duration = time.Since(started)
		return summary, err
	}
	summary.RankingRows = rankingRows

	report, err := e.validator.Validate(ctx)
	if err != nil {
		// The run's data is already safe; a broken check is not worth
		// failing the whole run for.
		e.logger.WithError(err).Warn("post-run validation failed")
	} else {
		summary.Validation = report
	}

	summary.Duration = time.Since(started)
	e.logger.WithFields(map[string]interface{}{
		"probed":       summary.Probed,
		"available":    summary.Available,
		"ranking_rows": summary.RankingRows,
		"duration":     summary.Duration.String(),
	}).Info("Daily reconciliation completed")
	return summary, nil
}

// RepairGaps re-probes every date a continuity report flagged, using the
// full working set. Targeted repair for holes too old for the daily window.
func (e *Engine) RepairGaps(ctx context.Context, report *contracts.GapReport) (*contracts.RunSummary, error) {
	if report.OK() {
		return &contracts.RunSummary{}, nil
	}

	symbols, err := e.catalog.Symbols(ctx)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	summary := &contracts.RunSummary{
		StartDate: report.MissingDates[0],
		EndDate:   report.MissingDates[len(report.MissingDates)-1],
		Symbols:   len(symbols),
	}

	for _, date := range report.MissingDates {
		err := e.prober.ProbeDateRange(ctx, symbols, date, date,
			func(_ time.Time, records []contracts.AvailabilityRecord) error {
				n, upsertErr := e.store.UpsertBatch(ctx, records)
				if upsertErr != nil {
					return upsertErr
				}
				summary.Probed += n
				return nil
			})
		if err != nil {
			summary.Duration = time.Since(started)
			return summary, err
		}
	}

	summary.Duration = time.Since(started)
	return summary, nil
}
