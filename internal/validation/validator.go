package validation

import (
	"context"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
	"github.com/wonny/futurescan/pkg/config"
	"github.com/wonny/futurescan/pkg/logger"
)

// LedgerReader is the read surface the checks need. *ledger.Store satisfies it.
type LedgerReader interface {
	ProbedDates(ctx context.Context, from, to time.Time) ([]time.Time, error)
	CountsByDate(ctx context.Context, since time.Time) ([]contracts.DateCount, error)
	AvailableSymbols(ctx context.Context, date time.Time) ([]string, error)
}

// CatalogSource supplies the live symbol catalog for cross-checking.
// *vision.ExchangeInfoClient satisfies it.
type CatalogSource interface {
	ActivePerpetuals(ctx context.Context) ([]string, error)
}

// Validator runs the three ledger health checks: date continuity, per-date
// completeness, and catalog drift. Findings are reported, never repaired
// here; repair belongs to the probing path.
type Validator struct {
	store        LedgerReader
	exchangeInfo CatalogSource
	logger       *logger.Logger
	cfg          config.ValidationConfig
}

// NewValidator creates a validator.
func NewValidator(store LedgerReader, catalog CatalogSource, log *logger.Logger, cfg config.ValidationConfig) *Validator {
	return &Validator{
		store:        store,
		exchangeInfo: catalog,
		logger:       log.WithField("module", "validation"),
		cfg:          cfg,
	}
}

// Validate runs all checks as of now and aggregates the results.
//
// Every check ends at today minus the validation buffer: the source
// publishes an artifact a day or two after its trading day, and flagging
// that publication lag as a gap would make every healthy run look broken.
func (v *Validator) Validate(ctx context.Context) (*contracts.ValidationReport, error) {
	end := v.EffectiveEnd(time.Now().UTC())
	report := &contracts.ValidationReport{GeneratedAt: time.Now().UTC()}

	start := v.cfg.HistoryStartDate()

	continuity, err := v.CheckContinuity(ctx, start, end)
	if err != nil {
		return nil, err
	}
	report.Continuity = continuity

	completeness, err := v.CheckCompleteness(ctx, start, end, v.cfg.MinSymbolCount)
	if err != nil {
		return nil, err
	}
	report.Completeness = completeness

	crossCheck, err := v.CheckCatalog(ctx, end)
	if err != nil {
		return nil, err
	}
	report.CrossCheck = crossCheck

	if report.HasFindings() {
		v.logger.Warn("Validation completed with findings")
	} else {
		v.logger.Info("Validation completed clean")
	}
	return report, nil
}

// EffectiveEnd is the newest date validation may judge: today minus the
// publication buffer, at day granularity.
func (v *Validator) EffectiveEnd(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -v.cfg.BufferDays)
}
