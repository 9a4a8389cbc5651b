package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/futurescan/internal/validation"
	"github.com/wonny/futurescan/pkg/logger"
)

// ValidateJob runs the standalone ledger health checks, independent of the
// daily run's inline validation, so drift is noticed even on days the
// reconciliation job itself fails.
type ValidateJob struct {
	validator *validation.Validator
	logger    *logger.Logger
}

// NewValidateJob creates the validation job.
func NewValidateJob(v *validation.Validator, log *logger.Logger) *ValidateJob {
	return &ValidateJob{validator: v, logger: log}
}

// Name returns the job name
func (j *ValidateJob) Name() string {
	return "ledger_validate"
}

// Schedule runs at 08:00 UTC, hours after the reconciliation window.
func (j *ValidateJob) Schedule() string {
	return "0 0 8 * * *"
}

// Run executes all health checks
func (j *ValidateJob) Run(ctx context.Context) error {
	report, err := j.validator.Validate(ctx)
	if err != nil {
		return fmt.Errorf("ledger validation: %w", err)
	}

	if report.HasFindings() {
		fields := map[string]interface{}{}
		if report.Continuity != nil {
			fields["missing_dates"] = len(report.Continuity.MissingDates)
		}
		if report.Completeness != nil {
			fields["short_dates"] = len(report.Completeness.ShortDates)
		}
		if report.CrossCheck != nil && !report.CrossCheck.Skipped {
			fields["match_pct"] = report.CrossCheck.MatchPct
		}
		j.logger.WithFields(fields).Warn("Ledger validation surfaced findings")
	}
	return nil
}
