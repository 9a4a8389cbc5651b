package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/futurescan/internal/engine"
	"github.com/wonny/futurescan/pkg/logger"
)

// ReconcileJob runs the daily availability reconciliation.
// ⭐ SSOT: the daily run schedule lives in this job only.
type ReconcileJob struct {
	engine *engine.Engine
	logger *logger.Logger
}

// NewReconcileJob creates the daily reconciliation job.
func NewReconcileJob(e *engine.Engine, log *logger.Logger) *ReconcileJob {
	return &ReconcileJob{engine: e, logger: log}
}

// Name returns the job name
func (j *ReconcileJob) Name() string {
	return "daily_reconcile"
}

// Schedule runs at 02:00 UTC, well after the source publishes the previous
// trading day's archives.
func (j *ReconcileJob) Schedule() string {
	return "0 0 2 * * *"
}

// Run executes one reconciliation pass
func (j *ReconcileJob) Run(ctx context.Context) error {
	summary, err := j.engine.DailyRun(ctx)
	if err != nil {
		return fmt.Errorf("daily reconciliation: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"probed":      summary.Probed,
		"available":   summary.Available,
		"unavailable": summary.Unavailable,
		"duration":    summary.Duration.String(),
	}).Info("Scheduled reconciliation completed")

	if summary.Validation != nil && summary.Validation.HasFindings() {
		j.logger.Warn("Scheduled reconciliation surfaced validation findings")
	}
	return nil
}
