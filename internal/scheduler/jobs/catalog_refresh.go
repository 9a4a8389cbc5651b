package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/futurescan/internal/catalog"
	"github.com/wonny/futurescan/pkg/logger"
)

// CatalogRefreshJob drops the cached symbol discovery ahead of the daily
// run so newly listed symbols enter the working set the same day.
type CatalogRefreshJob struct {
	catalog *catalog.Catalog
	logger  *logger.Logger
}

// NewCatalogRefreshJob creates the catalog refresh job.
func NewCatalogRefreshJob(c *catalog.Catalog, log *logger.Logger) *CatalogRefreshJob {
	return &CatalogRefreshJob{catalog: c, logger: log}
}

// Name returns the job name
func (j *CatalogRefreshJob) Name() string {
	return "catalog_refresh"
}

// Schedule runs at 01:30 UTC, half an hour before reconciliation.
func (j *CatalogRefreshJob) Schedule() string {
	return "0 30 1 * * *"
}

// Run refreshes the catalog and reports newly discovered symbols
func (j *CatalogRefreshJob) Run(ctx context.Context) error {
	if err := j.catalog.Refresh(ctx); err != nil {
		return fmt.Errorf("refreshing catalog cache: %w", err)
	}

	fresh, err := j.catalog.DetectNew(ctx)
	if err != nil {
		return fmt.Errorf("detecting new symbols: %w", err)
	}
	if len(fresh) > 0 {
		j.logger.WithField("symbols", fresh).Info("New symbols discovered")
	}
	return nil
}
