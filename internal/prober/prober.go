package prober

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
	"github.com/wonny/futurescan/internal/vision"
	"github.com/wonny/futurescan/pkg/config"
	"github.com/wonny/futurescan/pkg/logger"
)

// BatchProber fans HEAD probes out over a bounded worker pool.
// ⭐ SSOT: all concurrent probing goes through this type.
//
// No retries anywhere in the pool. A failed probe becomes a recorded
// failure and the batch keeps draining, so one bad symbol never hides the
// results of the other several hundred.
type BatchProber struct {
	vision      *vision.Client
	logger      *logger.Logger
	workers     int
	fetchVolume bool
}

// NewBatchProber creates a prober sized by configuration.
func NewBatchProber(visionClient *vision.Client, log *logger.Logger, cfg config.ProbeConfig) *BatchProber {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &BatchProber{
		vision:      visionClient,
		logger:      log.WithField("module", "prober"),
		workers:     workers,
		fetchVolume: cfg.FetchVolume,
	}
}

type probeJob struct {
	symbol string
	date   time.Time
}

type probeResult struct {
	record  *contracts.AvailabilityRecord
	failure *contracts.ProbeFailure
}

// ProbeDate probes every symbol for a single date.
//
// Always drains fully: the returned records cover every probe that
// succeeded even when err is non-nil. Failures come back aggregated as a
// *contracts.BatchError. Result order is not guaranteed.
func (p *BatchProber) ProbeDate(ctx context.Context, symbols []string, date time.Time) ([]contracts.AvailabilityRecord, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	p.logger.WithFields(map[string]interface{}{
		"date":    date.Format("2006-01-02"),
		"symbols": len(symbols),
		"workers": p.workers,
	}).Info("Starting probe batch")

	jobCh := make(chan probeJob, len(symbols))
	resultCh := make(chan probeResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, jobCh, resultCh)
		}()
	}

	for _, symbol := range symbols {
		jobCh <- probeJob{symbol: symbol, date: date}
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var records []contracts.AvailabilityRecord
	var failures []contracts.ProbeFailure
	for result := range resultCh {
		if result.failure != nil {
			failures = append(failures, *result.failure)
			continue
		}
		records = append(records, *result.record)
	}

	available := 0
	for _, r := range records {
		if r.Available {
			available++
		}
	}
	p.logger.WithFields(map[string]interface{}{
		"date":        date.Format("2006-01-02"),
		"available":   available,
		"unavailable": len(records) - available,
		"failed":      len(failures),
	}).Info("Probe batch completed")

	if len(failures) > 0 {
		return records, &contracts.BatchError{Failures: failures}
	}
	return records, nil
}

// CheckpointFunc receives one completed date's records. Returning an error
// aborts the range walk.
type CheckpointFunc func(date time.Time, records []contracts.AvailabilityRecord) error

// ProbeDateRange walks [from, to] one date at a time, invoking checkpoint
// after each fully probed date so callers can persist incrementally.
//
// A date with probe failures stops the walk before its checkpoint runs:
// earlier dates stay committed, but a known-partial date never reaches the
// caller. A stale ledger beats a ledger seeded with partial days.
func (p *BatchProber) ProbeDateRange(ctx context.Context, symbols []string, from, to time.Time, checkpoint CheckpointFunc) error {
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		records, err := p.ProbeDate(ctx, symbols, d)
		if err != nil {
			return err
		}
		if checkpoint != nil && len(records) > 0 {
			if err := checkpoint(d, records); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *BatchProber) worker(ctx context.Context, jobCh <-chan probeJob, resultCh chan<- probeResult) {
	for job := range jobCh {
		select {
		case <-ctx.Done():
			resultCh <- probeResult{failure: &contracts.ProbeFailure{
				Symbol: job.symbol,
				Date:   job.date,
				Err:    ctx.Err(),
			}}
			continue
		default:
		}

		record, err := p.vision.Probe(ctx, job.symbol, job.date)
		if err != nil {
			resultCh <- probeResult{failure: &contracts.ProbeFailure{
				Symbol: job.symbol,
				Date:   job.date,
				Err:    err,
			}}
			continue
		}

		if p.fetchVolume && record.Available {
			p.enrichVolume(ctx, record)
		}
		resultCh <- probeResult{record: record}
	}
}

// enrichVolume attaches 1d trading metrics to an available record.
// Best-effort: the availability fact is already established, so an
// enrichment failure only logs.
func (p *BatchProber) enrichVolume(ctx context.Context, record *contracts.AvailabilityRecord) {
	metrics, err := p.vision.FetchDailyVolume(ctx, record.Symbol, record.Date)
	if err != nil {
		p.logger.WithError(err).Warnf("volume enrichment failed for %s %s",
			record.Symbol, record.Date.Format("2006-01-02"))
		return
	}
	record.Volume = metrics
}
