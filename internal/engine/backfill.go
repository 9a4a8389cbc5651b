package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
	"github.com/wonny/futurescan/pkg/logger"
)

// BulkEnumerator lists one symbol's full artifact history.
// *vision.Client satisfies it.
type BulkEnumerator interface {
	EnumerateSymbol(ctx context.Context, symbol string, from, to time.Time) ([]contracts.AvailabilityRecord, error)
}

// Backfiller loads historical availability symbol by symbol using bucket
// listing instead of per-date probes: one paginated walk replaces thousands
// of HEAD requests per symbol.
type Backfiller struct {
	enumerator BulkEnumerator
	store      Ledger
	logger     *logger.Logger
}

// NewBackfiller creates a backfiller.
func NewBackfiller(enumerator BulkEnumerator, store Ledger, log *logger.Logger) *Backfiller {
	return &Backfiller{
		enumerator: enumerator,
		store:      store,
		logger:     log.WithField("module", "backfill"),
	}
}

// BackfillOptions configures one backfill pass.
type BackfillOptions struct {
	Symbols []string
	From    time.Time
	To      time.Time

	// CheckpointPath, when set, records completed symbols so an
	// interrupted backfill resumes where it stopped.
	CheckpointPath string
}

// Backfill enumerates and persists every symbol's history in [From, To].
// Each symbol commits independently; a failure aborts the pass but keeps
// everything already written, and the checkpoint lets the next invocation
// skip completed symbols.
func (b *Backfiller) Backfill(ctx context.Context, opts BackfillOptions) (*contracts.RunSummary, error) {
	started := time.Now()
	summary := &contracts.RunSummary{
		StartDate: opts.From,
		EndDate:   opts.To,
		Symbols:   len(opts.Symbols),
	}

	checkpoint, err := loadCheckpoint(opts.CheckpointPath)
	if err != nil {
		return nil, err
	}

	for i, symbol := range opts.Symbols {
		if checkpoint.done(symbol) {
			b.logger.Debugf("skipping %s, already backfilled", symbol)
			continue
		}
		select {
		case <-ctx.Done():
			summary.Duration = time.Since(started)
			return summary, ctx.Err()
		default:
		}

		records, err := b.enumerator.EnumerateSymbol(ctx, symbol, opts.From, opts.To)
		if err != nil {
			summary.Duration = time.Since(started)
			return summary, fmt.Errorf("enumerating %s: %w", symbol, err)
		}

		n, err := b.store.UpsertBatch(ctx, records)
		if err != nil {
			summary.Duration = time.Since(started)
			return summary, fmt.Errorf("persisting %s: %w", symbol, err)
		}
		summary.Probed += n
		for _, r := range records {
			if r.Available {
				summary.Available++
			} else {
				summary.Unavailable++
			}
		}

		checkpoint.mark(symbol)
		if err := checkpoint.save(opts.CheckpointPath); err != nil {
			b.logger.WithError(err).Warn("checkpoint write failed")
		}

		b.logger.WithFields(map[string]interface{}{
			"symbol":   symbol,
			"rows":     n,
			"progress": fmt.Sprintf("%d/%d", i+1, len(opts.Symbols)),
		}).Info("Symbol backfilled")
	}

	if err := checkpoint.clear(opts.CheckpointPath); err != nil {
		b.logger.WithError(err).Warn("checkpoint cleanup failed")
	}

	summary.Duration = time.Since(started)
	return summary, nil
}

// backfillCheckpoint is the resume state persisted between invocations.
type backfillCheckpoint struct {
	Completed []string `json:"completed"`

	set map[string]struct{}
}

func loadCheckpoint(path string) (*backfillCheckpoint, error) {
	cp := &backfillCheckpoint{set: make(map[string]struct{})}
	if path == "" {
		return cp, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", path, err)
	}
	for _, s := range cp.Completed {
		cp.set[s] = struct{}{}
	}
	return cp, nil
}

func (cp *backfillCheckpoint) done(symbol string) bool {
	_, ok := cp.set[symbol]
	return ok
}

func (cp *backfillCheckpoint) mark(symbol string) {
	if cp.done(symbol) {
		return
	}
	cp.set[symbol] = struct{}{}
	cp.Completed = append(cp.Completed, symbol)
}

func (cp *backfillCheckpoint) save(path string) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// clear removes the checkpoint file once every symbol completed.
func (cp *backfillCheckpoint) clear(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
