package engine

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/futurescan/internal/contracts"
	"github.com/wonny/futurescan/pkg/logger"
)

type fakeEnumerator struct {
	calls []string
	fail  string // symbol that errors
}

func (f *fakeEnumerator) EnumerateSymbol(_ context.Context, symbol string, from, to time.Time) ([]contracts.AvailabilityRecord, error) {
	f.calls = append(f.calls, symbol)
	if symbol == f.fail {
		return nil, errors.New("listing failed")
	}
	var records []contracts.AvailabilityRecord
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		records = append(records, contracts.AvailabilityRecord{
			Date: d, Symbol: symbol, Available: d.Day()%2 == 1,
		})
	}
	return records, nil
}

func newTestBackfiller(enumerator BulkEnumerator, store Ledger) *Backfiller {
	return NewBackfiller(enumerator, store, logger.NewWithWriter(&bytes.Buffer{}))
}

func TestBackfill(t *testing.T) {
	enumerator := &fakeEnumerator{}
	store := &fakeLedger{}
	b := newTestBackfiller(enumerator, store)

	summary, err := b.Backfill(context.Background(), BackfillOptions{
		Symbols: []string{"BTCUSDT", "ETHUSDT"},
		From:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		To:      time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Symbols)
	assert.Equal(t, 6, summary.Probed)
	assert.Equal(t, summary.Probed, summary.Available+summary.Unavailable)
	assert.Len(t, store.batches, 2)
}

func TestBackfillResumesFromCheckpoint(t *testing.T) {
	checkpointPath := filepath.Join(t.TempDir(), "backfill.json")
	from := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	enumerator := &fakeEnumerator{fail: "ETHUSDT"}
	b := newTestBackfiller(enumerator, &fakeLedger{})

	opts := BackfillOptions{
		Symbols:        []string{"BTCUSDT", "ETHUSDT", "XRPUSDT"},
		From:           from,
		To:             from,
		CheckpointPath: checkpointPath,
	}
	_, err := b.Backfill(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, enumerator.calls)

	// Second run skips the completed symbol and retries from the failure.
	enumerator.fail = ""
	enumerator.calls = nil
	_, err = b.Backfill(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"ETHUSDT", "XRPUSDT"}, enumerator.calls)

	// A completed run leaves no checkpoint behind.
	assert.NoFileExists(t, checkpointPath)
}

func TestBackfillStopsOnStoreError(t *testing.T) {
	store := &fakeLedger{err: errors.New("db down")}
	b := newTestBackfiller(&fakeEnumerator{}, store)

	_, err := b.Backfill(context.Background(), BackfillOptions{
		Symbols: []string{"BTCUSDT"},
		From:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		To:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BTCUSDT")
}

func TestBackfillRespectsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newTestBackfiller(&fakeEnumerator{}, &fakeLedger{})
	_, err := b.Backfill(ctx, BackfillOptions{
		Symbols: []string{"BTCUSDT"},
		From:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		To:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, context.Canceled)
}
