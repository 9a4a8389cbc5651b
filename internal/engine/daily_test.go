package engine

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/futurescan/internal/contracts"
	"github.com/wonny/futurescan/internal/prober"
	"github.com/wonny/futurescan/pkg/config"
	"github.com/wonny/futurescan/pkg/logger"
)

type fakeCatalog struct {
	symbols []string
	err     error
}

func (f *fakeCatalog) Symbols(_ context.Context) ([]string, error) {
	return f.symbols, f.err
}

type fakeLedger struct {
	batches [][]contracts.AvailabilityRecord
	err     error
}

func (f *fakeLedger) UpsertBatch(_ context.Context, records []contracts.AvailabilityRecord) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.batches = append(f.batches, records)
	return len(records), nil
}

// fakeProber synthesizes one available record per symbol per date. A date
// matching failOn aborts the walk without running its checkpoint, matching
// the real prober's partial-date policy.
type fakeProber struct {
	err    error
	failOn string
	dates  []string
}

func (f *fakeProber) ProbeDateRange(_ context.Context, symbols []string, from, to time.Time, checkpoint prober.CheckpointFunc) error {
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		f.dates = append(f.dates, d.Format("2006-01-02"))
		if f.failOn == d.Format("2006-01-02") {
			return f.err
		}
		var records []contracts.AvailabilityRecord
		for _, s := range symbols {
			records = append(records, contracts.AvailabilityRecord{
				Date: d, Symbol: s, Available: true,
			})
		}
		if checkpoint != nil {
			if err := checkpoint(d, records); err != nil {
				return err
			}
		}
	}
	return f.err
}

type fakeRankings struct {
	rows int
	upTo time.Time
}

func (f *fakeRankings) Append(_ context.Context, upTo time.Time) (int, error) {
	f.upTo = upTo
	return f.rows, nil
}

type fakeValidator struct {
	report *contracts.ValidationReport
	err    error
}

func (f *fakeValidator) Validate(_ context.Context) (*contracts.ValidationReport, error) {
	return f.report, f.err
}

func testConfig(lookbackDays int) *config.Config {
	return &config.Config{
		Probe:      config.ProbeConfig{LookbackDays: lookbackDays},
		Validation: config.ValidationConfig{HistoryStart: "2019-09-25"},
	}
}

func newTestEngine(cat SymbolSource, p Prober, store Ledger, r RankingAppender, v Reporter, cfg *config.Config) *Engine {
	return New(cat, p, store, r, v, logger.NewWithWriter(&bytes.Buffer{}), cfg)
}

func TestDailyWindow(t *testing.T) {
	e := newTestEngine(nil, nil, nil, nil, nil, testConfig(3))
	now := time.Date(2024, 1, 18, 2, 0, 0, 0, time.UTC)

	from, to := e.DailyWindow(now)
	assert.Equal(t, "2024-01-15", from.Format("2006-01-02"))
	assert.Equal(t, "2024-01-17", to.Format("2006-01-02"))
}

func TestDailyWindowClampsToHistoryStart(t *testing.T) {
	e := newTestEngine(nil, nil, nil, nil, nil, testConfig(10000))
	from, _ := e.DailyWindow(time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2019-09-25", from.Format("2006-01-02"))
}

func TestDailyRun(t *testing.T) {
	cat := &fakeCatalog{symbols: []string{"BTCUSDT", "ETHUSDT"}}
	store := &fakeLedger{}
	p := &fakeProber{}
	rankings := &fakeRankings{rows: 4}
	validator := &fakeValidator{report: &contracts.ValidationReport{}}

	e := newTestEngine(cat, p, store, rankings, validator, testConfig(2))
	summary, err := e.DailyRun(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Symbols)
	// Two dates in the window, two symbols each.
	assert.Equal(t, 4, summary.Probed)
	assert.Equal(t, 4, summary.Available)
	assert.Equal(t, 0, summary.Unavailable)
	assert.Equal(t, 4, summary.RankingRows)
	assert.NotNil(t, summary.Validation)
	assert.Len(t, store.batches, 2)

	// With no publication buffer the rankings extend to the window's end.
	assert.Equal(t, summary.EndDate, rankings.upTo)
}

func TestDailyRunRankingsStopAtPublicationEdge(t *testing.T) {
	cat := &fakeCatalog{symbols: []string{"BTCUSDT"}}
	rankings := &fakeRankings{}
	cfg := testConfig(5)
	cfg.Validation.BufferDays = 2

	e := newTestEngine(cat, &fakeProber{}, &fakeLedger{}, rankings, &fakeValidator{}, cfg)
	summary, err := e.DailyRun(context.Background())
	require.NoError(t, err)

	// The window probes through yesterday, but only buffered dates rank.
	today := time.Now().UTC().Truncate(24 * time.Hour)
	assert.Equal(t, today.AddDate(0, 0, -1), summary.EndDate)
	assert.Equal(t, today.AddDate(0, 0, -2), rankings.upTo)
}

func TestDailyRunKeepsCommittedDatesOnProbeFailure(t *testing.T) {
	cat := &fakeCatalog{symbols: []string{"BTCUSDT"}}
	store := &fakeLedger{}
	yesterday := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	p := &fakeProber{
		failOn: yesterday.Format("2006-01-02"),
		err:    &contracts.BatchError{Failures: []contracts.ProbeFailure{{Symbol: "BTCUSDT"}}},
	}

	e := newTestEngine(cat, p, store, &fakeRankings{}, &fakeValidator{}, testConfig(2))
	summary, err := e.DailyRun(context.Background())

	var batchErr *contracts.BatchError
	require.True(t, errors.As(err, &batchErr))
	// The clean first date stays persisted; the failed date wrote nothing
	// and the lookback window re-probes it on the next run.
	assert.Equal(t, 1, summary.Probed)
	assert.Len(t, store.batches, 1)
}

func TestDailyRunValidationFailureIsNotFatal(t *testing.T) {
	cat := &fakeCatalog{symbols: []string{"BTCUSDT"}}
	validator := &fakeValidator{err: errors.New("catalog API down")}

	e := newTestEngine(cat, &fakeProber{}, &fakeLedger{}, &fakeRankings{}, validator, testConfig(1))
	summary, err := e.DailyRun(context.Background())
	require.NoError(t, err)
	assert.Nil(t, summary.Validation)
}

func TestRepairGaps(t *testing.T) {
	cat := &fakeCatalog{symbols: []string{"BTCUSDT"}}
	store := &fakeLedger{}
	p := &fakeProber{}

	report := &contracts.GapReport{MissingDates: []time.Time{
		time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC),
	}}

	e := newTestEngine(cat, p, store, &fakeRankings{}, &fakeValidator{}, testConfig(1))
	summary, err := e.RepairGaps(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Probed)
	assert.Equal(t, []string{"2023-06-01", "2023-08-15"}, p.dates)
}

func TestRepairGapsCleanReportIsNoop(t *testing.T) {
	e := newTestEngine(&fakeCatalog{}, &fakeProber{}, &fakeLedger{}, &fakeRankings{}, &fakeValidator{}, testConfig(1))
	summary, err := e.RepairGaps(context.Background(), &contracts.GapReport{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Probed)
}
