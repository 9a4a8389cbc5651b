package ranking

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/futurescan/internal/contracts"
	"github.com/wonny/futurescan/pkg/logger"
)

// fakeArchive is an in-memory Archive for generator tests.
type fakeArchive struct {
	ledger   map[string][]contracts.AvailabilityRecord // keyed by date string
	rankings []contracts.RankingRecord
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{ledger: make(map[string][]contracts.AvailabilityRecord)}
}

func (f *fakeArchive) addDay(date time.Time, rows ...contracts.AvailabilityRecord) {
	for i := range rows {
		rows[i].Date = date
	}
	f.ledger[date.Format("2006-01-02")] = rows
}

func (f *fakeArchive) MaxRankingDate(_ context.Context) (time.Time, bool, error) {
	var max time.Time
	for _, r := range f.rankings {
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return max, !max.IsZero(), nil
}

func (f *fakeArchive) ProbedDates(_ context.Context, from, to time.Time) ([]time.Time, error) {
	var dates []time.Time
	for key := range f.ledger {
		d, _ := time.Parse("2006-01-02", key)
		if !d.Before(from) && !d.After(to) {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (f *fakeArchive) VolumeRows(_ context.Context, date time.Time) ([]contracts.AvailabilityRecord, error) {
	return f.ledger[date.Format("2006-01-02")], nil
}

func (f *fakeArchive) SymbolRankHistory(_ context.Context, symbol string, before time.Time, limit int) ([]contracts.RankingRecord, error) {
	var out []contracts.RankingRecord
	for _, r := range f.rankings {
		if r.Symbol == symbol && !r.Date.After(before) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeArchive) InsertRankings(_ context.Context, records []contracts.RankingRecord) (int, error) {
	f.rankings = append(f.rankings, records...)
	return len(records), nil
}

func (f *fakeArchive) TruncateRankings(_ context.Context) error {
	f.rankings = nil
	return nil
}

func (f *fakeArchive) RankedDates(_ context.Context) ([]time.Time, error) {
	seen := make(map[string]time.Time)
	for _, r := range f.rankings {
		seen[r.Date.Format("2006-01-02")] = r.Date
	}
	var dates []time.Time
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (f *fakeArchive) RankingsForDate(_ context.Context, date time.Time) ([]contracts.RankingRecord, error) {
	var out []contracts.RankingRecord
	for _, r := range f.rankings {
		if r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out, nil
}

func (f *fakeArchive) forDate(date time.Time) map[string]contracts.RankingRecord {
	out := make(map[string]contracts.RankingRecord)
	for _, r := range f.rankings {
		if r.Date.Equal(date) {
			out[r.Symbol] = r
		}
	}
	return out
}

func testGenerator(archive Archive, start time.Time) *Generator {
	return NewGenerator(archive, logger.NewWithWriter(&bytes.Buffer{}), start)
}

func TestGeneratorAppendFromEmpty(t *testing.T) {
	archive := newFakeArchive()
	d1, d2 := day(t, "2024-01-15"), day(t, "2024-01-16")
	archive.addDay(d1, volumeRow("BTCUSDT", 100), volumeRow("ETHUSDT", 50))
	archive.addDay(d2, volumeRow("BTCUSDT", 40), volumeRow("ETHUSDT", 90))

	gen := testGenerator(archive, d1)
	n, err := gen.Append(context.Background(), d2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// Day two sees day one as history: ETH moved 2 -> 1.
	eth := archive.forDate(d2)["ETHUSDT"]
	assert.Equal(t, 1, eth.Rank)
	require.NotNil(t, eth.RankChange1D)
	assert.Equal(t, -1, *eth.RankChange1D)
	assert.Equal(t, 2, eth.DaysAvailable)
}

func TestGeneratorAppendIsIncremental(t *testing.T) {
	archive := newFakeArchive()
	d1, d2 := day(t, "2024-01-15"), day(t, "2024-01-16")
	archive.addDay(d1, volumeRow("BTCUSDT", 100))
	archive.addDay(d2, volumeRow("BTCUSDT", 100))

	gen := testGenerator(archive, d1)
	n, err := gen.Append(context.Background(), d1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Second call only covers the strictly newer date.
	n, err = gen.Append(context.Background(), d2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, archive.rankings, 2)

	// Nothing new: no-op.
	n, err = gen.Append(context.Background(), d2)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGeneratorSkipsDatesWithoutVolume(t *testing.T) {
	archive := newFakeArchive()
	d1, d2 := day(t, "2024-01-15"), day(t, "2024-01-16")
	bare := contracts.AvailabilityRecord{Symbol: "BTCUSDT", Available: true}
	archive.addDay(d1, bare)
	archive.addDay(d2, volumeRow("BTCUSDT", 100))

	gen := testGenerator(archive, d1)
	n, err := gen.Append(context.Background(), d2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGeneratorRebuild(t *testing.T) {
	archive := newFakeArchive()
	d1, d2 := day(t, "2024-01-15"), day(t, "2024-01-16")
	archive.addDay(d1, volumeRow("BTCUSDT", 100))
	archive.addDay(d2, volumeRow("BTCUSDT", 100))

	gen := testGenerator(archive, d1)
	_, err := gen.Append(context.Background(), d2)
	require.NoError(t, err)

	// A historical correction lands, then a rebuild regenerates everything.
	archive.addDay(d1, volumeRow("BTCUSDT", 100), volumeRow("ETHUSDT", 200))
	n, err := gen.Rebuild(context.Background(), d2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	btc := archive.forDate(d1)["BTCUSDT"]
	assert.Equal(t, 2, btc.Rank)
}
