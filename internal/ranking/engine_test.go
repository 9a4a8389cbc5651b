package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/futurescan/internal/contracts"
)

func volumeRow(symbol string, quoteVolume float64) contracts.AvailabilityRecord {
	return contracts.AvailabilityRecord{
		Symbol:    symbol,
		Available: true,
		Volume:    &contracts.VolumeMetrics{QuoteVolumeUSDT: quoteVolume, TradeCount: 1},
	}
}

func rankedAt(rank int) contracts.RankingRecord {
	return contracts.RankingRecord{Rank: rank}
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestRankDayDenseRankWithTies(t *testing.T) {
	e := NewEngine()
	cohort := []contracts.AvailabilityRecord{
		volumeRow("AAAUSDT", 100),
		volumeRow("BBBUSDT", 100),
		volumeRow("CCCUSDT", 50),
		volumeRow("DDDUSDT", 20),
		volumeRow("EEEUSDT", 5),
	}

	records := e.RankDay(day(t, "2024-01-15"), cohort, nil, time.Now().UTC())
	require.Len(t, records, 5)

	ranks := make([]int, len(records))
	for i, r := range records {
		ranks[i] = r.Rank
	}
	// Tied volumes share a rank and no rank number is skipped.
	assert.Equal(t, []int{1, 1, 2, 3, 4}, ranks)

	// Alphabetical order inside the tie, display only.
	assert.Equal(t, "AAAUSDT", records[0].Symbol)
	assert.Equal(t, "BBBUSDT", records[1].Symbol)
}

func TestRankDayTopRankIsOne(t *testing.T) {
	e := NewEngine()
	records := e.RankDay(day(t, "2024-01-15"), []contracts.AvailabilityRecord{
		volumeRow("ETHUSDT", 3e9),
		volumeRow("BTCUSDT", 5e9),
	}, nil, time.Now().UTC())

	require.Len(t, records, 2)
	assert.Equal(t, "BTCUSDT", records[0].Symbol)
	assert.Equal(t, 1, records[0].Rank)
	assert.Equal(t, 2, records[1].Rank)
}

func TestRankDayRankChangeSign(t *testing.T) {
	e := NewEngine()

	// Rank 10 seven periods ago, rank 3 today: change is -7 (improved).
	history := map[string][]contracts.RankingRecord{
		"XRPUSDT": {
			rankedAt(4), rankedAt(5), rankedAt(6), rankedAt(7),
			rankedAt(8), rankedAt(9), rankedAt(10),
		},
	}

	cohort := []contracts.AvailabilityRecord{
		volumeRow("A1USDT", 100), volumeRow("A2USDT", 90),
		volumeRow("XRPUSDT", 80),
		volumeRow("A4USDT", 70), volumeRow("A5USDT", 60),
	}
	records := e.RankDay(day(t, "2024-01-15"), cohort, history, time.Now().UTC())

	var xrp *contracts.RankingRecord
	for i := range records {
		if records[i].Symbol == "XRPUSDT" {
			xrp = &records[i]
		}
	}
	require.NotNil(t, xrp)
	assert.Equal(t, 3, xrp.Rank)

	require.NotNil(t, xrp.RankChange1D)
	assert.Equal(t, -1, *xrp.RankChange1D)
	require.NotNil(t, xrp.RankChange7D)
	assert.Equal(t, -7, *xrp.RankChange7D)
	assert.True(t, contracts.Improved(xrp.RankChange7D))

	// Only 7 prior periods: the longer windows have no baseline.
	assert.Nil(t, xrp.RankChange14D)
	assert.Nil(t, xrp.RankChange30D)
}

func TestRankDayNewSymbolHasNilChanges(t *testing.T) {
	e := NewEngine()
	records := e.RankDay(day(t, "2024-01-15"), []contracts.AvailabilityRecord{
		volumeRow("NEWUSDT", 100),
	}, nil, time.Now().UTC())

	require.Len(t, records, 1)
	assert.Nil(t, records[0].RankChange1D)
	assert.Nil(t, records[0].RankChange7D)
	assert.Nil(t, records[0].RankChange14D)
	assert.Nil(t, records[0].RankChange30D)
	assert.Equal(t, 1, records[0].DaysAvailable)
}

func TestRankDayPercentileAndShare(t *testing.T) {
	e := NewEngine()
	records := e.RankDay(day(t, "2024-01-15"), []contracts.AvailabilityRecord{
		volumeRow("AUSDT", 60),
		volumeRow("BUSDT", 30),
		volumeRow("CUSDT", 10),
	}, nil, time.Now().UTC())
	require.Len(t, records, 3)

	assert.InDelta(t, 0, records[0].Percentile, 1e-9)
	assert.InDelta(t, 50, records[1].Percentile, 1e-9)
	assert.InDelta(t, 100, records[2].Percentile, 1e-9)

	assert.InDelta(t, 60, records[0].MarketSharePct, 1e-9)
	assert.InDelta(t, 30, records[1].MarketSharePct, 1e-9)
	assert.InDelta(t, 10, records[2].MarketSharePct, 1e-9)
}

func TestRankDayTrailingCountCaps(t *testing.T) {
	e := NewEngine()

	var long []contracts.RankingRecord
	for i := 0; i < 45; i++ {
		long = append(long, rankedAt(5))
	}
	history := map[string][]contracts.RankingRecord{"BTCUSDT": long}

	records := e.RankDay(day(t, "2024-01-15"), []contracts.AvailabilityRecord{
		volumeRow("BTCUSDT", 100),
	}, history, time.Now().UTC())
	require.Len(t, records, 1)
	assert.Equal(t, 30, records[0].DaysAvailable)
}

func TestRankDaySkipsRowsWithoutVolume(t *testing.T) {
	e := NewEngine()
	bare := contracts.AvailabilityRecord{Symbol: "BAREUSDT", Available: true}
	records := e.RankDay(day(t, "2024-01-15"),
		[]contracts.AvailabilityRecord{bare, volumeRow("BTCUSDT", 100)},
		nil, time.Now().UTC())
	require.Len(t, records, 1)
	assert.Equal(t, "BTCUSDT", records[0].Symbol)
}

func TestRankDayEmptyCohort(t *testing.T) {
	e := NewEngine()
	assert.Nil(t, e.RankDay(day(t, "2024-01-15"), nil, nil, time.Now().UTC()))
}
