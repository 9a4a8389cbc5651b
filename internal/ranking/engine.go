package ranking

import (
	"sort"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
)

// rankWindows are the lookback depths, in ranked periods, for rank-change
// columns. A period is a prior ranked row, not a calendar day: a symbol
// absent from the cohort on some date simply has no period there.
var rankWindows = [4]int{1, 7, 14, 30}

// trailingWindow is the row span for the days_available count.
const trailingWindow = 30

// Engine turns one date's volume cohort into ranking rows.
// Pure computation: history comes in as data, nothing is fetched here.
type Engine struct{}

// NewEngine creates a ranking engine.
func NewEngine() *Engine {
	return &Engine{}
}

// RankDay ranks one date's cohort by quote volume, descending, using dense
// ranking: tied volumes share a rank and no rank numbers are skipped. The
// returned slice is ordered by rank with alphabetical tie-break, which
// affects display order only, never the rank value.
//
// history maps symbol to its prior ranked rows, newest first. Rank-change
// windows and the trailing availability count are derived from it; a symbol
// with fewer prior rows than a window needs gets a nil change for it.
func (e *Engine) RankDay(date time.Time, cohort []contracts.AvailabilityRecord, history map[string][]contracts.RankingRecord, generatedAt time.Time) []contracts.RankingRecord {
	rows := make([]contracts.AvailabilityRecord, 0, len(cohort))
	for _, r := range cohort {
		if r.Volume == nil {
			continue
		}
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil
	}

	sort.Slice(rows, func(i, j int) bool {
		vi, vj := rows[i].Volume.QuoteVolumeUSDT, rows[j].Volume.QuoteVolumeUSDT
		if vi != vj {
			return vi > vj
		}
		return rows[i].Symbol < rows[j].Symbol
	})

	var totalVolume float64
	for _, r := range rows {
		totalVolume += r.Volume.QuoteVolumeUSDT
	}

	records := make([]contracts.RankingRecord, 0, len(rows))
	denseRank := 0
	ordinalOfRank := 0 // competition rank of the current volume level, for percentile
	var prevVolume float64
	for i, r := range rows {
		if i == 0 || r.Volume.QuoteVolumeUSDT != prevVolume {
			denseRank++
			ordinalOfRank = i + 1
			prevVolume = r.Volume.QuoteVolumeUSDT
		}

		rec := contracts.RankingRecord{
			Date:            date,
			Symbol:          r.Symbol,
			Rank:            denseRank,
			QuoteVolumeUSDT: r.Volume.QuoteVolumeUSDT,
			TradeCount:      r.Volume.TradeCount,
			Percentile:      percentRank(ordinalOfRank, len(rows)),
			MarketSharePct:  marketShare(r.Volume.QuoteVolumeUSDT, totalVolume),
			GeneratedAt:     generatedAt,
		}

		prior := history[r.Symbol]
		rec.RankChange1D = rankDelta(denseRank, prior, rankWindows[0])
		rec.RankChange7D = rankDelta(denseRank, prior, rankWindows[1])
		rec.RankChange14D = rankDelta(denseRank, prior, rankWindows[2])
		rec.RankChange30D = rankDelta(denseRank, prior, rankWindows[3])
		rec.DaysAvailable = trailingCount(prior)

		records = append(records, rec)
	}
	return records
}

// rankDelta computes current minus the rank n ranked-periods ago.
// Negative means the symbol moved toward rank 1.
func rankDelta(current int, history []contracts.RankingRecord, n int) *int {
	if len(history) < n {
		return nil
	}
	delta := current - history[n-1].Rank
	return &delta
}

// trailingCount is how many of the last 30 ranked periods, including the
// row being generated, the symbol appeared in.
func trailingCount(history []contracts.RankingRecord) int {
	prior := len(history)
	if prior > trailingWindow-1 {
		prior = trailingWindow - 1
	}
	return prior + 1
}

// percentRank follows SQL PERCENT_RANK scaled to 0..100: the share of the
// cohort ranked strictly above this volume level. The top row is 0 and a
// one-row cohort is 0.
func percentRank(ordinal, cohortSize int) float64 {
	if cohortSize <= 1 {
		return 0
	}
	return float64(ordinal-1) / float64(cohortSize-1) * 100
}

func marketShare(volume, total float64) float64 {
	if total == 0 {
		return 0
	}
	return volume / total * 100
}
