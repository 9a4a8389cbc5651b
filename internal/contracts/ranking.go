package contracts

import "time"

// RankingRecord is one row of the volume ranking archive: a symbol's dense
// rank by USDT quote volume for one date, with rolling rank-change windows.
//
// Rows are append-only and immutable once published for a date; correcting
// history requires a full archive rebuild.
type RankingRecord struct {
	Date            time.Time `json:"date"`
	Symbol          string    `json:"symbol"`
	Rank            int       `json:"rank"`
	QuoteVolumeUSDT float64   `json:"quote_volume_usdt"`
	TradeCount      int64     `json:"trade_count"`

	// Signed deltas vs. the symbol's rank N ranked periods earlier.
	// Nil when the symbol lacks that much ranking history.
	// Negative = improved (moved toward rank 1).
	RankChange1D  *int `json:"rank_change_1d,omitempty"`
	RankChange7D  *int `json:"rank_change_7d,omitempty"`
	RankChange14D *int `json:"rank_change_14d,omitempty"`
	RankChange30D *int `json:"rank_change_30d,omitempty"`

	Percentile     float64 `json:"percentile"`
	MarketSharePct float64 `json:"market_share_pct"`

	// DaysAvailable counts the symbol's ranked rows in the trailing
	// 30-row window, a liquidity-quality signal.
	DaysAvailable int `json:"days_available"`

	GeneratedAt time.Time `json:"generation_timestamp"`
}

// Improved reports whether the symbol's rank improved over the given delta.
func Improved(delta *int) bool {
	return delta != nil && *delta < 0
}
