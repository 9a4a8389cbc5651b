package contracts

import "time"

// AvailabilityRecord is one row of the availability ledger: the outcome of
// checking one (date, symbol) artifact in the remote store.
// ⭐ SSOT: probing, enumeration, and the ledger all exchange this type.
//
// The ledger keys on (Date, Symbol); re-probing the same key fully replaces
// the prior row. Rows are never deleted: a delisted symbol keeps its
// history and keeps being probed.
type AvailabilityRecord struct {
	Date           time.Time      `json:"date"`
	Symbol         string         `json:"symbol"`
	Available      bool           `json:"available"`
	FileSizeBytes  *int64         `json:"file_size_bytes,omitempty"`
	LastModified   *time.Time     `json:"last_modified,omitempty"`
	URL            string         `json:"url"`
	StatusCode     int            `json:"status_code"`
	ProbeTimestamp time.Time      `json:"probe_timestamp"`
	Volume         *VolumeMetrics `json:"volume,omitempty"`
}

// VolumeMetrics holds daily trading activity parsed from the 1d kline file.
// Best-effort: the 1d file may be missing even when the 1m file exists.
type VolumeMetrics struct {
	QuoteVolumeUSDT         float64 `json:"quote_volume_usdt"`
	TradeCount              int64   `json:"trade_count"`
	VolumeBase              float64 `json:"volume_base"`
	TakerBuyVolumeBase      float64 `json:"taker_buy_volume_base"`
	TakerBuyQuoteVolumeUSDT float64 `json:"taker_buy_quote_volume_usdt"`
	OpenPrice               float64 `json:"open_price"`
	HighPrice               float64 `json:"high_price"`
	LowPrice                float64 `json:"low_price"`
	ClosePrice              float64 `json:"close_price"`
}

// Key returns the ledger primary key for this record.
func (r *AvailabilityRecord) Key() string {
	return r.Date.Format("2006-01-02") + "/" + r.Symbol
}

// ContractType classifies a futures symbol.
type ContractType string

const (
	ContractPerpetual ContractType = "perpetual"
	ContractDelivery  ContractType = "delivery"
)

// DateCount is a per-date row count, used by completeness checks and
// snapshot summaries.
type DateCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}
