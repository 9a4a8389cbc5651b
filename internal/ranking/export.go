package ranking

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
)

// archiveReader is the read-only slice of the archive the exporter needs.
type archiveReader interface {
	RankedDates(ctx context.Context) ([]time.Time, error)
	RankingsForDate(ctx context.Context, date time.Time) ([]contracts.RankingRecord, error)
}

var exportHeader = []string{
	"date", "symbol", "rank", "quote_volume_usdt", "trade_count",
	"rank_change_1d", "rank_change_7d", "rank_change_14d", "rank_change_30d",
	"percentile", "market_share_pct", "days_available", "generation_timestamp",
}

// ExportCSV streams the archive's rows in [from, to] as CSV, ordered by
// date then rank, for downstream analytical tools. Returns the row count.
func ExportCSV(ctx context.Context, archive archiveReader, w io.Writer, from, to time.Time) (int, error) {
	dates, err := archive.RankedDates(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing ranked dates: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	rows := 0
	for _, date := range dates {
		if date.Before(from) || date.After(to) {
			continue
		}
		records, err := archive.RankingsForDate(ctx, date)
		if err != nil {
			return rows, fmt.Errorf("loading rankings for %s: %w", date.Format("2006-01-02"), err)
		}
		for _, r := range records {
			if err := cw.Write(exportRow(r)); err != nil {
				return rows, fmt.Errorf("writing row: %w", err)
			}
			rows++
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flushing export: %w", err)
	}
	return rows, nil
}

func exportRow(r contracts.RankingRecord) []string {
	return []string{
		r.Date.Format("2006-01-02"),
		r.Symbol,
		strconv.Itoa(r.Rank),
		strconv.FormatFloat(r.QuoteVolumeUSDT, 'f', -1, 64),
		strconv.FormatInt(r.TradeCount, 10),
		formatDelta(r.RankChange1D),
		formatDelta(r.RankChange7D),
		formatDelta(r.RankChange14D),
		formatDelta(r.RankChange30D),
		strconv.FormatFloat(r.Percentile, 'f', 2, 64),
		strconv.FormatFloat(r.MarketSharePct, 'f', 4, 64),
		strconv.Itoa(r.DaysAvailable),
		r.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// formatDelta renders a nullable rank change as an empty cell.
func formatDelta(delta *int) string {
	if delta == nil {
		return ""
	}
	return strconv.Itoa(*delta)
}
