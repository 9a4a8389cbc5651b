package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/futurescan/internal/contracts"
)

// scanRecord reads one daily_availability row including volume columns.
func scanRecord(rows pgx.Rows) (contracts.AvailabilityRecord, error) {
	var r contracts.AvailabilityRecord
	var quoteVolume, volumeBase, takerBuyVolume, takerBuyQuote *float64
	var openPrice, highPrice, lowPrice, closePrice *float64
	var tradeCount *int64

	err := rows.Scan(
		&r.Date, &r.Symbol, &r.Available, &r.FileSizeBytes, &r.LastModified,
		&r.URL, &r.StatusCode, &r.ProbeTimestamp,
		&quoteVolume, &tradeCount, &volumeBase,
		&takerBuyVolume, &takerBuyQuote,
		&openPrice, &highPrice, &lowPrice, &closePrice)
	if err != nil {
		return r, err
	}

	if quoteVolume != nil {
		r.Volume = &contracts.VolumeMetrics{QuoteVolumeUSDT: *quoteVolume}
		if tradeCount != nil {
			r.Volume.TradeCount = *tradeCount
		}
		if volumeBase != nil {
			r.Volume.VolumeBase = *volumeBase
		}
		if takerBuyVolume != nil {
			r.Volume.TakerBuyVolumeBase = *takerBuyVolume
		}
		if takerBuyQuote != nil {
			r.Volume.TakerBuyQuoteVolumeUSDT = *takerBuyQuote
		}
		if openPrice != nil {
			r.Volume.OpenPrice = *openPrice
		}
		if highPrice != nil {
			r.Volume.HighPrice = *highPrice
		}
		if lowPrice != nil {
			r.Volume.LowPrice = *lowPrice
		}
		if closePrice != nil {
			r.Volume.ClosePrice = *closePrice
		}
	}
	return r, nil
}

const recordColumns = `
	date, symbol, available, file_size_bytes, last_modified,
	url, http_status, probed_at,
	quote_volume_usdt, trade_count, volume_base,
	taker_buy_volume_base, taker_buy_quote_volume_usdt,
	open_price, high_price, low_price, close_price`

func (s *Store) queryRecords(ctx context.Context, sql string, args ...interface{}) ([]contracts.AvailabilityRecord, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	var records []contracts.AvailabilityRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Timeline returns every row for one symbol ordered by date.
func (s *Store) Timeline(ctx context.Context, symbol string) ([]contracts.AvailabilityRecord, error) {
	return s.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM daily_availability
		WHERE symbol = $1
		ORDER BY date`, symbol)
}

// Snapshot returns every row for one date ordered by symbol.
func (s *Store) Snapshot(ctx context.Context, date time.Time) ([]contracts.AvailabilityRecord, error) {
	return s.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM daily_availability
		WHERE date = $1
		ORDER BY symbol`, date)
}

// GetRange returns all rows with date in [from, to].
func (s *Store) GetRange(ctx context.Context, from, to time.Time) ([]contracts.AvailabilityRecord, error) {
	return s.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM daily_availability
		WHERE date BETWEEN $1 AND $2
		ORDER BY date, symbol`, from, to)
}

// DistinctSymbols returns every symbol the ledger has ever recorded.
func (s *Store) DistinctSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT DISTINCT symbol FROM daily_availability ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("querying distinct symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// FirstListed returns the earliest date a symbol's file was available.
// ok is false when the symbol has no available rows at all.
func (s *Store) FirstListed(ctx context.Context, symbol string) (time.Time, bool, error) {
	// MIN over zero rows yields NULL, hence the pointer scan.
	var d *time.Time
	err := s.db.Pool.QueryRow(ctx, `
		SELECT MIN(date) FROM daily_availability
		WHERE symbol = $1 AND available`, symbol).Scan(&d)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("querying first listed: %w", err)
	}
	if d == nil {
		return time.Time{}, false, nil
	}
	return *d, true, nil
}

// LastAvailable returns the most recent date a symbol's file was available.
func (s *Store) LastAvailable(ctx context.Context, symbol string) (time.Time, bool, error) {
	var d *time.Time
	err := s.db.Pool.QueryRow(ctx, `
		SELECT MAX(date) FROM daily_availability
		WHERE symbol = $1 AND available`, symbol).Scan(&d)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("querying last available: %w", err)
	}
	if d == nil {
		return time.Time{}, false, nil
	}
	return *d, true, nil
}

// CountsByDate returns the per-date available-row counts since a date,
// oldest first. Unavailable rows are bookkeeping, not coverage: a date full
// of explicit 404 rows is still an empty trading day to downstream checks.
func (s *Store) CountsByDate(ctx context.Context, since time.Time) ([]contracts.DateCount, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT date, available_count FROM daily_symbol_counts
		WHERE date >= $1
		ORDER BY date`, since)
	if err != nil {
		return nil, fmt.Errorf("querying date counts: %w", err)
	}
	defer rows.Close()

	var counts []contracts.DateCount
	for rows.Next() {
		var dc contracts.DateCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}

// ProbedDates returns the distinct dates present in [from, to], ordered.
func (s *Store) ProbedDates(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT DISTINCT date FROM daily_availability
		WHERE date BETWEEN $1 AND $2
		ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying probed dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// AvailableSymbols returns the symbols whose file exists for a date.
func (s *Store) AvailableSymbols(ctx context.Context, date time.Time) ([]string, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT symbol FROM daily_availability
		WHERE date = $1 AND available
		ORDER BY symbol`, date)
	if err != nil {
		return nil, fmt.Errorf("querying available symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// VolumeRows returns the records for one date that carry volume metrics,
// the input cohort for ranking generation.
func (s *Store) VolumeRows(ctx context.Context, date time.Time) ([]contracts.AvailabilityRecord, error) {
	return s.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM daily_availability
		WHERE date = $1 AND available AND quote_volume_usdt IS NOT NULL
		ORDER BY symbol`, date)
}
