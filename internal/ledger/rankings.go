package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/futurescan/internal/contracts"
)

// InsertRankings appends one generated date's ranking rows in a single
// transaction. The archive is append-only: a date that already has rows is
// rejected rather than silently overwritten.
func (s *Store) InsertRankings(ctx context.Context, records []contracts.RankingRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning rankings transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO volume_rankings (
				date, symbol, rank, quote_volume_usdt, trade_count,
				rank_change_1d, rank_change_7d, rank_change_14d, rank_change_30d,
				percentile, market_share_pct, days_available, generated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			r.Date, r.Symbol, r.Rank, r.QuoteVolumeUSDT, r.TradeCount,
			r.RankChange1D, r.RankChange7D, r.RankChange14D, r.RankChange30D,
			r.Percentile, r.MarketSharePct, r.DaysAvailable, r.GeneratedAt)
	}

	br := tx.SendBatch(ctx, batch)
	count := 0
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return count, fmt.Errorf("inserting ranking row: %w", err)
		}
		count++
	}
	if err := br.Close(); err != nil {
		return count, fmt.Errorf("closing rankings batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return count, fmt.Errorf("committing rankings transaction: %w", err)
	}
	return count, nil
}

// MaxRankingDate returns the newest date in the rankings archive.
// ok is false when the archive is empty.
func (s *Store) MaxRankingDate(ctx context.Context) (time.Time, bool, error) {
	var d *time.Time
	err := s.db.Pool.QueryRow(ctx,
		`SELECT MAX(date) FROM volume_rankings`).Scan(&d)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("querying max ranking date: %w", err)
	}
	if d == nil {
		return time.Time{}, false, nil
	}
	return *d, true, nil
}

// RankingsForDate returns one date's rows ordered by rank, then symbol for
// stable display of ties.
func (s *Store) RankingsForDate(ctx context.Context, date time.Time) ([]contracts.RankingRecord, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT date, symbol, rank, quote_volume_usdt, trade_count,
		       rank_change_1d, rank_change_7d, rank_change_14d, rank_change_30d,
		       percentile, market_share_pct, days_available, generated_at
		FROM volume_rankings
		WHERE date = $1
		ORDER BY rank, symbol`, date)
	if err != nil {
		return nil, fmt.Errorf("querying rankings: %w", err)
	}
	defer rows.Close()
	return scanRankings(rows)
}

// SymbolRankHistory returns the most recent ranked rows for one symbol at or
// before a date, newest first, capped at limit.
func (s *Store) SymbolRankHistory(ctx context.Context, symbol string, before time.Time, limit int) ([]contracts.RankingRecord, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT date, symbol, rank, quote_volume_usdt, trade_count,
		       rank_change_1d, rank_change_7d, rank_change_14d, rank_change_30d,
		       percentile, market_share_pct, days_available, generated_at
		FROM volume_rankings
		WHERE symbol = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT $3`, symbol, before, limit)
	if err != nil {
		return nil, fmt.Errorf("querying rank history: %w", err)
	}
	defer rows.Close()
	return scanRankings(rows)
}

// RankedDates returns every date in the archive, oldest first.
func (s *Store) RankedDates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT DISTINCT date FROM volume_rankings ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("querying ranked dates: %w", err)
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

// TruncateRankings empties the archive ahead of a full rebuild. The only
// sanctioned delete in the schema: availability rows are immutable but
// rankings are derived and can always be regenerated.
func (s *Store) TruncateRankings(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Pool.Exec(ctx, `TRUNCATE volume_rankings`); err != nil {
		return fmt.Errorf("truncating rankings: %w", err)
	}
	s.logger.Warn("Rankings archive truncated for rebuild")
	return nil
}

func scanRankings(rows pgx.Rows) ([]contracts.RankingRecord, error) {
	var records []contracts.RankingRecord
	for rows.Next() {
		var r contracts.RankingRecord
		err := rows.Scan(
			&r.Date, &r.Symbol, &r.Rank, &r.QuoteVolumeUSDT, &r.TradeCount,
			&r.RankChange1D, &r.RankChange7D, &r.RankChange14D, &r.RankChange30D,
			&r.Percentile, &r.MarketSharePct, &r.DaysAvailable, &r.GeneratedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning ranking row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
