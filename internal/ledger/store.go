package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/futurescan/internal/contracts"
	"github.com/wonny/futurescan/pkg/database"
	"github.com/wonny/futurescan/pkg/logger"
)

// Store owns all writes to the availability ledger.
// ⭐ SSOT: daily_availability rows are written here and nowhere else.
//
// Writes are serialized through a mutex and each batch lands in one
// transaction. Rows are only ever inserted or updated, never deleted, so a
// re-probe of an old date converges on the latest observation.
type Store struct {
	db     *database.DB
	logger *logger.Logger

	mu sync.Mutex
}

// NewStore creates a ledger store.
func NewStore(db *database.DB, log *logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithField("module", "ledger"),
	}
}

const upsertSQL = `
	INSERT INTO daily_availability (
		date, symbol, available, file_size_bytes, last_modified,
		url, http_status, probed_at,
		quote_volume_usdt, trade_count, volume_base,
		taker_buy_volume_base, taker_buy_quote_volume_usdt,
		open_price, high_price, low_price, close_price
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (date, symbol) DO UPDATE SET
		available       = EXCLUDED.available,
		file_size_bytes = EXCLUDED.file_size_bytes,
		last_modified   = EXCLUDED.last_modified,
		url             = EXCLUDED.url,
		http_status     = EXCLUDED.http_status,
		probed_at       = EXCLUDED.probed_at,
		quote_volume_usdt           = COALESCE(EXCLUDED.quote_volume_usdt, daily_availability.quote_volume_usdt),
		trade_count                 = COALESCE(EXCLUDED.trade_count, daily_availability.trade_count),
		volume_base                 = COALESCE(EXCLUDED.volume_base, daily_availability.volume_base),
		taker_buy_volume_base       = COALESCE(EXCLUDED.taker_buy_volume_base, daily_availability.taker_buy_volume_base),
		taker_buy_quote_volume_usdt = COALESCE(EXCLUDED.taker_buy_quote_volume_usdt, daily_availability.taker_buy_quote_volume_usdt),
		open_price  = COALESCE(EXCLUDED.open_price, daily_availability.open_price),
		high_price  = COALESCE(EXCLUDED.high_price, daily_availability.high_price),
		low_price   = COALESCE(EXCLUDED.low_price, daily_availability.low_price),
		close_price = COALESCE(EXCLUDED.close_price, daily_availability.close_price)`

// UpsertBatch writes a batch of availability records in one transaction and
// refreshes the per-date summary counts for every touched date.
// Returns the number of rows written.
func (s *Store) UpsertBatch(ctx context.Context, records []contracts.AvailabilityRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning ledger transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	dates := make(map[time.Time]struct{})
	for _, r := range records {
		args := []interface{}{
			r.Date, r.Symbol, r.Available, r.FileSizeBytes, r.LastModified,
			r.URL, r.StatusCode, r.ProbeTimestamp,
		}
		if r.Volume != nil {
			args = append(args,
				r.Volume.QuoteVolumeUSDT, r.Volume.TradeCount, r.Volume.VolumeBase,
				r.Volume.TakerBuyVolumeBase, r.Volume.TakerBuyQuoteVolumeUSDT,
				r.Volume.OpenPrice, r.Volume.HighPrice, r.Volume.LowPrice, r.Volume.ClosePrice)
		} else {
			args = append(args, nil, nil, nil, nil, nil, nil, nil, nil, nil)
		}
		batch.Queue(upsertSQL, args...)
		dates[r.Date] = struct{}{}
	}

	br := tx.SendBatch(ctx, batch)
	count := 0
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return count, fmt.Errorf("upserting availability row: %w", err)
		}
		count++
	}
	if err := br.Close(); err != nil {
		return count, fmt.Errorf("closing upsert batch: %w", err)
	}

	for d := range dates {
		if err := s.refreshDateCounts(ctx, tx, d); err != nil {
			return count, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return count, fmt.Errorf("committing ledger transaction: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"rows":  count,
		"dates": len(dates),
	}).Info("Ledger batch written")
	return count, nil
}

// refreshDateCounts recomputes the summary row for one date from the ledger.
func (s *Store) refreshDateCounts(ctx context.Context, tx pgx.Tx, date time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO daily_symbol_counts (date, total_count, available_count, updated_at)
		SELECT date, COUNT(*), COUNT(*) FILTER (WHERE available), NOW()
		FROM daily_availability
		WHERE date = $1
		GROUP BY date
		ON CONFLICT (date) DO UPDATE SET
			total_count     = EXCLUDED.total_count,
			available_count = EXCLUDED.available_count,
			updated_at      = NOW()`, date)
	if err != nil {
		return fmt.Errorf("refreshing counts for %s: %w", date.Format("2006-01-02"), err)
	}
	return nil
}
