package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
	"github.com/wonny/futurescan/pkg/logger"
)

// Archive is the persistence surface the generator reads and extends.
// *ledger.Store satisfies it.
type Archive interface {
	MaxRankingDate(ctx context.Context) (time.Time, bool, error)
	ProbedDates(ctx context.Context, from, to time.Time) ([]time.Time, error)
	VolumeRows(ctx context.Context, date time.Time) ([]contracts.AvailabilityRecord, error)
	SymbolRankHistory(ctx context.Context, symbol string, before time.Time, limit int) ([]contracts.RankingRecord, error)
	InsertRankings(ctx context.Context, records []contracts.RankingRecord) (int, error)
	TruncateRankings(ctx context.Context) error
}

// Generator extends the rankings archive forward in time.
//
// Published rows are immutable: Append only computes dates strictly newer
// than the archive's newest date. Corrections to historical availability
// require Rebuild, which regenerates the whole archive.
type Generator struct {
	archive Archive
	engine  *Engine
	logger  *logger.Logger

	historyStart time.Time
}

// NewGenerator creates a rankings generator. historyStart bounds how far
// back a rebuild reaches, normally the exchange's futures launch date.
func NewGenerator(archive Archive, log *logger.Logger, historyStart time.Time) *Generator {
	return &Generator{
		archive:      archive,
		engine:       NewEngine(),
		logger:       log.WithField("module", "ranking"),
		historyStart: historyStart,
	}
}

// Append generates and stores rankings for every unranked date up to and
// including upTo. Returns the number of rows appended.
func (g *Generator) Append(ctx context.Context, upTo time.Time) (int, error) {
	start := g.historyStart
	if maxDate, ok, err := g.archive.MaxRankingDate(ctx); err != nil {
		return 0, err
	} else if ok {
		start = maxDate.AddDate(0, 0, 1)
	}
	if start.After(upTo) {
		g.logger.Debug("rankings archive already current")
		return 0, nil
	}

	dates, err := g.archive.ProbedDates(ctx, start, upTo)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, date := range dates {
		n, err := g.generateDate(ctx, date)
		if err != nil {
			return total, fmt.Errorf("generating rankings for %s: %w", date.Format("2006-01-02"), err)
		}
		total += n
	}

	g.logger.WithFields(map[string]interface{}{
		"dates": len(dates),
		"rows":  total,
	}).Info("Rankings appended")
	return total, nil
}

// Rebuild regenerates the entire archive from the ledger.
func (g *Generator) Rebuild(ctx context.Context, upTo time.Time) (int, error) {
	if err := g.archive.TruncateRankings(ctx); err != nil {
		return 0, err
	}
	return g.Append(ctx, upTo)
}

func (g *Generator) generateDate(ctx context.Context, date time.Time) (int, error) {
	cohort, err := g.archive.VolumeRows(ctx, date)
	if err != nil {
		return 0, err
	}
	if len(cohort) == 0 {
		g.logger.Debugf("no volume cohort for %s, skipping", date.Format("2006-01-02"))
		return 0, nil
	}

	// Earlier dates of this run are already committed, so the history
	// query sees them.
	history := make(map[string][]contracts.RankingRecord, len(cohort))
	before := date.AddDate(0, 0, -1)
	for _, row := range cohort {
		prior, err := g.archive.SymbolRankHistory(ctx, row.Symbol, before, trailingWindow)
		if err != nil {
			return 0, err
		}
		history[row.Symbol] = prior
	}

	records := g.engine.RankDay(date, cohort, history, time.Now().UTC())
	return g.archive.InsertRankings(ctx, records)
}
