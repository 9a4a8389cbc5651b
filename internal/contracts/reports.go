package contracts

import "time"

// GapReport lists calendar dates with no ledger rows at all inside the
// checked range. Transient: generated on demand, never persisted.
type GapReport struct {
	From         time.Time   `json:"from"`
	To           time.Time   `json:"to"`
	MissingDates []time.Time `json:"missing_dates"`
}

// OK reports whether the range is gap-free.
func (g *GapReport) OK() bool {
	return len(g.MissingDates) == 0
}

// CompletenessReport lists dates whose available-row count fell below the
// expected minimum (partial-run detection).
type CompletenessReport struct {
	Since      time.Time   `json:"since"`
	Until      time.Time   `json:"until"`
	MinCount   int         `json:"min_count"`
	ShortDates []DateCount `json:"short_dates"`
}

// OK reports whether every checked date met the minimum count.
func (c *CompletenessReport) OK() bool {
	return len(c.ShortDates) == 0
}

// CrossCheckReport compares the ledger's available set on one date against
// the live exchange catalog. A Skipped report means the catalog API was
// unreachable (e.g. geo-blocked); that is a warning, never a failure.
type CrossCheckReport struct {
	Date          time.Time `json:"date"`
	Skipped       bool      `json:"skipped"`
	SkipReason    string    `json:"skip_reason,omitempty"`
	LedgerCount   int       `json:"ledger_count"`
	CatalogCount  int       `json:"catalog_count"`
	MatchCount    int       `json:"match_count"`
	MatchPct      float64   `json:"match_pct"`
	OnlyInLedger  []string  `json:"only_in_ledger,omitempty"`
	OnlyInCatalog []string  `json:"only_in_catalog,omitempty"`
}

// ValidationReport aggregates the three independent ledger checks.
// Findings are informational: they never block persistence or distribution.
type ValidationReport struct {
	GeneratedAt  time.Time           `json:"generated_at"`
	Continuity   *GapReport          `json:"continuity,omitempty"`
	Completeness *CompletenessReport `json:"completeness,omitempty"`
	CrossCheck   *CrossCheckReport   `json:"cross_check,omitempty"`
}

// HasFindings reports whether any check surfaced a deficiency.
func (v *ValidationReport) HasFindings() bool {
	if v.Continuity != nil && !v.Continuity.OK() {
		return true
	}
	if v.Completeness != nil && !v.Completeness.OK() {
		return true
	}
	if v.CrossCheck != nil && !v.CrossCheck.Skipped && v.CrossCheck.MatchPct < 95.0 {
		return true
	}
	return false
}

// RunSummary describes one reconciliation run for operators and the
// orchestration layer.
type RunSummary struct {
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	Symbols     int               `json:"symbols"`
	Probed      int               `json:"probed"`
	Available   int               `json:"available"`
	Unavailable int               `json:"unavailable"`
	RankingRows int               `json:"ranking_rows"`
	Duration    time.Duration     `json:"duration"`
	Validation  *ValidationReport `json:"validation,omitempty"`
}
