package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/futurescan/internal/ledger"
	"github.com/wonny/futurescan/pkg/logger"
)

// AvailabilityHandler serves read access to the availability ledger.
// ⭐ SSOT: availability API handlers live in this struct only.
type AvailabilityHandler struct {
	store  *ledger.Store
	logger *logger.Logger
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(store *ledger.Store, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{store: store, logger: log}
}

// GetSymbols returns every symbol the ledger knows
// GET /api/v1/symbols
func (h *AvailabilityHandler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.store.DistinctSymbols(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("symbols query failed")
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(symbols),
		"symbols": symbols,
	})
}

// GetTimeline returns one symbol's full availability history
// GET /api/v1/timeline/{symbol}
func (h *AvailabilityHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	records, err := h.store.Timeline(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).Error("timeline query failed")
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "unknown symbol: "+symbol)
		return
	}

	first, _, err := h.store.FirstListed(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).Error("first listed query failed")
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":       symbol,
		"first_listed": first.Format("2006-01-02"),
		"days":         len(records),
		"timeline":     records,
	})
}

// GetSnapshot returns every symbol's state on one date
// GET /api/v1/snapshot/{date}
func (h *AvailabilityHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(mux.Vars(r)["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	records, err := h.store.Snapshot(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("snapshot query failed")
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	available := 0
	for _, rec := range records {
		if rec.Available {
			available++
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":      date.Format("2006-01-02"),
		"total":     len(records),
		"available": available,
		"records":   records,
	})
}

// GetCounts returns per-date available symbol counts
// GET /api/v1/counts?since=YYYY-MM-DD
func (h *AvailabilityHandler) GetCounts(w http.ResponseWriter, r *http.Request) {
	since, err := parseDate(r.URL.Query().Get("since"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
		return
	}

	counts, err := h.store.CountsByDate(r.Context(), since)
	if err != nil {
		h.logger.WithError(err).Error("counts query failed")
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"since":  since.Format("2006-01-02"),
		"counts": counts,
	})
}
