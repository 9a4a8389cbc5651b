package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/futurescan/internal/ledger"
	"github.com/wonny/futurescan/pkg/logger"
)

// RankingsHandler serves the volume rankings archive.
type RankingsHandler struct {
	store  *ledger.Store
	logger *logger.Logger
}

// NewRankingsHandler creates a new rankings handler
func NewRankingsHandler(store *ledger.Store, log *logger.Logger) *RankingsHandler {
	return &RankingsHandler{store: store, logger: log}
}

// GetByDate returns one date's rankings, optionally truncated
// GET /api/v1/rankings/{date}?limit=N
func (h *RankingsHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(mux.Vars(r)["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	records, err := h.store.RankingsForDate(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("rankings query failed")
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "no rankings for "+date.Format("2006-01-02"))
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if limit < len(records) {
			records = records[:limit]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":     date.Format("2006-01-02"),
		"count":    len(records),
		"rankings": records,
	})
}

// GetHistory returns one symbol's recent ranked rows, newest first
// GET /api/v1/rankings/symbol/{symbol}?limit=N
func (h *RankingsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	limit := 30
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	now := time.Now().UTC()
	records, err := h.store.SymbolRankHistory(r.Context(), symbol, now, limit)
	if err != nil {
		h.logger.WithError(err).Error("rank history query failed")
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "no rankings for symbol "+symbol)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"count":   len(records),
		"history": records,
	})
}
