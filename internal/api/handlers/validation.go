package handlers

import (
	"net/http"
	"time"

	"github.com/wonny/futurescan/internal/validation"
	"github.com/wonny/futurescan/pkg/logger"
)

// ValidationHandler runs ledger health checks on demand.
type ValidationHandler struct {
	validator *validation.Validator
	logger    *logger.Logger
}

// NewValidationHandler creates a new validation handler
func NewValidationHandler(v *validation.Validator, log *logger.Logger) *ValidationHandler {
	return &ValidationHandler{validator: v, logger: log}
}

// Run executes all checks and returns the aggregated report
// GET /api/v1/validation
func (h *ValidationHandler) Run(w http.ResponseWriter, r *http.Request) {
	report, err := h.validator.Validate(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("validation run failed")
		respondError(w, http.StatusInternalServerError, "validation failed")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// GetGaps returns missing dates inside an explicit range
// GET /api/v1/validation/gaps?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ValidationHandler) GetGaps(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		to = h.validator.EffectiveEnd(time.Now().UTC())
	}
	if to.Before(from) {
		respondError(w, http.StatusBadRequest, "to must not precede from")
		return
	}

	report, err := h.validator.CheckContinuity(r.Context(), from, to)
	if err != nil {
		h.logger.WithError(err).Error("gap check failed")
		respondError(w, http.StatusInternalServerError, "gap check failed")
		return
	}
	respondJSON(w, http.StatusOK, report)
}
