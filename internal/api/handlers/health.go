package handlers

import (
	"net/http"

	"github.com/wonny/futurescan/pkg/database"
	"github.com/wonny/futurescan/pkg/logger"
)

// HealthHandler reports service liveness and database health.
type HealthHandler struct {
	db     *database.DB
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: log}
}

// Get returns service health
// GET /health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	dbHealth, _ := h.db.HealthCheck(r.Context())

	status := http.StatusOK
	overall := "ok"
	if !dbHealth.Healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	respondJSON(w, status, map[string]interface{}{
		"status":   overall,
		"service":  "futurescan-api",
		"database": dbHealth,
	})
}
