package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// parseDate parses a YYYY-MM-DD path or query value.
func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
