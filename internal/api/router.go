package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/futurescan/internal/api/handlers"
	"github.com/wonny/futurescan/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routing configuration lives in this function only.
func NewRouter(availability *handlers.AvailabilityHandler, rankings *handlers.RankingsHandler, validation *handlers.ValidationHandler, health *handlers.HealthHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", health.Get).Methods("GET")

	// API v1
	api := r.PathPrefix("/api/v1").Subrouter()

	// Availability endpoints
	api.HandleFunc("/symbols", availability.GetSymbols).Methods("GET")
	api.HandleFunc("/timeline/{symbol}", availability.GetTimeline).Methods("GET")
	api.HandleFunc("/snapshot/{date}", availability.GetSnapshot).Methods("GET")
	api.HandleFunc("/counts", availability.GetCounts).Methods("GET")

	// Rankings endpoints
	api.HandleFunc("/rankings/{date}", rankings.GetByDate).Methods("GET")
	api.HandleFunc("/rankings/symbol/{symbol}", rankings.GetHistory).Methods("GET")

	// Validation endpoints
	api.HandleFunc("/validation", validation.Run).Methods("GET")
	api.HandleFunc("/validation/gaps", validation.GetGaps).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
