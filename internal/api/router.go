package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/contentpulse/internal/api/handlers"
	"github.com/wonny/contentpulse/pkg/config"
	"github.com/wonny/contentpulse/pkg/logger"
)

// HealthFunc reports backing store health; nil means always healthy
type HealthFunc func(ctx context.Context) error

// Handlers groups every endpoint handler mounted by the router
type Handlers struct {
	Strategy    *handlers.StrategyHandler
	Performance *handlers.PerformanceHandler
	Opportunity *handlers.OpportunityHandler
	Experiment  *handlers.ExperimentHandler
	Publish     *handlers.PublishHandler
	Report      *handlers.ReportHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, hub *Hub, auth config.AuthConfig, health HealthFunc, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check (unauthenticated)
	r.HandleFunc("/health", healthCheckHandler(health)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware(auth, log))

	// Strategy config
	api.HandleFunc("/strategy/config", h.Strategy.GetConfig).Methods("GET")
	api.HandleFunc("/strategy/config", h.Strategy.UpdateConfig).Methods("PUT")
	api.HandleFunc("/strategy/config/history", h.Strategy.History).Methods("GET")

	// Performance
	api.HandleFunc("/performance/calculate", h.Performance.Calculate).Methods("POST")
	api.HandleFunc("/performance", h.Performance.List).Methods("GET")
	api.HandleFunc("/performance/{postId}", h.Performance.Get).Methods("GET")
	api.HandleFunc("/metrics", h.Performance.RecordMetrics).Methods("POST")
	api.HandleFunc("/revenue", h.Performance.RecordRevenue).Methods("POST")

	// Opportunities
	api.HandleFunc("/opportunities/calculate", h.Opportunity.Calculate).Methods("POST")
	api.HandleFunc("/opportunities/top", h.Opportunity.Top).Methods("GET")
	api.HandleFunc("/opportunities/{id}", h.Opportunity.Get).Methods("GET")
	api.HandleFunc("/opportunities/{id}/action", h.Opportunity.Action).Methods("POST")
	api.HandleFunc("/opportunities/{id}/dismiss", h.Opportunity.Dismiss).Methods("POST")

	// Experiments
	api.HandleFunc("/experiments", h.Experiment.Create).Methods("POST")
	api.HandleFunc("/experiments", h.Experiment.List).Methods("GET")
	api.HandleFunc("/experiments/{id}", h.Experiment.Get).Methods("GET")
	api.HandleFunc("/experiments/{id}/conclude", h.Experiment.Conclude).Methods("POST")
	api.HandleFunc("/experiments/{id}/cancel", h.Experiment.Cancel).Methods("POST")
	api.HandleFunc("/experiments/{id}/variants/{variantId}/metrics", h.Experiment.RecordVariantMetrics).Methods("POST")

	// Publishing
	api.HandleFunc("/publish/due", h.Publish.PublishDue).Methods("POST")

	// Reports
	api.HandleFunc("/reports/generate", h.Report.Generate).Methods("POST")
	api.HandleFunc("/reports/latest", h.Report.Latest).Methods("GET")
	api.HandleFunc("/reports/{weekStart}", h.Report.Get).Methods("GET")

	// Live job feed
	if hub != nil {
		ws := r.PathPrefix("/ws").Subrouter()
		ws.Use(authMiddleware(auth, log))
		ws.HandleFunc("/jobs", hub.ServeWS).Methods("GET")
	}

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(health HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "contentpulse-strategy",
		}
		status := http.StatusOK

		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				body["status"] = "degraded"
				body["error"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		respondJSON(w, status, body)
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithRequest(r).WithFields(map[string]interface{}{
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack keeps /ws/jobs upgradable through the middleware
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithRequest(r).WithField("panic", err).Error("Panic recovered")

					respondError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
