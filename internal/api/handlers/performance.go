package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/internal/performance"
	"github.com/wonny/contentpulse/pkg/logger"
)

// PerformanceHandler serves scoring triggers, score reads and metric ingestion
type PerformanceHandler struct {
	scorer   *performance.Scorer
	notifier Notifier
	logger   *logger.Logger
}

// NewPerformanceHandler creates a new performance handler. notifier may be nil.
func NewPerformanceHandler(scorer *performance.Scorer, notifier Notifier, log *logger.Logger) *PerformanceHandler {
	return &PerformanceHandler{scorer: scorer, notifier: notifierOrNop(notifier), logger: log}
}

// Calculate rescores every published post
// POST /api/performance/calculate
func (h *PerformanceHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	result, err := h.scorer.CalculateAll(r.Context())
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	h.notifier.Notify("performance_scoring", result)
	respondJSON(w, http.StatusOK, result)
}

// Get returns one post's latest scores
// GET /api/performance/{postId}
func (h *PerformanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	perf, err := h.scorer.GetPerformance(r.Context(), mux.Vars(r)["postId"])
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, perf)
}

// List returns top or bottom performers
// GET /api/performance?order=top|bottom&limit=
func (h *PerformanceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}

	order := contracts.SortOrder(r.URL.Query().Get("order"))
	list, err := h.scorer.ListPerformance(r.Context(), order, limit)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"performance": list})
}

// RecordMetrics ingests one day of post metrics
// POST /api/metrics
func (h *PerformanceHandler) RecordMetrics(w http.ResponseWriter, r *http.Request) {
	var m contracts.PostMetrics
	if err := decodeBody(r, &m); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	if err := h.scorer.RecordMetrics(r.Context(), m); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{"success": true})
}

// RecordRevenue ingests one day of post revenue
// POST /api/revenue
func (h *PerformanceHandler) RecordRevenue(w http.ResponseWriter, r *http.Request) {
	var rev contracts.PostRevenue
	if err := decodeBody(r, &rev); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	if err := h.scorer.RecordRevenue(r.Context(), rev); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{"success": true})
}
