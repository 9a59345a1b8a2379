package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/internal/experiment"
	"github.com/wonny/contentpulse/pkg/logger"
)

// ExperimentHandler serves A/B experiment lifecycle endpoints
type ExperimentHandler struct {
	engine *experiment.Engine
	logger *logger.Logger
}

// NewExperimentHandler creates a new experiment handler
func NewExperimentHandler(engine *experiment.Engine, log *logger.Logger) *ExperimentHandler {
	return &ExperimentHandler{engine: engine, logger: log}
}

// Create starts a new running experiment
// POST /api/experiments
func (h *ExperimentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in contracts.NewExperiment
	if err := decodeBody(r, &in); err != nil {
		respondErr(w, h.logger, err)
		return
	}

	exp, err := h.engine.Create(r.Context(), in)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, exp)
}

// List returns experiments, optionally filtered by status
// GET /api/experiments?status=
func (h *ExperimentHandler) List(w http.ResponseWriter, r *http.Request) {
	status := contracts.ExperimentStatus(r.URL.Query().Get("status"))
	list, err := h.engine.GetAll(r.Context(), status)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"experiments": list})
}

// Get returns one experiment
// GET /api/experiments/{id}
func (h *ExperimentHandler) Get(w http.ResponseWriter, r *http.Request) {
	exp, err := h.engine.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, exp)
}

// ConcludeRequest names the winning variant
type ConcludeRequest struct {
	WinnerVariantID string `json:"winner_variant_id"`
}

// Conclude finishes a running experiment with a winner
// POST /api/experiments/{id}/conclude
func (h *ExperimentHandler) Conclude(w http.ResponseWriter, r *http.Request) {
	var req ConcludeRequest
	if err := decodeBody(r, &req); err != nil {
		respondErr(w, h.logger, err)
		return
	}

	exp, err := h.engine.Conclude(r.Context(), mux.Vars(r)["id"], req.WinnerVariantID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, exp)
}

// Cancel finishes a running experiment without a winner
// POST /api/experiments/{id}/cancel
func (h *ExperimentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	exp, err := h.engine.Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, exp)
}

// RecordVariantMetrics replaces one variant's observed metrics
// POST /api/experiments/{id}/variants/{variantId}/metrics
func (h *ExperimentHandler) RecordVariantMetrics(w http.ResponseWriter, r *http.Request) {
	var m contracts.VariantMetrics
	if err := decodeBody(r, &m); err != nil {
		respondErr(w, h.logger, err)
		return
	}

	vars := mux.Vars(r)
	exp, err := h.engine.RecordVariantMetrics(r.Context(), vars["id"], vars["variantId"], m)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, exp)
}
