package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/contentpulse/internal/report"
	"github.com/wonny/contentpulse/pkg/logger"
)

// ReportHandler serves weekly strategy reports
type ReportHandler struct {
	generator *report.Generator
	notifier  Notifier
	logger    *logger.Logger
}

// NewReportHandler creates a new report handler. notifier may be nil.
func NewReportHandler(g *report.Generator, notifier Notifier, log *logger.Logger) *ReportHandler {
	return &ReportHandler{generator: g, notifier: notifierOrNop(notifier), logger: log}
}

// Generate builds this week's report
// POST /api/reports/generate?persist=&compare=
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	persist, err := queryBool(r, "persist", true)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	compare, err := queryBool(r, "compare", true)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}

	rep, err := h.generator.Generate(r.Context(), persist, compare)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	if persist {
		h.notifier.Notify("strategy_report", rep)
	}
	respondJSON(w, http.StatusOK, rep)
}

// Latest returns the most recent persisted report
// GET /api/reports/latest
func (h *ReportHandler) Latest(w http.ResponseWriter, r *http.Request) {
	rep, err := h.generator.GetLatestReport(r.Context())
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

// Get returns the report for the week containing weekStart (YYYY-MM-DD)
// GET /api/reports/{weekStart}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	rep, err := h.generator.GetReport(r.Context(), mux.Vars(r)["weekStart"])
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}
