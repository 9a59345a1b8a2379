package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/contentpulse/internal/opportunity"
	"github.com/wonny/contentpulse/pkg/logger"
)

// OpportunityHandler serves keyword opportunity scoring and triage
type OpportunityHandler struct {
	calc     *opportunity.Calculator
	notifier Notifier
	logger   *logger.Logger
}

// NewOpportunityHandler creates a new opportunity handler. notifier may be nil.
func NewOpportunityHandler(calc *opportunity.Calculator, notifier Notifier, log *logger.Logger) *OpportunityHandler {
	return &OpportunityHandler{calc: calc, notifier: notifierOrNop(notifier), logger: log}
}

// CalculateRequest optionally restricts a recompute to some keywords
type CalculateRequest struct {
	Keywords []string `json:"keywords"`
}

// Calculate recomputes opportunity scores
// POST /api/opportunities/calculate
func (h *OpportunityHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			respondErr(w, h.logger, err)
			return
		}
	}

	result, err := h.calc.CalculateOpportunities(r.Context(), req.Keywords)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	h.notifier.Notify("opportunity_refresh", result)
	respondJSON(w, http.StatusOK, result)
}

// Top lists pending opportunities by score
// GET /api/opportunities/top?limit=&minScore=
func (h *OpportunityHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	minScore, err := queryFloat(r, "minScore", 0)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}

	list, err := h.calc.GetTopOpportunities(r.Context(), limit, minScore)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"opportunities": list})
}

// Get returns one opportunity with its signal snapshot
// GET /api/opportunities/{id}
func (h *OpportunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	opp, err := h.calc.GetOpportunity(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, opp)
}

// Action marks an opportunity as actioned
// POST /api/opportunities/{id}/action
func (h *OpportunityHandler) Action(w http.ResponseWriter, r *http.Request) {
	ok, err := h.calc.MarkActioned(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": ok})
}

// Dismiss marks an opportunity as dismissed
// POST /api/opportunities/{id}/dismiss
func (h *OpportunityHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	ok, err := h.calc.Dismiss(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": ok})
}
