package handlers

import (
	"net/http"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/internal/strategyconfig"
	"github.com/wonny/contentpulse/pkg/logger"
)

// StrategyHandler serves the versioned strategy config
// ⭐ SSOT: 전략 설정 API 핸들러는 이 구조체에서만
type StrategyHandler struct {
	store  *strategyconfig.Store
	logger *logger.Logger
}

// NewStrategyHandler creates a new strategy config handler
func NewStrategyHandler(store *strategyconfig.Store, log *logger.Logger) *StrategyHandler {
	return &StrategyHandler{store: store, logger: log}
}

// GetConfig returns the current config, creating it from defaults on first use
// GET /api/strategy/config
func (h *StrategyHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.GetCurrentConfig(r.Context())
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// UpdateConfig merges a partial update into a new version
// PUT /api/strategy/config
func (h *StrategyHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var update contracts.StrategyConfigUpdate
	if err := decodeBody(r, &update); err != nil {
		respondErr(w, h.logger, err)
		return
	}

	cfg, err := h.store.UpdateConfig(r.Context(), update)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// History lists config versions, newest first
// GET /api/strategy/config/history?limit=
func (h *StrategyHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}

	list, err := h.store.History(r.Context(), limit)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"versions": list})
}
