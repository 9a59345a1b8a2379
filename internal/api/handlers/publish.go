package handlers

import (
	"net/http"

	"github.com/wonny/contentpulse/internal/publish"
	"github.com/wonny/contentpulse/pkg/logger"
)

// PublishHandler triggers publication of due scheduled posts
type PublishHandler struct {
	scheduler *publish.Scheduler
	notifier  Notifier
	logger    *logger.Logger
}

// NewPublishHandler creates a new publish handler. notifier may be nil.
func NewPublishHandler(s *publish.Scheduler, notifier Notifier, log *logger.Logger) *PublishHandler {
	return &PublishHandler{scheduler: s, notifier: notifierOrNop(notifier), logger: log}
}

// PublishDue publishes up to limit due posts, oldest first
// POST /api/publish/due?limit=
func (h *PublishHandler) PublishDue(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", publish.DefaultLimit)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}

	result, err := h.scheduler.PublishDueScheduledPosts(r.Context(), limit)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	h.notifier.Notify("publish_due", result)
	respondJSON(w, http.StatusOK, result)
}
