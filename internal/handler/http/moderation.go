package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/internal/service"
	"github.com/utafrali/reviewmod/pkg/httputil"
)

// ModerationHandler handles HTTP requests for moderation endpoints.
type ModerationHandler struct {
	service *service.ModerationService
	logger  *slog.Logger
}

// NewModerationHandler creates a new moderation HTTP handler.
func NewModerationHandler(svc *service.ModerationService, logger *slog.Logger) *ModerationHandler {
	return &ModerationHandler{
		service: svc,
		logger:  logger,
	}
}

// DecisionRequest is the optional JSON body of reject and flag.
type DecisionRequest struct {
	Notes string `json:"notes" validate:"maxrunes=2000"`
}

// GetQueue handles GET /api/moderation/queue
func (h *ModerationHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.GetPendingQueue(r.Context(), actorID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteList(w, reviews)
}

// GetFlagged handles GET /api/moderation/flagged
func (h *ModerationHandler) GetFlagged(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.GetFlaggedReviews(r.Context(), actorID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteList(w, reviews)
}

// Approve handles POST /api/moderation/approve/{id}
func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "review id")
	if !ok {
		return
	}

	review, err := h.service.ApproveReview(r.Context(), id, actorID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, review)
}

// Reject handles POST /api/moderation/reject/{id}
func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.RejectReview)
}

// Flag handles POST /api/moderation/flag/{id}
func (h *ModerationHandler) Flag(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.FlagReview)
}

type decisionFunc func(ctx context.Context, reviewID, moderatorID int64, notes string) (*domain.Review, error)

func (h *ModerationHandler) decide(w http.ResponseWriter, r *http.Request, apply decisionFunc) {
	id, ok := pathID(w, r, "review id")
	if !ok {
		return
	}

	var req DecisionRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req, h.logger) {
		return
	}

	review, err := apply(r.Context(), id, actorID(r), req.Notes)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, review)
}

// GetHistory handles GET /api/moderation/history
func (h *ModerationHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	filter := service.HistoryFilter{Window: window}
	if raw := r.URL.Query().Get("filterModeratorId"); raw != "" {
		id, ok := httputil.ParseID(w, "filterModeratorId", raw)
		if !ok {
			return
		}
		filter.ModeratorID = &id
	}

	history, err := h.service.GetModerationHistory(r.Context(), actorID(r), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteList(w, history)
}

// GetStatistics handles GET /api/moderation/statistics
func (h *ModerationHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	stats, err := h.service.GetStatistics(r.Context(), actorID(r), window)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}

// GetReviewActions handles GET /api/reviews/{id}/actions
func (h *ModerationHandler) GetReviewActions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "review id")
	if !ok {
		return
	}

	actions, err := h.service.GetReviewActions(r.Context(), actorID(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteList(w, actions)
}
