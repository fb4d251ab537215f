package memory

import (
	"context"

	"github.com/utafrali/reviewmod/internal/domain"
	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

type actionRepo struct {
	s *Store
}

func (r actionRepo) Create(_ context.Context, reviewID, moderatorID int64, action domain.ModerationActionType, notes string) (*domain.ModerationAction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[reviewID]; !ok {
		return nil, apperrors.Storage("insert moderation action", errForeignKey("moderation_actions.review_id", reviewID), false)
	}
	if _, ok := r.s.users[moderatorID]; !ok {
		return nil, apperrors.Storage("insert moderation action", errForeignKey("moderation_actions.moderator_id", moderatorID), false)
	}

	r.s.lastActionID++
	ma := domain.ModerationAction{
		ID:          r.s.lastActionID,
		ReviewID:    reviewID,
		ModeratorID: moderatorID,
		Action:      action,
		Notes:       notes,
		CreatedAt:   r.s.now(),
	}
	r.s.actions[ma.ID] = ma
	return &ma, nil
}

func (r actionRepo) list(match func(domain.ModerationAction) bool) []domain.ModerationAction {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	actions := []domain.ModerationAction{}
	for _, a := range r.s.actions {
		if match(a) {
			actions = append(actions, a)
		}
	}
	newestFirst(actions, actionTime, actionKey)
	return actions
}

func (r actionRepo) ListByReview(_ context.Context, reviewID int64) ([]domain.ModerationAction, error) {
	return r.list(func(a domain.ModerationAction) bool { return a.ReviewID == reviewID }), nil
}

func (r actionRepo) ListByModerator(_ context.Context, moderatorID int64) ([]domain.ModerationAction, error) {
	return r.list(func(a domain.ModerationAction) bool { return a.ModeratorID == moderatorID }), nil
}

// Statistics reads actions and reviews under one read lock.
func (r actionRepo) Statistics(_ context.Context, window domain.TimeWindow) (*domain.ActionStatistics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &domain.ActionStatistics{Counts: make(map[domain.ModerationActionType]int)}
	var totalMinutes float64
	for _, a := range r.s.actions {
		if !window.Contains(a.CreatedAt) {
			continue
		}
		stats.Counts[a.Action]++

		if a.Action != domain.ActionApprove && a.Action != domain.ActionReject {
			continue
		}
		review, ok := r.s.reviews[a.ReviewID]
		if !ok {
			continue
		}
		if a.Action == domain.ActionApprove {
			stats.ApprovedCount++
		}
		stats.ApproveRejectCount++
		totalMinutes += a.CreatedAt.Sub(review.CreatedAt).Minutes()
	}

	if stats.ApproveRejectCount > 0 {
		stats.AverageProcessingMinutes = totalMinutes / float64(stats.ApproveRejectCount)
	}
	return stats, nil
}
