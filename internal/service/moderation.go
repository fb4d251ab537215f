package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/internal/event"
	"github.com/utafrali/reviewmod/internal/guard"
	"github.com/utafrali/reviewmod/internal/repository"
	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

// snapshotTextLength is the number of runes of review text kept in history entries.
const snapshotTextLength = 100

// HistoryFilter narrows a moderation history query.
type HistoryFilter struct {
	Window domain.TimeWindow
	// ModeratorID selects another moderator's actions. Nil means the caller's.
	ModeratorID *int64
}

// ModerationService implements the moderator-facing workflow.
type ModerationService struct {
	store  repository.Store
	stats  *StatisticsService
	events event.Publisher
	logger *slog.Logger
}

// NewModerationService creates a new moderation service.
func NewModerationService(store repository.Store, stats *StatisticsService, events event.Publisher, logger *slog.Logger) *ModerationService {
	return &ModerationService{
		store:  store,
		stats:  stats,
		events: events,
		logger: logger,
	}
}

// GetPendingQueue returns pending reviews, oldest first.
func (s *ModerationService) GetPendingQueue(ctx context.Context, moderatorID int64) ([]domain.Review, error) {
	if _, err := guard.RequireModerator(ctx, s.store.Users(), moderatorID); err != nil {
		return nil, err
	}
	reviews, err := s.store.Reviews().ListByStatus(ctx, domain.ReviewStatusPending)
	if err != nil {
		return nil, fmt.Errorf("get pending queue: %w", err)
	}
	return reviews, nil
}

// GetFlaggedReviews returns flagged reviews, newest first.
func (s *ModerationService) GetFlaggedReviews(ctx context.Context, moderatorID int64) ([]domain.Review, error) {
	if _, err := guard.RequireModerator(ctx, s.store.Users(), moderatorID); err != nil {
		return nil, err
	}
	reviews, err := s.store.Reviews().ListByStatus(ctx, domain.ReviewStatusFlagged)
	if err != nil {
		return nil, fmt.Errorf("get flagged reviews: %w", err)
	}
	return reviews, nil
}

// ApproveReview marks a review approved.
func (s *ModerationService) ApproveReview(ctx context.Context, reviewID, moderatorID int64) (*domain.Review, error) {
	return s.moderate(ctx, reviewID, moderatorID, domain.ActionApprove, "")
}

// RejectReview marks a review rejected.
func (s *ModerationService) RejectReview(ctx context.Context, reviewID, moderatorID int64, notes string) (*domain.Review, error) {
	return s.moderate(ctx, reviewID, moderatorID, domain.ActionReject, notes)
}

// FlagReview marks a review flagged for further attention.
func (s *ModerationService) FlagReview(ctx context.Context, reviewID, moderatorID int64, notes string) (*domain.Review, error) {
	return s.moderate(ctx, reviewID, moderatorID, domain.ActionFlag, notes)
}

func (s *ModerationService) moderate(ctx context.Context, reviewID, moderatorID int64, action domain.ModerationActionType, notes string) (*domain.Review, error) {
	if _, err := guard.RequireModerator(ctx, s.store.Users(), moderatorID); err != nil {
		return nil, err
	}

	existing, err := s.store.Reviews().GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("%s review: %w", action, err)
	}
	if err := guard.ForbidSelfModeration(existing, moderatorID); err != nil {
		return nil, err
	}

	review, ma, err := s.store.ApplyDecision(ctx, reviewID, moderatorID, action, notes)
	if err != nil {
		return nil, fmt.Errorf("%s review: %w", action, err)
	}
	moderationDecisionsTotal.WithLabelValues(string(action)).Inc()

	if err := s.events.PublishReviewModerated(ctx, review, ma); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.moderated event",
			slog.Int64("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review moderated",
		slog.Int64("review_id", review.ID),
		slog.Int64("moderator_id", moderatorID),
		slog.String("action", string(action)),
		slog.String("previous_status", string(existing.Status)),
	)

	return review, nil
}

// GetModerationHistory returns the actions of filter.ModeratorID, or of the
// caller when unset, inside the filter window. Each entry carries the
// moderator's username and a shortened copy of the review.
func (s *ModerationService) GetModerationHistory(ctx context.Context, moderatorID int64, filter HistoryFilter) ([]domain.HistoryEntry, error) {
	if _, err := guard.RequireModerator(ctx, s.store.Users(), moderatorID); err != nil {
		return nil, err
	}
	if err := filter.Window.Validate(); err != nil {
		return nil, err
	}

	target := moderatorID
	if filter.ModeratorID != nil {
		target = *filter.ModeratorID
	}

	actions, err := s.store.Actions().ListByModerator(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("get moderation history: %w", err)
	}

	usernames := make(map[int64]string)
	entries := make([]domain.HistoryEntry, 0, len(actions))
	for _, a := range actions {
		if !filter.Window.Contains(a.CreatedAt) {
			continue
		}

		entry := domain.HistoryEntry{ModerationAction: a}

		name, ok := usernames[a.ModeratorID]
		if !ok {
			u, err := s.store.Users().GetByID(ctx, a.ModeratorID)
			if err != nil {
				return nil, fmt.Errorf("get moderation history: %w", err)
			}
			name = u.Username
			usernames[a.ModeratorID] = name
		}
		entry.ModeratorUsername = name

		review, err := s.store.Reviews().GetByID(ctx, a.ReviewID)
		switch {
		case err == nil:
			entry.Review = &domain.ReviewSnapshot{
				ID:         review.ID,
				ProductID:  review.ProductID,
				Rating:     review.Rating,
				ReviewText: truncate(review.ReviewText, snapshotTextLength),
				Status:     review.Status,
			}
		case errors.Is(err, apperrors.ErrNotFound):
			// The review was deleted after the action was listed.
		default:
			return nil, fmt.Errorf("get moderation history: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// GetStatistics returns moderation statistics for window.
func (s *ModerationService) GetStatistics(ctx context.Context, moderatorID int64, window domain.TimeWindow) (*domain.ModerationStatistics, error) {
	if _, err := guard.RequireModerator(ctx, s.store.Users(), moderatorID); err != nil {
		return nil, err
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	return s.stats.Compute(ctx, window)
}

// GetReviewActions returns the audit trail of one review, newest first.
func (s *ModerationService) GetReviewActions(ctx context.Context, moderatorID, reviewID int64) ([]domain.ModerationAction, error) {
	if _, err := guard.RequireModerator(ctx, s.store.Users(), moderatorID); err != nil {
		return nil, err
	}
	if _, err := s.store.Reviews().GetByID(ctx, reviewID); err != nil {
		return nil, fmt.Errorf("get review actions: %w", err)
	}

	actions, err := s.store.Actions().ListByReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review actions: %w", err)
	}
	return actions, nil
}

// truncate shortens s to n runes, appending "..." when anything was cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
