package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

// Rating bounds and review text limit.
const (
	MinRating           = 1
	MaxRating           = 5
	MaxReviewTextLength = 5000
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

// Review status constants.
const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
	ReviewStatusFlagged  ReviewStatus = "flagged"
)

// ValidStatuses returns all valid review statuses.
func ValidStatuses() []ReviewStatus {
	return []ReviewStatus{
		ReviewStatusPending,
		ReviewStatusApproved,
		ReviewStatusRejected,
		ReviewStatusFlagged,
	}
}

// IsValid reports whether s is a known review status.
func (s ReviewStatus) IsValid() bool {
	for _, v := range ValidStatuses() {
		if v == s {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which status transitions are valid. An owner
// edit moves any status back to pending; a moderator decision moves any
// status to approved, rejected or flagged. No status is terminal.
func AllowedTransitions() map[ReviewStatus][]ReviewStatus {
	decided := []ReviewStatus{ReviewStatusApproved, ReviewStatusRejected, ReviewStatusFlagged}
	return map[ReviewStatus][]ReviewStatus{
		ReviewStatusPending:  {ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected, ReviewStatusFlagged},
		ReviewStatusApproved: append([]ReviewStatus{ReviewStatusPending}, decided...),
		ReviewStatusRejected: append([]ReviewStatus{ReviewStatusPending}, decided...),
		ReviewStatusFlagged:  append([]ReviewStatus{ReviewStatusPending}, decided...),
	}
}

// CanTransitionTo checks if a review in status s may move to target.
func (s ReviewStatus) CanTransitionTo(target ReviewStatus) bool {
	for _, allowed := range AllowedTransitions()[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Review is a user's rating and text for a product.
type Review struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"user_id"`
	ProductID  int64        `json:"product_id"`
	Rating     int          `json:"rating"`
	ReviewText string       `json:"review_text"`
	Status     ReviewStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// ValidateReview checks the rating range and the review text.
func ValidateReview(rating int, reviewText string) error {
	if rating < MinRating || rating > MaxRating {
		return apperrors.InvalidInput("rating must be an integer between 1 and 5")
	}
	if strings.TrimSpace(reviewText) == "" {
		return apperrors.InvalidInput("review text cannot be empty")
	}
	if utf8.RuneCountInString(reviewText) > MaxReviewTextLength {
		return apperrors.InvalidInput("review text cannot exceed 5000 characters")
	}
	return nil
}
