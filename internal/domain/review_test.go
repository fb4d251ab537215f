package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

// ============================================================================
// Review Validation Tests
// ============================================================================

func TestValidateReview_Valid(t *testing.T) {
	for rating := MinRating; rating <= MaxRating; rating++ {
		assert.NoError(t, ValidateReview(rating, "Great product"))
	}
}

func TestValidateReview_RatingOutOfRange(t *testing.T) {
	for _, rating := range []int{-1, 0, 6, 100} {
		err := ValidateReview(rating, "text")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput), "rating %d", rating)
	}
}

func TestValidateReview_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		err := ValidateReview(3, text)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
}

func TestValidateReview_TextLengthLimit(t *testing.T) {
	assert.NoError(t, ValidateReview(4, strings.Repeat("a", MaxReviewTextLength)))

	err := ValidateReview(4, strings.Repeat("a", MaxReviewTextLength+1))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestValidateReview_CountsRunesNotBytes(t *testing.T) {
	// 5000 two-byte runes is within the limit.
	assert.NoError(t, ValidateReview(5, strings.Repeat("é", MaxReviewTextLength)))
}

// ============================================================================
// Review Status Tests
// ============================================================================

func TestReviewStatus_IsValid(t *testing.T) {
	for _, s := range ValidStatuses() {
		assert.True(t, s.IsValid())
	}
	assert.False(t, ReviewStatus("PENDING").IsValid())
	assert.False(t, ReviewStatus("").IsValid())
}

func TestCanTransitionTo_NoTerminalStates(t *testing.T) {
	for _, from := range ValidStatuses() {
		assert.True(t, from.CanTransitionTo(ReviewStatusPending), "%s -> pending", from)
		assert.True(t, from.CanTransitionTo(ReviewStatusApproved), "%s -> approved", from)
		assert.True(t, from.CanTransitionTo(ReviewStatusRejected), "%s -> rejected", from)
		assert.True(t, from.CanTransitionTo(ReviewStatusFlagged), "%s -> flagged", from)
	}
}

func TestCanTransitionTo_UnknownStatus(t *testing.T) {
	assert.False(t, ReviewStatus("archived").CanTransitionTo(ReviewStatusPending))
	assert.False(t, ReviewStatusPending.CanTransitionTo(ReviewStatus("archived")))
}

// ============================================================================
// Moderation Action Tests
// ============================================================================

func TestValidateModerationAction(t *testing.T) {
	for _, a := range ValidActions() {
		assert.NoError(t, ValidateModerationAction(a))
	}

	err := ValidateModerationAction("delete")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestResultingStatus(t *testing.T) {
	tests := map[ModerationActionType]ReviewStatus{
		ActionApprove: ReviewStatusApproved,
		ActionReject:  ReviewStatusRejected,
		ActionFlag:    ReviewStatusFlagged,
	}
	for action, want := range tests {
		got, ok := action.ResultingStatus()
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := ModerationActionType("escalate").ResultingStatus()
	assert.False(t, ok)
}

// ============================================================================
// Time Window Tests
// ============================================================================

func TestTimeWindow_Contains(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	w := TimeWindow{Start: &start, End: &end}

	assert.True(t, w.Contains(start), "start is inclusive")
	assert.True(t, w.Contains(end), "end is inclusive")
	assert.True(t, w.Contains(start.Add(24*time.Hour)))
	assert.False(t, w.Contains(start.Add(-time.Second)))
	assert.False(t, w.Contains(end.Add(time.Second)))

	assert.True(t, TimeWindow{}.Contains(time.Unix(0, 0)))
}

func TestTimeWindow_Validate(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	assert.NoError(t, TimeWindow{}.Validate())
	assert.NoError(t, TimeWindow{Start: &early, End: &late}.Validate())
	assert.ErrorIs(t, TimeWindow{Start: &late, End: &early}.Validate(), apperrors.ErrInvalidInput)
}

func TestRole(t *testing.T) {
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleModerator.IsValid())
	assert.False(t, Role("admin").IsValid())

	assert.True(t, (&User{Role: RoleModerator}).IsModerator())
	assert.False(t, (&User{Role: RoleUser}).IsModerator())
}
