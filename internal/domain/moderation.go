package domain

import (
	"time"

	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

// ModerationActionType is a moderator decision recorded in the audit trail.
type ModerationActionType string

// Moderation action constants.
const (
	ActionApprove ModerationActionType = "approve"
	ActionReject  ModerationActionType = "reject"
	ActionFlag    ModerationActionType = "flag"
)

// ValidActions returns all valid moderation actions.
func ValidActions() []ModerationActionType {
	return []ModerationActionType{ActionApprove, ActionReject, ActionFlag}
}

// IsValid reports whether a is a known moderation action.
func (a ModerationActionType) IsValid() bool {
	for _, v := range ValidActions() {
		if v == a {
			return true
		}
	}
	return false
}

// ResultingStatus returns the review status an action produces. The second
// result is false for unknown actions.
func (a ModerationActionType) ResultingStatus() (ReviewStatus, bool) {
	switch a {
	case ActionApprove:
		return ReviewStatusApproved, true
	case ActionReject:
		return ReviewStatusRejected, true
	case ActionFlag:
		return ReviewStatusFlagged, true
	default:
		return "", false
	}
}

// ValidateModerationAction rejects unknown actions.
func ValidateModerationAction(action ModerationActionType) error {
	if !action.IsValid() {
		return apperrors.InvalidInput("action must be one of: approve, reject, flag")
	}
	return nil
}

// ModerationAction is an append-only audit record of one moderator decision.
// Action matched the review's status when the row was written; later edits
// or decisions do not rewrite it.
type ModerationAction struct {
	ID          int64                `json:"id"`
	ReviewID    int64                `json:"review_id"`
	ModeratorID int64                `json:"moderator_id"`
	Action      ModerationActionType `json:"action"`
	Notes       string               `json:"notes"`
	CreatedAt   time.Time            `json:"created_at"`
}

// TimeWindow bounds a query by creation time. Both ends are inclusive and
// either may be nil for an open bound.
type TimeWindow struct {
	Start *time.Time `json:"start_date"`
	End   *time.Time `json:"end_date"`
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// Validate rejects a window whose start is after its end.
func (w TimeWindow) Validate() error {
	if w.Start != nil && w.End != nil && w.Start.After(*w.End) {
		return apperrors.InvalidInput("start date must not be after end date")
	}
	return nil
}

// ActionStatistics is the raw aggregate read from the audit trail.
type ActionStatistics struct {
	Counts                   map[ModerationActionType]int
	ApprovedCount            int
	ApproveRejectCount       int
	AverageProcessingMinutes float64
}

// ActionCounts holds the per-action breakdown of moderation statistics.
type ActionCounts struct {
	Approve int `json:"approve"`
	Reject  int `json:"reject"`
	Flag    int `json:"flag"`
}

// ModerationStatistics summarises moderator activity over a time window.
type ModerationStatistics struct {
	ActionCounts             ActionCounts `json:"action_counts"`
	TotalActions             int          `json:"total_actions"`
	ApprovalRate             float64      `json:"approval_rate"`
	AverageProcessingMinutes float64      `json:"average_processing_minutes"`
	DateRange                TimeWindow   `json:"date_range"`
}

// ReviewSnapshot is the shortened review attached to a history entry.
type ReviewSnapshot struct {
	ID         int64        `json:"id"`
	ProductID  int64        `json:"product_id"`
	Rating     int          `json:"rating"`
	ReviewText string       `json:"review_text"`
	Status     ReviewStatus `json:"status"`
}

// HistoryEntry is a moderation action enriched for display.
type HistoryEntry struct {
	ModerationAction
	ModeratorUsername string          `json:"moderator_username"`
	Review            *ReviewSnapshot `json:"review"`
}
