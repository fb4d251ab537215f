package service

import (
	"context"
	"fmt"
	"math"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/internal/repository"
)

// RoundTo2 rounds v to two decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// StatisticsService turns the raw audit aggregate into moderation statistics.
type StatisticsService struct {
	actions repository.ModerationActionRepository
}

// NewStatisticsService creates a statistics aggregator reading from actions.
func NewStatisticsService(actions repository.ModerationActionRepository) *StatisticsService {
	return &StatisticsService{actions: actions}
}

// Compute returns action counts, approval rate and average processing time
// for actions created inside window. An empty window covers all time.
func (s *StatisticsService) Compute(ctx context.Context, window domain.TimeWindow) (*domain.ModerationStatistics, error) {
	raw, err := s.actions.Statistics(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("compute moderation statistics: %w", err)
	}

	counts := domain.ActionCounts{
		Approve: raw.Counts[domain.ActionApprove],
		Reject:  raw.Counts[domain.ActionReject],
		Flag:    raw.Counts[domain.ActionFlag],
	}

	var approvalRate float64
	if raw.ApproveRejectCount > 0 {
		approvalRate = float64(raw.ApprovedCount) / float64(raw.ApproveRejectCount) * 100
	}

	return &domain.ModerationStatistics{
		ActionCounts:             counts,
		TotalActions:             counts.Approve + counts.Reject + counts.Flag,
		ApprovalRate:             RoundTo2(approvalRate),
		AverageProcessingMinutes: RoundTo2(raw.AverageProcessingMinutes),
		DateRange:                window,
	}, nil
}
