package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/reviewmod/internal/domain"
	pkgkafka "github.com/utafrali/reviewmod/pkg/kafka"
	"github.com/utafrali/reviewmod/pkg/logger"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewCreated   = "reviewmod.review.created"
	TopicReviewUpdated   = "reviewmod.review.updated"
	TopicReviewDeleted   = "reviewmod.review.deleted"
	TopicReviewModerated = "reviewmod.review.moderated"
)

// AggregateTypeReview is the aggregate type of every review event.
const AggregateTypeReview = "review"

// SourceReviewService identifies events originating from this service.
const SourceReviewService = "review-service"

// Publisher publishes review lifecycle events.
type Publisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishReviewUpdated(ctx context.Context, review *domain.Review) error
	PublishReviewDeleted(ctx context.Context, review *domain.Review) error
	PublishReviewModerated(ctx context.Context, review *domain.Review, action *domain.ModerationAction) error
}

// ReviewData is the payload for review.created and review.updated events.
type ReviewData struct {
	ID        int64               `json:"id"`
	UserID    int64               `json:"user_id"`
	ProductID int64               `json:"product_id"`
	Rating    int                 `json:"rating"`
	Status    domain.ReviewStatus `json:"status"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID        int64 `json:"id"`
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
}

// ReviewModeratedData is the payload for a review.moderated event.
type ReviewModeratedData struct {
	ReviewID    int64                       `json:"review_id"`
	ProductID   int64                       `json:"product_id"`
	ModeratorID int64                       `json:"moderator_id"`
	ActionID    int64                       `json:"action_id"`
	Action      domain.ModerationActionType `json:"action"`
	Status      domain.ReviewStatus         `json:"status"`
	Notes       string                      `json:"notes,omitempty"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

var _ Publisher = (*Producer)(nil)

// NewProducer creates a new event producer for the review service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic string, reviewID int64, occurredAt time.Time, data any) error {
	meta := pkgkafka.EventMeta{
		Type:          topic,
		AggregateType: AggregateTypeReview,
		AggregateID:   reviewID,
		Source:        SourceReviewService,
		OccurredAt:    occurredAt,
		CorrelationID: logger.CorrelationIDFromContext(ctx),
	}
	if actor, ok := logger.ActorIDFromContext(ctx); ok {
		meta.ActorID = actor
	}
	event, err := pkgkafka.NewEvent(meta, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.Int64("review_id", reviewID),
	)
	return nil
}

func reviewData(r *domain.Review) ReviewData {
	return ReviewData{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Status:    r.Status,
		UpdatedAt: r.UpdatedAt,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, review.ID, review.UpdatedAt, reviewData(review))
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewUpdated, review.ID, review.UpdatedAt, reviewData(review))
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewDeleted, review.ID, time.Time{}, ReviewDeletedData{
		ID:        review.ID,
		UserID:    review.UserID,
		ProductID: review.ProductID,
	})
}

// PublishReviewModerated publishes a review.moderated event.
func (p *Producer) PublishReviewModerated(ctx context.Context, review *domain.Review, action *domain.ModerationAction) error {
	return p.publish(ctx, TopicReviewModerated, review.ID, action.CreatedAt, ReviewModeratedData{
		ReviewID:    review.ID,
		ProductID:   review.ProductID,
		ModeratorID: action.ModeratorID,
		ActionID:    action.ID,
		Action:      action.Action,
		Status:      review.Status,
		Notes:       action.Notes,
	})
}

// NoopPublisher drops every event. It is used when event publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishReviewCreated(context.Context, *domain.Review) error { return nil }
func (NoopPublisher) PublishReviewUpdated(context.Context, *domain.Review) error { return nil }
func (NoopPublisher) PublishReviewDeleted(context.Context, *domain.Review) error { return nil }
func (NoopPublisher) PublishReviewModerated(context.Context, *domain.Review, *domain.ModerationAction) error {
	return nil
}
