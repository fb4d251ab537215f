package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/internal/event"
	"github.com/utafrali/reviewmod/internal/guard"
	"github.com/utafrali/reviewmod/internal/repository"
)

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	UserID     int64
	ProductID  int64
	Rating     int
	ReviewText string
}

// UpdateReviewInput holds the new content of an edited review.
type UpdateReviewInput struct {
	Rating     int
	ReviewText string
}

// ReviewService implements the review lifecycle for end users.
type ReviewService struct {
	reviews  repository.ReviewRepository
	users    repository.UserRepository
	products repository.ProductRepository
	events   event.Publisher
	logger   *slog.Logger
}

// NewReviewService creates a new review service. products overrides the
// store's product lookup when non-nil.
func NewReviewService(store repository.Store, products repository.ProductRepository, events event.Publisher, logger *slog.Logger) *ReviewService {
	if products == nil {
		products = store.Products()
	}
	return &ReviewService{
		reviews:  store.Reviews(),
		users:    store.Users(),
		products: products,
		events:   events,
		logger:   logger,
	}
}

// CreateReview validates the input, checks that the user and product exist
// and stores a new pending review.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if err := domain.ValidateReview(input.Rating, input.ReviewText); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	review, err := s.reviews.Create(ctx, input.UserID, input.ProductID, input.Rating, input.ReviewText)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	reviewsCreatedTotal.Inc()

	if err := s.events.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.Int64("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.Int64("review_id", review.ID),
		slog.Int64("product_id", review.ProductID),
		slog.Int64("user_id", review.UserID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// UpdateReview replaces the content of the actor's own review and sends it
// back to the moderation queue, whatever its previous status.
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID, actorID int64, input *UpdateReviewInput) (*domain.Review, error) {
	existing, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if err := guard.RequireOwner(existing, actorID); err != nil {
		return nil, err
	}
	if err := domain.ValidateReview(input.Rating, input.ReviewText); err != nil {
		return nil, err
	}

	review, err := s.reviews.UpdateContentAndResetStatus(ctx, reviewID, input.Rating, input.ReviewText)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	reviewEditsTotal.Inc()

	if err := s.events.PublishReviewUpdated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.updated event",
			slog.Int64("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.Int64("review_id", review.ID),
		slog.String("previous_status", string(existing.Status)),
	)

	return review, nil
}

// DeleteReview removes the actor's own review together with its audit trail.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, actorID int64) (bool, error) {
	existing, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	if err := guard.RequireOwner(existing, actorID); err != nil {
		return false, err
	}

	deleted, err := s.reviews.Delete(ctx, reviewID)
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	if !deleted {
		return false, nil
	}

	if err := s.events.PublishReviewDeleted(ctx, existing); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.Int64("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted", slog.Int64("review_id", reviewID))
	return true, nil
}

// GetReview returns a review by id.
func (s *ReviewService) GetReview(ctx context.Context, reviewID int64) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// GetProduct returns a product by id.
func (s *ReviewService) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// GetProductReviews returns the approved reviews of a product, newest first.
func (s *ReviewService) GetProductReviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product reviews: %w", err)
	}

	approved := domain.ReviewStatusApproved
	reviews, err := s.reviews.ListByProduct(ctx, productID, &approved)
	if err != nil {
		return nil, fmt.Errorf("get product reviews: %w", err)
	}
	return reviews, nil
}

// GetUserReviews returns every review a user wrote, newest first.
func (s *ReviewService) GetUserReviews(ctx context.Context, userID int64) ([]domain.Review, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("get user reviews: %w", err)
	}

	reviews, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user reviews: %w", err)
	}
	return reviews, nil
}

// GetProductStatistics returns the average approved rating and the number of
// approved reviews of a product.
func (s *ReviewService) GetProductStatistics(ctx context.Context, productID int64) (*domain.ProductRating, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product statistics: %w", err)
	}

	avg, err := s.reviews.AverageApprovedRating(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product statistics: %w", err)
	}
	count, err := s.reviews.CountByStatus(ctx, productID, domain.ReviewStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("get product statistics: %w", err)
	}

	return &domain.ProductRating{
		ProductID:     product.ID,
		ProductName:   product.Name,
		AverageRating: RoundTo2(avg),
		ReviewCount:   count,
	}, nil
}
