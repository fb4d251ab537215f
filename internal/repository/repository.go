package repository

import (
	"context"

	"github.com/utafrali/reviewmod/internal/domain"
)

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review with status pending.
	Create(ctx context.Context, userID, productID int64, rating int, reviewText string) (*domain.Review, error)

	// GetByID retrieves a review by its identifier.
	GetByID(ctx context.Context, id int64) (*domain.Review, error)

	// ListByProduct returns a product's reviews newest first. A nil status
	// returns every status.
	ListByProduct(ctx context.Context, productID int64, status *domain.ReviewStatus) ([]domain.Review, error)

	// ListByUser returns a user's reviews newest first.
	ListByUser(ctx context.Context, userID int64) ([]domain.Review, error)

	// ListByStatus returns reviews in the given status. Pending reviews are
	// returned oldest first, every other status newest first.
	ListByStatus(ctx context.Context, status domain.ReviewStatus) ([]domain.Review, error)

	// UpdateContent replaces rating and text without touching the status.
	UpdateContent(ctx context.Context, id int64, rating int, reviewText string) (*domain.Review, error)

	// UpdateStatus sets the moderation status.
	UpdateStatus(ctx context.Context, id int64, status domain.ReviewStatus) (*domain.Review, error)

	// UpdateContentAndResetStatus replaces rating and text and sets the status
	// back to pending in a single write.
	UpdateContentAndResetStatus(ctx context.Context, id int64, rating int, reviewText string) (*domain.Review, error)

	// Delete removes a review and its moderation actions. It reports false
	// when the review did not exist.
	Delete(ctx context.Context, id int64) (bool, error)

	// AverageApprovedRating returns the mean rating of approved reviews, or 0.
	AverageApprovedRating(ctx context.Context, productID int64) (float64, error)

	// CountByStatus counts a product's reviews in the given status.
	CountByStatus(ctx context.Context, productID int64, status domain.ReviewStatus) (int, error)
}

// ModerationActionRepository defines the interface for the moderation audit trail.
type ModerationActionRepository interface {
	// Create appends an audit record.
	Create(ctx context.Context, reviewID, moderatorID int64, action domain.ModerationActionType, notes string) (*domain.ModerationAction, error)

	// ListByReview returns a review's actions newest first.
	ListByReview(ctx context.Context, reviewID int64) ([]domain.ModerationAction, error)

	// ListByModerator returns a moderator's actions newest first.
	ListByModerator(ctx context.Context, moderatorID int64) ([]domain.ModerationAction, error)

	// Statistics aggregates the actions created inside window from one
	// consistent read.
	Statistics(ctx context.Context, window domain.TimeWindow) (*domain.ActionStatistics, error)
}

// UserRepository defines the user lookups the services need.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	IsModerator(ctx context.Context, id int64) (bool, error)
}

// ProductRepository looks up products by id.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

// ProductStore is the backend's own products table. Upsert keeps a local
// copy of a product owned by the catalog service so reviews can reference it.
type ProductStore interface {
	ProductRepository
	Upsert(ctx context.Context, p *domain.Product) error
}

// Moderator applies a moderation decision as one unit: the review status
// update and the audit insert either both persist or neither does.
type Moderator interface {
	ApplyDecision(ctx context.Context, reviewID, moderatorID int64, action domain.ModerationActionType, notes string) (*domain.Review, *domain.ModerationAction, error)
}

// Store groups every repository a backend provides.
type Store interface {
	Reviews() ReviewRepository
	Actions() ModerationActionRepository
	Users() UserRepository
	Products() ProductStore
	Moderator
}
