package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/pkg/database"
	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

const reviewColumns = `id, user_id, product_id, rating, review_text, status, created_at, updated_at`

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	if err := row.Scan(
		&rv.ID,
		&rv.UserID,
		&rv.ProductID,
		&rv.Rating,
		&rv.ReviewText,
		&rv.Status,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rv, nil
}

func collectReviews(rows pgx.Rows) ([]domain.Review, error) {
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

const insertReviewQuery = `
		INSERT INTO reviews (user_id, product_id, rating, review_text, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + reviewColumns

// Create inserts a new review with status pending.
func (r *ReviewRepository) Create(ctx context.Context, userID, productID int64, rating int, reviewText string) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, "CreateReview", insertReviewQuery)
	defer func() { end(err) }()

	review, err := scanReview(r.pool.QueryRow(ctx, insertReviewQuery,
		userID, productID, rating, reviewText, domain.ReviewStatusPending))
	if err != nil {
		return nil, database.StorageError("insert review", err)
	}
	return review, nil
}

const getReviewQuery = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

// GetByID retrieves a review by its identifier.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, "GetReview", getReviewQuery)
	defer func() { end(err) }()

	review, err := scanReview(r.pool.QueryRow(ctx, getReviewQuery, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, database.StorageError("get review", err)
	}
	return review, nil
}

const (
	listByProductQuery = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC`

	listByProductStatusQuery = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE product_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC`

	listByUserQuery = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	listPendingQuery = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE status = $1
		ORDER BY created_at ASC, id ASC`

	listByStatusQuery = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE status = $1
		ORDER BY created_at DESC, id DESC`
)

func (r *ReviewRepository) list(ctx context.Context, op, query string, args ...any) (_ []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, database.StorageError(op, err)
	}
	reviews, err := collectReviews(rows)
	if err != nil {
		return nil, database.StorageError(op, err)
	}
	return reviews, nil
}

// ListByProduct returns a product's reviews newest first, optionally
// restricted to one status.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID int64, status *domain.ReviewStatus) ([]domain.Review, error) {
	if status == nil {
		return r.list(ctx, "ListReviewsByProduct", listByProductQuery, productID)
	}
	return r.list(ctx, "ListReviewsByProduct", listByProductStatusQuery, productID, *status)
}

// ListByUser returns a user's reviews newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Review, error) {
	return r.list(ctx, "ListReviewsByUser", listByUserQuery, userID)
}

// ListByStatus returns reviews in a status. The pending queue is oldest first.
func (r *ReviewRepository) ListByStatus(ctx context.Context, status domain.ReviewStatus) ([]domain.Review, error) {
	if status == domain.ReviewStatusPending {
		return r.list(ctx, "ListPendingReviews", listPendingQuery, status)
	}
	return r.list(ctx, "ListReviewsByStatus", listByStatusQuery, status)
}

const (
	updateContentQuery = `
		UPDATE reviews
		SET rating = $2, review_text = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + reviewColumns

	updateStatusQuery = `
		UPDATE reviews
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + reviewColumns

	updateContentResetQuery = `
		UPDATE reviews
		SET rating = $2, review_text = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + reviewColumns
)

func (r *ReviewRepository) update(ctx context.Context, op, query string, id int64, args ...any) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	review, err := scanReview(r.pool.QueryRow(ctx, query, append([]any{id}, args...)...))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, database.StorageError(op, err)
	}
	return review, nil
}

// UpdateContent replaces rating and text.
func (r *ReviewRepository) UpdateContent(ctx context.Context, id int64, rating int, reviewText string) (*domain.Review, error) {
	return r.update(ctx, "UpdateReviewContent", updateContentQuery, id, rating, reviewText)
}

// UpdateStatus sets the moderation status.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id int64, status domain.ReviewStatus) (*domain.Review, error) {
	return r.update(ctx, "UpdateReviewStatus", updateStatusQuery, id, status)
}

// UpdateContentAndResetStatus replaces rating and text and sets the status
// back to pending in the same statement.
func (r *ReviewRepository) UpdateContentAndResetStatus(ctx context.Context, id int64, rating int, reviewText string) (*domain.Review, error) {
	return r.update(ctx, "EditReview", updateContentResetQuery, id, rating, reviewText, domain.ReviewStatusPending)
}

const deleteReviewQuery = `DELETE FROM reviews WHERE id = $1`

// Delete removes a review. Its moderation actions go with it through
// ON DELETE CASCADE.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) (_ bool, err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteReview", deleteReviewQuery)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, deleteReviewQuery, id)
	if err != nil {
		return false, database.StorageError("delete review", err)
	}
	return tag.RowsAffected() > 0, nil
}

const averageRatingQuery = `
		SELECT COALESCE(AVG(rating), 0)::float8
		FROM reviews
		WHERE product_id = $1 AND status = $2`

// AverageApprovedRating returns the mean rating of a product's approved reviews.
func (r *ReviewRepository) AverageApprovedRating(ctx context.Context, productID int64) (_ float64, err error) {
	ctx, end := database.TraceQuery(ctx, "AverageApprovedRating", averageRatingQuery)
	defer func() { end(err) }()

	var avg float64
	if err := r.pool.QueryRow(ctx, averageRatingQuery, productID, domain.ReviewStatusApproved).Scan(&avg); err != nil {
		return 0, database.StorageError("average approved rating", err)
	}
	return avg, nil
}

const countByStatusQuery = `SELECT COUNT(*) FROM reviews WHERE product_id = $1 AND status = $2`

// CountByStatus counts a product's reviews in a status.
func (r *ReviewRepository) CountByStatus(ctx context.Context, productID int64, status domain.ReviewStatus) (_ int, err error) {
	ctx, end := database.TraceQuery(ctx, "CountReviewsByStatus", countByStatusQuery)
	defer func() { end(err) }()

	var count int
	if err := r.pool.QueryRow(ctx, countByStatusQuery, productID, status).Scan(&count); err != nil {
		return 0, database.StorageError("count reviews by status", err)
	}
	return count, nil
}
