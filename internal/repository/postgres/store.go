// Package postgres implements the review store on PostgreSQL using pgx.
package postgres

import (
	"context"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/internal/repository"
	"github.com/utafrali/reviewmod/pkg/database"
	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

// Store implements repository.Store on a pgx connection pool.
type Store struct {
	pool     database.DBTX
	reviews  *ReviewRepository
	actions  *ModerationActionRepository
	users    *UserRepository
	products *ProductRepository
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a PostgreSQL-backed store.
func NewStore(pool database.DBTX) *Store {
	return &Store{
		pool:     pool,
		reviews:  NewReviewRepository(pool),
		actions:  NewModerationActionRepository(pool),
		users:    NewUserRepository(pool),
		products: NewProductRepository(pool),
	}
}

// Reviews returns the review repository.
func (s *Store) Reviews() repository.ReviewRepository { return s.reviews }

// Actions returns the moderation action repository.
func (s *Store) Actions() repository.ModerationActionRepository { return s.actions }

// Users returns the user repository.
func (s *Store) Users() repository.UserRepository { return s.users }

// Products returns the product repository.
func (s *Store) Products() repository.ProductStore { return s.products }

// ApplyDecision updates the review status and inserts the audit record in
// one transaction.
func (s *Store) ApplyDecision(ctx context.Context, reviewID, moderatorID int64, action domain.ModerationActionType, notes string) (_ *domain.Review, _ *domain.ModerationAction, err error) {
	status, ok := action.ResultingStatus()
	if !ok {
		return nil, nil, domain.ValidateModerationAction(action)
	}

	ctx, end := database.TraceQuery(ctx, "ApplyDecision", updateStatusQuery)
	defer func() { end(err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, database.StorageError("begin transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	review, err := scanReview(tx.QueryRow(ctx, updateStatusQuery, reviewID, status))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil, apperrors.NotFound("review", reviewID)
		}
		return nil, nil, database.StorageError("update review status", err)
	}

	ma, err := scanAction(tx.QueryRow(ctx, insertActionQuery, reviewID, moderatorID, action, notes))
	if err != nil {
		return nil, nil, database.StorageError("insert moderation action", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, database.StorageError("commit transaction", err)
	}

	return review, ma, nil
}
