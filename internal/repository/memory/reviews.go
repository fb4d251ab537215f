package memory

import (
	"context"

	"github.com/utafrali/reviewmod/internal/domain"
	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

type reviewRepo struct {
	s *Store
}

func (r reviewRepo) Create(_ context.Context, userID, productID int64, rating int, reviewText string) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return nil, apperrors.Storage("insert review", errForeignKey("reviews.user_id", userID), false)
	}
	if _, ok := r.s.products[productID]; !ok {
		return nil, apperrors.Storage("insert review", errForeignKey("reviews.product_id", productID), false)
	}

	now := r.s.now()
	r.s.lastReviewID++
	review := domain.Review{
		ID:         r.s.lastReviewID,
		UserID:     userID,
		ProductID:  productID,
		Rating:     rating,
		ReviewText: reviewText,
		Status:     domain.ReviewStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.s.reviews[review.ID] = review
	return &review, nil
}

func (r reviewRepo) GetByID(_ context.Context, id int64) (*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	review, ok := r.s.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	return &review, nil
}

func (r reviewRepo) filter(match func(domain.Review) bool) []domain.Review {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reviews := []domain.Review{}
	for _, rv := range r.s.reviews {
		if match(rv) {
			reviews = append(reviews, rv)
		}
	}
	return reviews
}

func (r reviewRepo) ListByProduct(_ context.Context, productID int64, status *domain.ReviewStatus) ([]domain.Review, error) {
	reviews := r.filter(func(rv domain.Review) bool {
		return rv.ProductID == productID && (status == nil || rv.Status == *status)
	})
	newestFirst(reviews, reviewTime, reviewKey)
	return reviews, nil
}

func (r reviewRepo) ListByUser(_ context.Context, userID int64) ([]domain.Review, error) {
	reviews := r.filter(func(rv domain.Review) bool { return rv.UserID == userID })
	newestFirst(reviews, reviewTime, reviewKey)
	return reviews, nil
}

func (r reviewRepo) ListByStatus(_ context.Context, status domain.ReviewStatus) ([]domain.Review, error) {
	reviews := r.filter(func(rv domain.Review) bool { return rv.Status == status })
	if status == domain.ReviewStatusPending {
		oldestFirst(reviews, reviewTime, reviewKey)
	} else {
		newestFirst(reviews, reviewTime, reviewKey)
	}
	return reviews, nil
}

// update applies fn to the stored review under the write lock.
func (r reviewRepo) update(id int64, fn func(*domain.Review)) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	review, ok := r.s.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	fn(&review)
	review.UpdatedAt = r.s.now()
	r.s.reviews[id] = review
	return &review, nil
}

func (r reviewRepo) UpdateContent(_ context.Context, id int64, rating int, reviewText string) (*domain.Review, error) {
	return r.update(id, func(rv *domain.Review) {
		rv.Rating = rating
		rv.ReviewText = reviewText
	})
}

func (r reviewRepo) UpdateStatus(_ context.Context, id int64, status domain.ReviewStatus) (*domain.Review, error) {
	return r.update(id, func(rv *domain.Review) {
		rv.Status = status
	})
}

func (r reviewRepo) UpdateContentAndResetStatus(_ context.Context, id int64, rating int, reviewText string) (*domain.Review, error) {
	return r.update(id, func(rv *domain.Review) {
		rv.Rating = rating
		rv.ReviewText = reviewText
		rv.Status = domain.ReviewStatusPending
	})
}

func (r reviewRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[id]; !ok {
		return false, nil
	}
	delete(r.s.reviews, id)
	for actionID, a := range r.s.actions {
		if a.ReviewID == id {
			delete(r.s.actions, actionID)
		}
	}
	return true, nil
}

func (r reviewRepo) AverageApprovedRating(_ context.Context, productID int64) (float64, error) {
	approved := r.filter(func(rv domain.Review) bool {
		return rv.ProductID == productID && rv.Status == domain.ReviewStatusApproved
	})
	if len(approved) == 0 {
		return 0, nil
	}
	sum := 0
	for _, rv := range approved {
		sum += rv.Rating
	}
	return float64(sum) / float64(len(approved)), nil
}

func (r reviewRepo) CountByStatus(_ context.Context, productID int64, status domain.ReviewStatus) (int, error) {
	return len(r.filter(func(rv domain.Review) bool {
		return rv.ProductID == productID && rv.Status == status
	})), nil
}
