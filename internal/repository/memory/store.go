// Package memory provides an in-process Store backed by maps. It is used for
// local development and by the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/internal/repository"
	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store keeps every entity in memory behind a single RWMutex. Each method is
// one critical section, so compound operations such as ApplyDecision and
// Delete are atomic.
type Store struct {
	mu sync.RWMutex

	reviews  map[int64]domain.Review
	actions  map[int64]domain.ModerationAction
	users    map[int64]domain.User
	products map[int64]domain.Product

	lastReviewID  int64
	lastActionID  int64
	lastUserID    int64
	lastProductID int64

	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		reviews:  make(map[int64]domain.Review),
		actions:  make(map[int64]domain.ModerationAction),
		users:    make(map[int64]domain.User),
		products: make(map[int64]domain.Product),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reviews returns the review repository.
func (s *Store) Reviews() repository.ReviewRepository { return reviewRepo{s} }

// Actions returns the moderation action repository.
func (s *Store) Actions() repository.ModerationActionRepository { return actionRepo{s} }

// Users returns the user repository.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Products returns the product repository.
func (s *Store) Products() repository.ProductStore { return productRepo{s} }

// AddUser inserts a user, assigning an id when u.ID is zero.
func (s *Store) AddUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		s.lastUserID++
		u.ID = s.lastUserID
	} else if u.ID > s.lastUserID {
		s.lastUserID = u.ID
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = u
	return u
}

// AddProduct inserts a product, assigning an id when p.ID is zero.
func (s *Store) AddProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		s.lastProductID++
		p.ID = s.lastProductID
	} else if p.ID > s.lastProductID {
		s.lastProductID = p.ID
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.products[p.ID] = p
	return p
}

// ApplyDecision updates the review status and appends the audit record in
// one critical section.
func (s *Store) ApplyDecision(_ context.Context, reviewID, moderatorID int64, action domain.ModerationActionType, notes string) (*domain.Review, *domain.ModerationAction, error) {
	status, ok := action.ResultingStatus()
	if !ok {
		return nil, nil, domain.ValidateModerationAction(action)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[reviewID]
	if !ok {
		return nil, nil, apperrors.NotFound("review", reviewID)
	}
	if _, ok := s.users[moderatorID]; !ok {
		return nil, nil, apperrors.Storage("apply decision",
			errForeignKey("moderation_actions.moderator_id", moderatorID), false)
	}

	now := s.now()
	review.Status = status
	review.UpdatedAt = now
	s.reviews[reviewID] = review

	s.lastActionID++
	ma := domain.ModerationAction{
		ID:          s.lastActionID,
		ReviewID:    reviewID,
		ModeratorID: moderatorID,
		Action:      action,
		Notes:       notes,
		CreatedAt:   now,
	}
	s.actions[ma.ID] = ma

	return &review, &ma, nil
}

// newestFirst orders by creation time descending, breaking ties on id.
func newestFirst[T any](items []T, created func(T) time.Time, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]) > id(items[j])
	})
}

func oldestFirst[T any](items []T, created func(T) time.Time, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return id(items[i]) < id(items[j])
	})
}

func reviewTime(r domain.Review) time.Time { return r.CreatedAt }
func reviewKey(r domain.Review) int64 { return r.ID }

func actionTime(a domain.ModerationAction) time.Time { return a.CreatedAt }
func actionKey(a domain.ModerationAction) int64 { return a.ID }
