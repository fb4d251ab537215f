package memory

import (
	"context"

	"github.com/utafrali/reviewmod/internal/domain"
	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

type userRepo struct {
	s *Store
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return &u, nil
}

func (r userRepo) IsModerator(_ context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	return ok && u.IsModerator(), nil
}

type productRepo struct {
	s *Store
}

func (r productRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &p, nil
}

func (r productRepo) Upsert(_ context.Context, p *domain.Product) error {
	if p.ID <= 0 {
		return apperrors.InvalidInput("product id must be positive")
	}
	r.s.AddProduct(*p)
	return nil
}
