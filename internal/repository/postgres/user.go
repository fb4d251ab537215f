package postgres

import (
	"context"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/pkg/database"
	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

// UserRepository reads users from PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

const getUserQuery = `SELECT id, username, email, role, created_at FROM users WHERE id = $1`

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (_ *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, "GetUser", getUserQuery)
	defer func() { end(err) }()

	var u domain.User
	if err := r.pool.QueryRow(ctx, getUserQuery, id).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Role,
		&u.CreatedAt,
	); err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, database.StorageError("get user", err)
	}
	return &u, nil
}

const isModeratorQuery = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND role = $2)`

// IsModerator reports whether the user exists and is a moderator.
func (r *UserRepository) IsModerator(ctx context.Context, id int64) (_ bool, err error) {
	ctx, end := database.TraceQuery(ctx, "IsModerator", isModeratorQuery)
	defer func() { end(err) }()

	var ok bool
	if err := r.pool.QueryRow(ctx, isModeratorQuery, id, domain.RoleModerator).Scan(&ok); err != nil {
		return false, database.StorageError("check moderator", err)
	}
	return ok, nil
}

// ProductRepository reads products from PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const getProductQuery = `
		SELECT id, name, COALESCE(description, ''), COALESCE(category, ''), created_at
		FROM products
		WHERE id = $1`

// GetByID retrieves a product by id.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (_ *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "GetProduct", getProductQuery)
	defer func() { end(err) }()

	var p domain.Product
	if err := r.pool.QueryRow(ctx, getProductQuery, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.CreatedAt,
	); err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, database.StorageError("get product", err)
	}
	return &p, nil
}

const upsertProductQuery = `
		INSERT INTO products (id, name, description, category)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    category = EXCLUDED.category`

// Upsert inserts p under its own id, or refreshes the stored copy.
func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpsertProduct", upsertProductQuery)
	defer func() { end(err) }()

	if p.ID <= 0 {
		return apperrors.InvalidInput("product id must be positive")
	}
	if _, err := r.pool.Exec(ctx, upsertProductQuery, p.ID, p.Name, p.Description, p.Category); err != nil {
		return database.StorageError("upsert product", err)
	}
	return nil
}
