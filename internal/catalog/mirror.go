package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/internal/repository"
	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

// MirroredProducts resolves products through the catalog and keeps a copy in
// the local products table, which reviews reference by foreign key. The local
// copy is only written when it is missing or differs from the catalog.
type MirroredProducts struct {
	source repository.ProductRepository
	local  repository.ProductStore
	logger *slog.Logger
}

var _ repository.ProductRepository = (*MirroredProducts)(nil)

// NewMirroredProducts wraps source, mirroring every product it returns into local.
func NewMirroredProducts(source repository.ProductRepository, local repository.ProductStore, logger *slog.Logger) *MirroredProducts {
	return &MirroredProducts{
		source: source,
		local:  local,
		logger: logger,
	}
}

// GetByID returns the catalog's product after making sure a local copy exists.
func (m *MirroredProducts) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := m.source.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := m.local.GetByID(ctx, id)
	switch {
	case err == nil && sameProduct(existing, p):
		return p, nil
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("read local product %d: %w", id, err)
	}

	if err := m.local.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("mirror product %d: %w", id, err)
	}
	m.logger.DebugContext(ctx, "mirrored catalog product", slog.Int64("product_id", id))
	return p, nil
}

func sameProduct(a, b *domain.Product) bool {
	return a.Name == b.Name && a.Description == b.Description && a.Category == b.Category
}
