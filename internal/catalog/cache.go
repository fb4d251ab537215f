package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/internal/repository"
)

const keyPrefix = "reviewmod:product:"

// CachedProducts is a Redis read-through cache in front of a product lookup.
// Misses and NotFound results are never cached; Redis failures fall back to
// the underlying lookup.
type CachedProducts struct {
	next   repository.ProductRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ repository.ProductRepository = (*CachedProducts)(nil)

// NewCachedProducts wraps next with a cache whose entries live for ttl.
func NewCachedProducts(next repository.ProductRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedProducts {
	return &CachedProducts{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

// GetByID returns the cached product or loads and caches it.
func (c *CachedProducts) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := cacheKey(id)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p domain.Product
		if jerr := json.Unmarshal(data, &p); jerr == nil {
			return &p, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt product cache entry", slog.String("key", key))
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.logger.WarnContext(ctx, "product cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	p, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.store(ctx, key, p); err != nil {
		c.logger.WarnContext(ctx, "product cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return p, nil
}

func (c *CachedProducts) store(ctx context.Context, key string, p *domain.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set product: %w", err)
	}
	return nil
}
