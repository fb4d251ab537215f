// Package catalog resolves products from the remote catalog service.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/internal/repository"
	apperrors "github.com/utafrali/reviewmod/pkg/errors"
	"github.com/utafrali/reviewmod/pkg/httpclient"
)

const serviceName = "catalog-service"

// Client looks products up over HTTP through a circuit breaker.
type Client struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

var _ repository.ProductRepository = (*Client)(nil)

// NewClient creates a catalog client for the service at baseURL.
func NewClient(baseURL string, cfg httpclient.Config, logger *slog.Logger) *Client {
	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig(serviceName),
		logger,
	)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    cb,
		logger:  logger,
	}
}

type productEnvelope struct {
	Data *domain.Product `json:"data"`
}

// GetByID fetches GET {baseURL}/api/v1/products/{id}. A 404 maps to NotFound;
// transport failures and an open breaker map to ServiceUnavailable.
func (c *Client) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	url := fmt.Sprintf("%s/api/v1/products/%d", c.baseURL, id)

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		c.logger.WarnContext(ctx, "catalog lookup failed",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		return nil, &apperrors.AppError{
			Code:      "SERVICE_UNAVAILABLE",
			Message:   "catalog service unavailable",
			Status:    http.StatusServiceUnavailable,
			Retryable: true,
			Err:       fmt.Errorf("%w: %w", apperrors.ErrServiceUnavail, err),
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		_ = httpclient.ParseResponseError(resp, serviceName)
		return nil, apperrors.NotFound("product", id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	var env productEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, apperrors.Storage(fmt.Sprintf("decode catalog product %d", id), err, false)
	}
	if env.Data == nil {
		return nil, apperrors.NotFound("product", id)
	}
	return env.Data, nil
}
