package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/reviewmod/internal/service"
	"github.com/utafrali/reviewmod/pkg/health"
	"github.com/utafrali/reviewmod/pkg/middleware"
)

const serviceName = "review"

// RouterConfig carries the collaborators and options of the HTTP surface.
type RouterConfig struct {
	Reviews        *service.ReviewService
	Moderation     *service.ModerationService
	Health         *health.Handler
	AllowedOrigins []string
	Logger         *slog.Logger

	// WriteRPS and WriteBurst bound review writes per caller. Zero disables.
	WriteRPS   float64
	WriteBurst int

	// JWTSecret makes HS256 bearer tokens the only source of caller
	// identity. Empty means the forwarded X-User-ID header is trusted.
	JWTSecret string
}

// NewRouter creates a chi router with all review and moderation routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimw.Timeout(30 * time.Second))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	writeLimit := middleware.RateLimit(cfg.WriteRPS, cfg.WriteBurst, logger)
	reviewHandler := NewReviewHandler(cfg.Reviews, logger)
	moderationHandler := NewModerationHandler(cfg.Moderation, logger)

	r.Route("/api", func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(middleware.BearerActor(cfg.JWTSecret, logger))
		} else {
			r.Use(middleware.Actor)
		}
		r.Use(middleware.RequestLogger(logger))

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/{id}", reviewHandler.GetReview)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActor)
				r.With(writeLimit).Post("/", reviewHandler.CreateReview)
				r.With(writeLimit).Put("/{id}", reviewHandler.UpdateReview)
				r.Delete("/{id}", reviewHandler.DeleteReview)
				r.Get("/{id}/actions", moderationHandler.GetReviewActions)
			})
		})

		r.Get("/users/{id}/reviews", reviewHandler.GetUserReviews)

		r.Route("/products/{id}", func(r chi.Router) {
			r.Get("/", reviewHandler.GetProduct)
			r.Get("/reviews", reviewHandler.GetProductReviews)
			r.Get("/rating", reviewHandler.GetProductRating)
		})

		r.Route("/moderation", func(r chi.Router) {
			r.Use(middleware.RequireActor)

			r.Get("/queue", moderationHandler.GetQueue)
			r.Get("/flagged", moderationHandler.GetFlagged)
			r.Post("/approve/{id}", moderationHandler.Approve)
			r.Post("/reject/{id}", moderationHandler.Reject)
			r.Post("/flag/{id}", moderationHandler.Flag)
			r.Get("/history", moderationHandler.GetHistory)
			r.Get("/statistics", moderationHandler.GetStatistics)
		})
	})

	return r
}
