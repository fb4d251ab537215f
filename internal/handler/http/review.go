package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/reviewmod/internal/service"
	"github.com/utafrali/reviewmod/pkg/httputil"
)

// ReviewHandler handles HTTP requests for review and product endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for creating a review. The
// author is the caller identified by the X-User-ID header.
type CreateReviewRequest struct {
	ProductID  int64  `json:"product_id" validate:"required,gt=0"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
	ReviewText string `json:"review_text" validate:"required,maxrunes=5000"`
}

// UpdateReviewRequest is the JSON request body for editing a review.
type UpdateReviewRequest struct {
	Rating     int    `json:"rating" validate:"min=1,max=5"`
	ReviewText string `json:"review_text" validate:"required,maxrunes=5000"`
}

// --- Handlers ---

// CreateReview handles POST /api/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	review, err := h.service.CreateReview(r.Context(), &service.CreateReviewInput{
		UserID:     actorID(r),
		ProductID:  req.ProductID,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, review)
}

// GetReview handles GET /api/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "review id")
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// UpdateReview handles PUT /api/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "review id")
	if !ok {
		return
	}
	var req UpdateReviewRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	review, err := h.service.UpdateReview(r.Context(), id, actorID(r), &service.UpdateReviewInput{
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "review id")
	if !ok {
		return
	}

	if _, err := h.service.DeleteReview(r.Context(), id, actorID(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUserReviews handles GET /api/users/{id}/reviews
func (h *ReviewHandler) GetUserReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user id")
	if !ok {
		return
	}

	reviews, err := h.service.GetUserReviews(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteList(w, reviews)
}

// GetProduct handles GET /api/products/{id}
func (h *ReviewHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product id")
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// GetProductReviews handles GET /api/products/{id}/reviews
func (h *ReviewHandler) GetProductReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product id")
	if !ok {
		return
	}

	reviews, err := h.service.GetProductReviews(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteList(w, reviews)
}

// GetProductRating handles GET /api/products/{id}/rating
func (h *ReviewHandler) GetProductRating(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product id")
	if !ok {
		return
	}

	rating, err := h.service.GetProductStatistics(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, rating)
}
