package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/internal/event"
	"github.com/utafrali/reviewmod/internal/repository/memory"
	"github.com/utafrali/reviewmod/internal/service"
	"github.com/utafrali/reviewmod/pkg/health"
	"github.com/utafrali/reviewmod/pkg/httputil"
)

// ============================================================================
// Test helpers
// ============================================================================

const (
	authorID    = "1"
	strangerID  = "2"
	moderatorID = "9"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupRouter wires the production router over a seeded in-memory store.
func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	return setupRouterWith(t, RouterConfig{})
}

// setupRouterWith is setupRouter with extra router options; the services,
// health handler and logger in opts are replaced.
func setupRouterWith(t *testing.T, opts RouterConfig) http.Handler {
	t.Helper()
	store := memory.NewStore()
	store.AddUser(domain.User{ID: 1, Username: "alice"})
	store.AddUser(domain.User{ID: 2, Username: "bob"})
	store.AddUser(domain.User{ID: 9, Username: "mod_maria", Role: domain.RoleModerator})
	store.AddProduct(domain.Product{ID: 5, Name: "Desk Lamp", Category: "home"})

	logger := testLogger()
	events := event.NoopPublisher{}
	opts.Reviews = service.NewReviewService(store, nil, events, logger)
	opts.Moderation = service.NewModerationService(store, service.NewStatisticsService(store.Actions()), events, logger)
	opts.Health = health.NewHandler()
	opts.AllowedOrigins = []string{"*"}
	opts.Logger = logger
	return NewRouter(opts)
}

func do(t *testing.T, h http.Handler, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-User-ID", actor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// decodeData decodes the data member of the envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func createReview(t *testing.T, h http.Handler, actor string, rating int, text string) domain.Review {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/reviews", actor, CreateReviewRequest{
		ProductID:  5,
		Rating:     rating,
		ReviewText: text,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var review domain.Review
	decodeData(t, rec, &review)
	return review
}

// ============================================================================
// Reviews
// ============================================================================

func TestCreateReview_Created(t *testing.T) {
	h := setupRouter(t)

	review := createReview(t, h, authorID, 5, "Great")

	assert.NotZero(t, review.ID)
	assert.Equal(t, int64(1), review.UserID)
	assert.Equal(t, int64(5), review.ProductID)
	assert.Equal(t, domain.ReviewStatusPending, review.Status)
}

func TestCreateReview_RequiresActor(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodPost, "/api/reviews", "", CreateReviewRequest{ProductID: 5, Rating: 5, ReviewText: "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))

	rec = do(t, h, http.MethodPost, "/api/reviews", "abc", CreateReviewRequest{ProductID: 5, Rating: 5, ReviewText: "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateReview_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body any
		code string
	}{
		{"malformed json", `{"rating":`, "INVALID_INPUT"},
		{"empty body", "", "INVALID_INPUT"},
		{"unknown field", `{"product_id":5,"rating":5,"review_text":"x","extra":1}`, "INVALID_INPUT"},
		{"rating out of range", CreateReviewRequest{ProductID: 5, Rating: 6, ReviewText: "x"}, "VALIDATION_ERROR"},
		{"missing text", CreateReviewRequest{ProductID: 5, Rating: 3}, "VALIDATION_ERROR"},
		{"blank text", CreateReviewRequest{ProductID: 5, Rating: 3, ReviewText: "   "}, "INVALID_INPUT"},
		{"text too long", CreateReviewRequest{ProductID: 5, Rating: 3, ReviewText: strings.Repeat("a", 5001)}, "VALIDATION_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := setupRouter(t)
			rec := do(t, h, http.MethodPost, "/api/reviews", authorID, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}

func TestCreateReview_UnknownProduct(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodPost, "/api/reviews", authorID, CreateReviewRequest{ProductID: 77, Rating: 3, ReviewText: "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReview(t *testing.T) {
	h := setupRouter(t)
	created := createReview(t, h, authorID, 4, "Solid")

	rec := do(t, h, http.MethodGet, fmt.Sprintf("/api/reviews/%d", created.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Review
	decodeData(t, rec, &got)
	assert.Equal(t, "Solid", got.ReviewText)

	rec = do(t, h, http.MethodGet, "/api/reviews/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/reviews/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", errorCode(t, rec))
}

func TestUpdateReview(t *testing.T) {
	h := setupRouter(t)
	created := createReview(t, h, authorID, 2, "meh")
	path := fmt.Sprintf("/api/reviews/%d", created.ID)

	rec := do(t, h, http.MethodPost, fmt.Sprintf("/api/moderation/approve/%d", created.ID), moderatorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, path, strangerID, UpdateReviewRequest{Rating: 1, ReviewText: "hijack"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPut, path, authorID, UpdateReviewRequest{Rating: 4, ReviewText: "grew on me"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Review
	decodeData(t, rec, &updated)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, domain.ReviewStatusPending, updated.Status)
}

func TestDeleteReview(t *testing.T) {
	h := setupRouter(t)
	created := createReview(t, h, authorID, 2, "meh")
	path := fmt.Sprintf("/api/reviews/%d", created.ID)

	rec := do(t, h, http.MethodDelete, path, strangerID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodDelete, path, authorID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodDelete, path, authorID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUserReviews(t *testing.T) {
	h := setupRouter(t)
	createReview(t, h, authorID, 5, "first")
	createReview(t, h, authorID, 3, "second")

	rec := do(t, h, http.MethodGet, "/api/users/1/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []domain.Review
	decodeData(t, rec, &reviews)
	assert.Len(t, reviews, 2)

	rec = do(t, h, http.MethodGet, "/api/users/2/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"total_count":0}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/users/404/reviews", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// Products
// ============================================================================

func TestProductEndpoints(t *testing.T) {
	h := setupRouter(t)
	approved := createReview(t, h, authorID, 5, "Great")
	createReview(t, h, strangerID, 1, "pending forever")
	rec := do(t, h, http.MethodPost, fmt.Sprintf("/api/moderation/approve/%d", approved.ID), moderatorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/products/5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var product domain.Product
	decodeData(t, rec, &product)
	assert.Equal(t, "Desk Lamp", product.Name)

	rec = do(t, h, http.MethodGet, "/api/products/5/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []domain.Review
	decodeData(t, rec, &reviews)
	require.Len(t, reviews, 1)
	assert.Equal(t, approved.ID, reviews[0].ID)

	rec = do(t, h, http.MethodGet, "/api/products/5/rating", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rating domain.ProductRating
	decodeData(t, rec, &rating)
	assert.Equal(t, 5.0, rating.AverageRating)
	assert.Equal(t, 1, rating.ReviewCount)

	rec = do(t, h, http.MethodGet, "/api/products/404/rating", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// Moderation
// ============================================================================

func TestModeration_RequiresModerator(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/api/moderation/queue", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/moderation/queue", authorID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = do(t, h, http.MethodGet, "/api/moderation/queue", "404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModeration_QueueAndDecisions(t *testing.T) {
	h := setupRouter(t)
	first := createReview(t, h, authorID, 5, "first")
	second := createReview(t, h, strangerID, 1, "second")

	rec := do(t, h, http.MethodGet, "/api/moderation/queue", moderatorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var queue []domain.Review
	decodeData(t, rec, &queue)
	require.Len(t, queue, 2)
	assert.Equal(t, first.ID, queue[0].ID)

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/moderation/reject/%d", second.ID), moderatorID, DecisionRequest{Notes: "abusive"})
	require.Equal(t, http.StatusOK, rec.Code)
	var rejected domain.Review
	decodeData(t, rec, &rejected)
	assert.Equal(t, domain.ReviewStatusRejected, rejected.Status)

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/moderation/flag/%d", first.ID), moderatorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/moderation/flagged", moderatorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var flagged []domain.Review
	decodeData(t, rec, &flagged)
	require.Len(t, flagged, 1)
	assert.Equal(t, first.ID, flagged[0].ID)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/reviews/%d/actions", second.ID), moderatorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var actions []domain.ModerationAction
	decodeData(t, rec, &actions)
	require.Len(t, actions, 1)
	assert.Equal(t, "abusive", actions[0].Notes)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/reviews/%d/actions", second.ID), authorID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestModeration_SelfModerationForbidden(t *testing.T) {
	h := setupRouter(t)
	own := createReview(t, h, moderatorID, 5, "my lamp")

	for _, action := range []string{"approve", "reject", "flag"} {
		rec := do(t, h, http.MethodPost, fmt.Sprintf("/api/moderation/%s/%d", action, own.ID), moderatorID, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, action)
	}
}

func TestModeration_NotesTooLong(t *testing.T) {
	h := setupRouter(t)
	review := createReview(t, h, authorID, 2, "meh")

	rec := do(t, h, http.MethodPost, fmt.Sprintf("/api/moderation/reject/%d", review.ID), moderatorID,
		DecisionRequest{Notes: strings.Repeat("n", 2001)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
}

func TestModeration_HistoryAndStatistics(t *testing.T) {
	h := setupRouter(t)
	review := createReview(t, h, authorID, 4, "nice")
	rec := do(t, h, http.MethodPost, fmt.Sprintf("/api/moderation/approve/%d", review.ID), moderatorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/moderation/history", moderatorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []domain.HistoryEntry
	decodeData(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "mod_maria", history[0].ModeratorUsername)
	require.NotNil(t, history[0].Review)
	assert.Equal(t, review.ID, history[0].Review.ID)

	rec = do(t, h, http.MethodGet, "/api/moderation/history?filterModeratorId=x", moderatorID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/moderation/statistics", moderatorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.ModerationStatistics
	decodeData(t, rec, &stats)
	assert.Equal(t, 1, stats.ActionCounts.Approve)
	assert.Equal(t, 100.0, stats.ApprovalRate)

	rec = do(t, h, http.MethodGet, "/api/moderation/statistics?startDate=2000-01-01&endDate=2000-01-02", moderatorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats = domain.ModerationStatistics{}
	decodeData(t, rec, &stats)
	assert.Zero(t, stats.TotalActions)
}

func TestModeration_InvalidWindow(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/api/moderation/statistics?startDate=yesterday", moderatorID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", errorCode(t, rec))

	rec = do(t, h, http.MethodGet, "/api/moderation/history?startDate=2024-06-01&endDate=2024-05-01", moderatorID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// Infrastructure routes
// ============================================================================

func TestHealthAndMetrics(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateReview_RateLimited(t *testing.T) {
	h := setupRouterWith(t, RouterConfig{WriteRPS: 0.01, WriteBurst: 2})

	createReview(t, h, authorID, 5, "one")
	createReview(t, h, authorID, 4, "two")

	rec := do(t, h, http.MethodPost, "/api/reviews", authorID, CreateReviewRequest{ProductID: 5, Rating: 3, ReviewText: "three"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))

	// Reads and other callers are unaffected.
	rec = do(t, h, http.MethodGet, "/api/users/1/reviews", authorID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	createReview(t, h, strangerID, 2, "not limited")
}

func TestCreateReview_BearerToken(t *testing.T) {
	const secret = "handler-test-secret"
	h := setupRouterWith(t, RouterConfig{JWTSecret: secret})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": authorID}).SignedString([]byte(secret))
	require.NoError(t, err)

	raw, err := json.Marshal(CreateReviewRequest{ProductID: 5, Rating: 4, ReviewText: "via token"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var review domain.Review
	decodeData(t, rec, &review)
	assert.Equal(t, int64(1), review.UserID)

	req = httptest.NewRequest(http.MethodGet, "/api/moderation/queue", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The forwarded header alone is not trusted once tokens are required.
	rec = do(t, h, http.MethodGet, "/api/moderation/queue", moderatorID, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/reviews", authorID, CreateReviewRequest{ProductID: 5, Rating: 4, ReviewText: "spoofed"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCorrelationIDEchoed(t *testing.T) {
	h := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reviews/999", nil)
	req.Header.Set("X-Correlation-ID", "corr-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "corr-42", rec.Header().Get("X-Correlation-ID"))
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "corr-42", resp.Error.RequestID)
}
