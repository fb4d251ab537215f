package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/internal/repository/memory"
)

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// tickClock advances one minute per call so every write gets a distinct,
// increasing timestamp.
func tickClock() func() time.Time {
	var mu sync.Mutex
	next := epoch
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Minute)
		return t
	}
}

// Fixture ids.
const (
	aliceID     int64 = 1
	bobID       int64 = 2
	moderatorID int64 = 9
	otherModID  int64 = 10
	productID   int64 = 5
)

type fixture struct {
	store      *memory.Store
	events     *mockPublisher
	reviews    *ReviewService
	moderation *ModerationService
}

// newFixture seeds alice and bob (users), moderators 9 and 10, and product 5.
// Seeding consumes the first five clock ticks.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(memory.WithClock(tickClock()))
	store.AddUser(domain.User{ID: aliceID, Username: "alice", Email: "alice@example.com"})
	store.AddUser(domain.User{ID: bobID, Username: "bob", Email: "bob@example.com"})
	store.AddUser(domain.User{ID: moderatorID, Username: "mod_maria", Email: "maria@example.com", Role: domain.RoleModerator})
	store.AddUser(domain.User{ID: otherModID, Username: "mod_omar", Email: "omar@example.com", Role: domain.RoleModerator})
	store.AddProduct(domain.Product{ID: productID, Name: "Noise Cancelling Headphones", Category: "audio"})

	events := newMockPublisher()
	logger := newTestLogger()
	return &fixture{
		store:      store,
		events:     events,
		reviews:    NewReviewService(store, nil, events, logger),
		moderation: NewModerationService(store, NewStatisticsService(store.Actions()), events, logger),
	}
}

func (f *fixture) createReview(t *testing.T, userID int64, rating int, text string) *domain.Review {
	t.Helper()
	review, err := f.reviews.CreateReview(context.Background(), &CreateReviewInput{
		UserID:     userID,
		ProductID:  productID,
		Rating:     rating,
		ReviewText: text,
	})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	return review
}

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

// newMockPublisher returns a publisher that accepts every event.
func newMockPublisher() *mockPublisher {
	m := &mockPublisher{}
	m.On("PublishReviewCreated", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishReviewUpdated", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishReviewDeleted", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishReviewModerated", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

func (m *mockPublisher) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockPublisher) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockPublisher) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockPublisher) PublishReviewModerated(ctx context.Context, review *domain.Review, action *domain.ModerationAction) error {
	return m.Called(ctx, review, action).Error(0)
}
