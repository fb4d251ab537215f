package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reviewmod/internal/domain"
	pkgkafka "github.com/utafrali/reviewmod/pkg/kafka"
	"github.com/utafrali/reviewmod/pkg/logger"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func newTestProducer(w *fakeWriter) *Producer {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProducer(pkgkafka.NewProducerWithWriter(w, []string{"localhost:9092"}, l), l)
}

func TestProducer_PublishReviewCreated(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	ctx = logger.WithActorID(ctx, 1)

	createdAt := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	review := &domain.Review{ID: 12, UserID: 1, ProductID: 5, Rating: 4, Status: domain.ReviewStatusPending, UpdatedAt: createdAt}
	require.NoError(t, p.PublishReviewCreated(ctx, review))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicReviewCreated, msg.Topic)
	assert.Equal(t, "12", string(msg.Key))

	event, err := pkgkafka.DecodeEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, AggregateTypeReview, event.AggregateType)
	assert.Equal(t, SourceReviewService, event.Source)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Equal(t, int64(1), event.ActorID)
	assert.True(t, createdAt.Equal(event.OccurredAt))

	var data ReviewData
	require.NoError(t, event.DecodeData(&data))
	assert.Equal(t, int64(5), data.ProductID)
	assert.Equal(t, domain.ReviewStatusPending, data.Status)
}

func TestProducer_PublishReviewModerated(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	review := &domain.Review{ID: 12, ProductID: 5, Status: domain.ReviewStatusRejected}
	decidedAt := time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)
	action := &domain.ModerationAction{ID: 3, ReviewID: 12, ModeratorID: 9, Action: domain.ActionReject, Notes: "spam", CreatedAt: decidedAt}
	require.NoError(t, p.PublishReviewModerated(context.Background(), review, action))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, TopicReviewModerated, w.msgs[0].Topic)

	event, err := pkgkafka.DecodeEvent(w.msgs[0].Value)
	require.NoError(t, err)
	assert.True(t, decidedAt.Equal(event.OccurredAt))
	var data ReviewModeratedData
	require.NoError(t, event.DecodeData(&data))
	assert.Equal(t, int64(9), data.ModeratorID)
	assert.Equal(t, domain.ActionReject, data.Action)
	assert.Equal(t, "spam", data.Notes)
}

func TestProducer_PublishReviewDeletedAndUpdated(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	review := &domain.Review{ID: 7, UserID: 1, ProductID: 5}

	require.NoError(t, p.PublishReviewUpdated(context.Background(), review))
	require.NoError(t, p.PublishReviewDeleted(context.Background(), review))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, TopicReviewUpdated, w.msgs[0].Topic)
	assert.Equal(t, TopicReviewDeleted, w.msgs[1].Topic)
}

func TestProducer_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newTestProducer(w)

	err := p.PublishReviewCreated(context.Background(), &domain.Review{ID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), TopicReviewCreated)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.PublishReviewCreated(context.Background(), &domain.Review{}))
	assert.NoError(t, p.PublishReviewModerated(context.Background(), &domain.Review{}, &domain.ModerationAction{}))
}
