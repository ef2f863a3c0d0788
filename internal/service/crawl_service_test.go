package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/watchlist-service/internal/event"
)

type fakeCrawlTrigger struct {
	jobID string
	err   error
}

func (f *fakeCrawlTrigger) TriggerCrawl(context.Context) (string, error) {
	return f.jobID, f.err
}

type fakePublisher struct {
	published []event.Invalidation
	err       error
}

func (f *fakePublisher) PublishInvalidation(_ context.Context, inv event.Invalidation) error {
	f.published = append(f.published, inv)
	return f.err
}

func TestCrawlService_TriggerPublishesInvalidation(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	var got []event.Invalidation
	bus.Subscribe(ResourceStocks, func(inv event.Invalidation) { got = append(got, inv) })

	publisher := &fakePublisher{}
	svc := NewCrawlService(&fakeCrawlTrigger{jobID: "job-9"}, bus, publisher, zap.NewNop())

	jobID, err := svc.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "job-9", jobID)

	require.Len(t, got, 1)
	assert.Equal(t, ResourceStocks, got[0].Resource)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, ResourceStocks, publisher.published[0].Resource)
}

func TestCrawlService_SourceFailureSkipsInvalidation(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	calls := 0
	bus.Subscribe(ResourceStocks, func(event.Invalidation) { calls++ })

	svc := NewCrawlService(&fakeCrawlTrigger{err: errors.New("source down")}, bus, nil, zap.NewNop())

	_, err := svc.Trigger(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestCrawlService_PublisherFailureDoesNotFailTrigger(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	publisher := &fakePublisher{err: errors.New("kafka unreachable")}
	svc := NewCrawlService(&fakeCrawlTrigger{jobID: "job-1"}, bus, publisher, zap.NewNop())

	jobID, err := svc.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
}
