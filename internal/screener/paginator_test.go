package screener

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/watchlist-service/internal/model"
)

// fakeSource serves pages out of a fixed universe of stocks and counts how
// many requests it actually received.
type fakeSource struct {
	universe []model.Stock
	calls    atomic.Int32
	failNext atomic.Bool
}

func newFakeSource(n int) *fakeSource {
	s := &fakeSource{}
	for i := 0; i < n; i++ {
		s.universe = append(s.universe, model.Stock{
			ID:     i + 1,
			Symbol: fmt.Sprintf("STK%03d", i+1),
		})
	}
	return s
}

func (s *fakeSource) fetch(_ context.Context, offset, limit int) (*model.ScreenerPage, error) {
	s.calls.Add(1)
	if s.failNext.Swap(false) {
		return nil, errors.New("data source unavailable")
	}
	end := offset + limit
	if end > len(s.universe) {
		end = len(s.universe)
	}
	if offset > end {
		offset = end
	}
	return &model.ScreenerPage{
		Total:  len(s.universe),
		Stocks: s.universe[offset:end],
	}, nil
}

func newTestPaginator(t *testing.T, src *fakeSource, limit int) *Paginator {
	t.Helper()
	p, err := NewPaginator(src.fetch, limit, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestPaginator_AccumulatesUntilExhausted(t *testing.T) {
	src := newFakeSource(45)
	p := newTestPaginator(t, src, 20)
	ctx := context.Background()

	require.NoError(t, p.FetchNext(ctx))
	assert.Len(t, p.Items(), 20)
	assert.Equal(t, 45, p.Total())
	assert.True(t, p.HasMore())
	assert.Equal(t, StateIdle, p.State())

	require.NoError(t, p.FetchNext(ctx))
	assert.Len(t, p.Items(), 40)
	assert.True(t, p.HasMore())

	require.NoError(t, p.FetchNext(ctx))
	assert.Len(t, p.Items(), 45)
	assert.False(t, p.HasMore())
	assert.Equal(t, StateExhausted, p.State())

	// Further triggers are no-ops.
	require.NoError(t, p.FetchNext(ctx))
	assert.Len(t, p.Items(), 45)
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestPaginator_ItemsKeepArrivalOrder(t *testing.T) {
	src := newFakeSource(5)
	p := newTestPaginator(t, src, 2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, p.FetchNext(ctx))
	}
	items := p.Items()
	require.Len(t, items, 5)
	for i, st := range items {
		assert.Equal(t, i+1, st.ID)
	}
}

func TestPaginator_DuplicateTriggerWhileLoadingIsNoop(t *testing.T) {
	src := newFakeSource(10)
	release := make(chan struct{})
	var calls atomic.Int32
	blocking := func(ctx context.Context, offset, limit int) (*model.ScreenerPage, error) {
		calls.Add(1)
		<-release
		return src.fetch(ctx, offset, limit)
	}

	p, err := NewPaginator(blocking, 5, zap.NewNop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- p.FetchNext(context.Background()) }()

	require.Eventually(t, func() bool { return p.State() == StateLoading },
		time.Second, time.Millisecond)

	// Second trigger while the first is in flight: nothing dispatched,
	// accumulator untouched.
	require.NoError(t, p.FetchNext(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, p.Items())

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, p.Items(), 5)
}

func TestPaginator_FailureSurfacesThroughState(t *testing.T) {
	src := newFakeSource(30)
	src.failNext.Store(true)
	p := newTestPaginator(t, src, 20)
	ctx := context.Background()

	err := p.FetchNext(ctx)
	require.Error(t, err)
	assert.Equal(t, StateErrored, p.State())
	assert.Error(t, p.Err())
	assert.Empty(t, p.Items())

	// Manual retry from Errored refetches the same offset.
	require.NoError(t, p.FetchNext(ctx))
	assert.Equal(t, StateIdle, p.State())
	assert.NoError(t, p.Err())
	assert.Len(t, p.Items(), 20)
}

func TestPaginator_ResetClearsAccumulator(t *testing.T) {
	src := newFakeSource(45)
	p := newTestPaginator(t, src, 20)
	ctx := context.Background()

	require.NoError(t, p.FetchNext(ctx))
	require.NoError(t, p.FetchNext(ctx))
	require.Len(t, p.Items(), 40)

	p.Reset()
	assert.Empty(t, p.Items())
	assert.Equal(t, 0, p.Total())
	assert.True(t, p.HasMore())
	assert.Equal(t, StateIdle, p.State())

	// The next fetch starts over from offset zero.
	require.NoError(t, p.FetchNext(ctx))
	items := p.Items()
	require.Len(t, items, 20)
	assert.Equal(t, 1, items[0].ID)
}

func TestPaginator_ResetFromErroredRecovers(t *testing.T) {
	src := newFakeSource(10)
	src.failNext.Store(true)
	p := newTestPaginator(t, src, 5)
	ctx := context.Background()

	require.Error(t, p.FetchNext(ctx))
	require.Equal(t, StateErrored, p.State())

	p.Reset()
	assert.Equal(t, StateIdle, p.State())
	assert.NoError(t, p.Err())
	require.NoError(t, p.FetchNext(ctx))
	assert.Len(t, p.Items(), 5)
}

func TestPaginator_InFlightPageDiscardedAfterReset(t *testing.T) {
	src := newFakeSource(10)
	release := make(chan struct{})
	blocking := func(ctx context.Context, offset, limit int) (*model.ScreenerPage, error) {
		<-release
		return src.fetch(ctx, offset, limit)
	}

	p, err := NewPaginator(blocking, 5, zap.NewNop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- p.FetchNext(context.Background()) }()
	require.Eventually(t, func() bool { return p.State() == StateLoading },
		time.Second, time.Millisecond)

	p.Reset()
	close(release)
	require.NoError(t, <-done)

	// The stale page must not have been applied to the fresh accumulator.
	assert.Empty(t, p.Items())
	assert.Equal(t, 0, p.Total())
	assert.Equal(t, StateIdle, p.State())
}

func TestNewPaginator_Validation(t *testing.T) {
	_, err := NewPaginator(nil, 20, zap.NewNop())
	assert.Error(t, err)

	src := newFakeSource(1)
	_, err = NewPaginator(src.fetch, 0, zap.NewNop())
	assert.Error(t, err)
}
