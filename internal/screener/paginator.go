package screener

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/watchlist-service/internal/model"
)

// State is the paginator's position in its fetch lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateExhausted State = "exhausted"
	StateErrored   State = "errored"
)

// PageFetcher loads one page of screener candidates from the data source.
type PageFetcher func(ctx context.Context, offset, limit int) (*model.ScreenerPage, error)

// Paginator accumulates screener result pages one at a time. Page requests
// are strictly sequential: the Loading state gates FetchNext so at most one
// request is in flight, and duplicate triggers (a sentinel firing twice, a
// double-clicked retry) are no-ops. Each instance owns its accumulator
// exclusively; instances are independent and share nothing.
type Paginator struct {
	mu         sync.Mutex
	fetch      PageFetcher
	limit      int
	logger     *zap.Logger
	items      []model.Stock
	total      int
	state      State
	hasMore    bool
	generation string
	lastErr    error
}

// NewPaginator creates an empty paginator in Idle with hasMore true, ready
// for its first FetchNext.
func NewPaginator(fetch PageFetcher, limit int, logger *zap.Logger) (*Paginator, error) {
	if fetch == nil {
		return nil, errors.New("page fetcher is required")
	}
	if limit <= 0 {
		return nil, errors.New("page limit must be positive")
	}
	return &Paginator{
		fetch:      fetch,
		limit:      limit,
		logger:     logger,
		state:      StateIdle,
		hasMore:    true,
		generation: uuid.NewString(),
	}, nil
}

// FetchNext requests the next page. It acts only from Idle with more pages
// available, or from Errored as a manual retry of the failed page; from
// Loading or Exhausted it returns nil without dispatching anything.
//
// On success the page's items are appended and total updated; on failure
// the paginator moves to Errored, keeps the error, and returns it. There is
// no automatic retry. A page that resolves after Reset has been called is
// discarded rather than applied to the new accumulator.
func (p *Paginator) FetchNext(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateLoading || p.state == StateExhausted || !p.hasMore {
		p.mu.Unlock()
		return nil
	}
	offset := len(p.items)
	gen := p.generation
	p.state = StateLoading
	p.mu.Unlock()

	page, err := p.fetch(ctx, offset, p.limit)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.generation != gen {
		p.logger.Debug("Discarding stale screener page",
			zap.Int("offset", offset))
		return nil
	}

	if err != nil {
		p.state = StateErrored
		p.lastErr = err
		p.logger.Warn("Screener page fetch failed",
			zap.Int("offset", offset),
			zap.Error(err))
		return err
	}

	p.items = append(p.items, page.Stocks...)
	p.total = page.Total
	p.lastErr = nil
	p.hasMore = len(p.items) < page.Total
	if p.hasMore {
		p.state = StateIdle
	} else {
		p.state = StateExhausted
	}

	p.logger.Debug("Screener page applied",
		zap.Int("offset", offset),
		zap.Int("accumulated", len(p.items)),
		zap.Int("total", p.total),
		zap.Bool("has_more", p.hasMore))
	return nil
}

// Reset discards the accumulator after a filter-criteria change and returns
// to Idle with hasMore true. The generation tag rolls over so an in-flight
// page from before the reset is ignored when it arrives.
func (p *Paginator) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = nil
	p.total = 0
	p.state = StateIdle
	p.hasMore = true
	p.lastErr = nil
	p.generation = uuid.NewString()
}

// Items returns a copy of all accumulated stocks in arrival order.
func (p *Paginator) Items() []model.Stock {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Stock, len(p.items))
	copy(out, p.items)
	return out
}

// Total returns the last-seen server-side count of matching stocks.
func (p *Paginator) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// HasMore reports whether further pages remain to be fetched.
func (p *Paginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// State returns the paginator's current lifecycle state.
func (p *Paginator) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the error from the most recent failed fetch, if the paginator
// is currently Errored.
func (p *Paginator) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
