package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/watchlist-service/internal/event"
	"github.com/yourorg/watchlist-service/internal/model"
	"github.com/yourorg/watchlist-service/internal/screener"
	"github.com/yourorg/watchlist-service/internal/validator"
)

// ResourceStocks is the logical resource name screener views subscribe to.
const ResourceStocks = "stocks"

// ErrSessionNotFound is returned for unknown or expired screener sessions.
var ErrSessionNotFound = errors.New("screener session not found")

// ScreenerSource is the slice of the data-source client the screener needs.
type ScreenerSource interface {
	GetNearMA90(ctx context.Context, bandPercent float64, offset, limit int) (*model.ScreenerPage, error)
}

// Snapshot is the state of one screener session as exposed to the
// presentation layer.
type Snapshot struct {
	SessionID string         `json:"session_id"`
	Band      float64        `json:"band"`
	Items     []model.Stock  `json:"items"`
	Total     int            `json:"total"`
	HasMore   bool           `json:"has_more"`
	State     screener.State `json:"state"`
	Error     string         `json:"error,omitempty"`
}

type screenerSession struct {
	id        string
	band      float64
	limit     int
	paginator *screener.Paginator
	touched   time.Time
}

// ScreenerService owns one paginator-backed session per dashboard screener
// view. Sessions accumulate near-MA90 pages incrementally, reset when their
// filter criteria change, and are discarded when the view goes away or the
// session sits idle past its TTL. The service subscribes to stock
// invalidations so every live session refetches after the data changes.
type ScreenerService struct {
	mu          sync.Mutex
	source      ScreenerSource
	sessions    map[string]*screenerSession
	defaultBand float64
	pageLimit   int
	sessionTTL  time.Duration
	logger      *zap.Logger
	unsubscribe func()
}

// NewScreenerService creates the service and subscribes it to the stocks
// resource on the invalidation bus.
func NewScreenerService(source ScreenerSource, bus *event.Bus, defaultBand float64, pageLimit int, sessionTTL time.Duration, logger *zap.Logger) *ScreenerService {
	s := &ScreenerService{
		source:      source,
		sessions:    make(map[string]*screenerSession),
		defaultBand: defaultBand,
		pageLimit:   pageLimit,
		sessionTTL:  sessionTTL,
		logger:      logger,
	}
	s.unsubscribe = bus.Subscribe(ResourceStocks, func(inv event.Invalidation) {
		s.resetAll(inv.Reason)
	})
	return s
}

// CreateSession opens a new screener view. A zero band or limit falls back
// to the configured defaults; out-of-range values are rejected.
func (s *ScreenerService) CreateSession(band float64, limit int) (*Snapshot, error) {
	if band == 0 {
		band = s.defaultBand
	}
	if limit == 0 {
		limit = s.pageLimit
	}
	if err := validator.ValidateScreenerQuery(validator.ScreenerQuery{Band: band, Limit: limit}); err != nil {
		return nil, err
	}

	sess := &screenerSession{
		id:      uuid.NewString(),
		band:    band,
		limit:   limit,
		touched: time.Now(),
	}

	// The closure reads the session's band at fetch time so a Reset with
	// new criteria applies to every subsequent page.
	fetch := func(ctx context.Context, offset, pageLimit int) (*model.ScreenerPage, error) {
		s.mu.Lock()
		b := sess.band
		s.mu.Unlock()
		return s.source.GetNearMA90(ctx, b, offset, pageLimit)
	}
	p, err := screener.NewPaginator(fetch, limit, s.logger)
	if err != nil {
		return nil, err
	}
	sess.paginator = p

	s.mu.Lock()
	s.pruneLocked()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("Screener session created",
		zap.String("session_id", sess.id),
		zap.Float64("band", band),
		zap.Int("limit", limit))

	return s.snapshot(sess), nil
}

// FetchNext loads the session's next page. Duplicate calls while a page is
// in flight are no-ops on the paginator; the returned snapshot reflects
// whatever state the call observed.
func (s *ScreenerService) FetchNext(ctx context.Context, sessionID string) (*Snapshot, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.paginator.FetchNext(ctx); err != nil {
		// The paginator is now Errored; the snapshot carries the error
		// so the view can offer a manual retry.
		return s.snapshot(sess), nil
	}
	return s.snapshot(sess), nil
}

// Reset discards the session's accumulated results, optionally applying a
// new proximity band first. Used when the view's filter criteria change.
func (s *ScreenerService) Reset(sessionID string, band *float64) (*Snapshot, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if band != nil && *band != sess.band {
		if verr := validator.ValidateScreenerQuery(validator.ScreenerQuery{Band: *band, Limit: sess.limit}); verr != nil {
			s.mu.Unlock()
			return nil, verr
		}
		sess.band = *band
	}
	s.mu.Unlock()

	sess.paginator.Reset()
	return s.snapshot(sess), nil
}

// Get returns the session's current snapshot without fetching anything.
func (s *ScreenerService) Get(sessionID string) (*Snapshot, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(sess), nil
}

// Delete tears the session down when its view unmounts.
func (s *ScreenerService) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// Close unsubscribes the service from the invalidation bus.
func (s *ScreenerService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *ScreenerService) lookup(sessionID string) (*screenerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	sess.touched = time.Now()
	return sess, nil
}

func (s *ScreenerService) snapshot(sess *screenerSession) *Snapshot {
	s.mu.Lock()
	band := sess.band
	s.mu.Unlock()

	snap := &Snapshot{
		SessionID: sess.id,
		Band:      band,
		Items:     sess.paginator.Items(),
		Total:     sess.paginator.Total(),
		HasMore:   sess.paginator.HasMore(),
		State:     sess.paginator.State(),
	}
	if err := sess.paginator.Err(); err != nil {
		snap.Error = err.Error()
	}
	return snap
}

// resetAll resets every live session after a stocks invalidation. Sessions
// keep their criteria; only the accumulated pages are discarded.
func (s *ScreenerService) resetAll(reason string) {
	s.mu.Lock()
	sessions := make([]*screenerSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.paginator.Reset()
	}
	s.logger.Info("Screener sessions reset",
		zap.Int("sessions", len(sessions)),
		zap.String("reason", reason))
}

// pruneLocked drops sessions idle past the TTL. Caller holds s.mu.
func (s *ScreenerService) pruneLocked() {
	if s.sessionTTL <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.sessionTTL)
	for id, sess := range s.sessions {
		if sess.touched.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
