package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/watchlist-service/internal/indicator"
	"github.com/yourorg/watchlist-service/internal/model"
	"github.com/yourorg/watchlist-service/internal/overlay"
)

// MarketDataSource is the slice of the data-source client the chart service
// needs.
type MarketDataSource interface {
	GetPriceHistory(ctx context.Context, stockID, days int) ([]model.PriceBar, error)
	GetSignals(ctx context.Context, stockID, days int) ([]model.SignalEvent, error)
}

// ChartData is everything one stock's chart needs: the aligned series with
// moving averages, one marker per resolvable signal, and the per-day signal
// groups for combined tooltips.
type ChartData struct {
	StockID        int                        `json:"stock_id"`
	Series         []model.MovingAveragePoint `json:"series"`
	Markers        []model.SignalMarker       `json:"markers"`
	SignalGroups   []model.SignalGroup        `json:"signal_groups"`
	SkippedSignals int                        `json:"skipped_signals"`
}

// ChartService assembles chart data for a selected stock: it fetches the
// stock's price history and signals, aligns moving averages over the bars,
// and resolves the signals onto the aligned series.
type ChartService struct {
	source      MarketDataSource
	windows     []int
	defaultDays int
	logger      *zap.Logger
}

// NewChartService creates a new chart service. Windows defaults to the
// dashboard's 20/60/90 set when empty.
func NewChartService(source MarketDataSource, windows []int, defaultDays int, logger *zap.Logger) *ChartService {
	if len(windows) == 0 {
		windows = indicator.DefaultWindows
	}
	if defaultDays <= 0 {
		defaultDays = 365
	}
	return &ChartService{
		source:      source,
		windows:     windows,
		defaultDays: defaultDays,
		logger:      logger,
	}
}

// GetChartData fetches and assembles chart data for one stock. A zero days
// or empty windows argument falls back to the configured defaults.
// Malformed signals are logged and counted but never fail the chart.
func (s *ChartService) GetChartData(ctx context.Context, stockID, days int, windows []int) (*ChartData, error) {
	if stockID <= 0 {
		return nil, errors.New("invalid stock ID")
	}
	if days <= 0 {
		days = s.defaultDays
	}
	if len(windows) == 0 {
		windows = s.windows
	}

	bars, err := s.source.GetPriceHistory(ctx, stockID, days)
	if err != nil {
		return nil, err
	}

	signals, err := s.source.GetSignals(ctx, stockID, days)
	if err != nil {
		return nil, err
	}

	series, err := indicator.Align(bars, windows)
	if err != nil {
		return nil, err
	}

	markers, err := overlay.Resolve(signals, series)
	skipped := 0
	if err != nil {
		var malformed *model.MalformedSignalError
		if !errors.As(err, &malformed) {
			return nil, err
		}
		skipped = len(malformed.Skipped)
		s.logger.Warn("Skipped signals with malformed dates",
			zap.Int("stock_id", stockID),
			zap.Int("skipped", skipped))
	}

	return &ChartData{
		StockID:        stockID,
		Series:         series.Points(),
		Markers:        markers,
		SignalGroups:   overlay.GroupByDate(signals),
		SkippedSignals: skipped,
	}, nil
}

// ChartView represents one long-lived chart on the dashboard: the currently
// selected stock plus the most recently applied chart data. Each load is
// tagged with the generation of the selection that issued it; a load that
// resolves after the selection has changed is discarded instead of being
// applied to the stale view.
type ChartView struct {
	mu         sync.Mutex
	svc        *ChartService
	stockID    int
	days       int
	generation string
	data       *ChartData
}

// NewChartView creates a view for the given initial stock selection.
func (s *ChartService) NewChartView(stockID, days int) *ChartView {
	return &ChartView{
		svc:        s,
		stockID:    stockID,
		days:       days,
		generation: uuid.NewString(),
	}
}

// Select switches the view to another stock. Pending loads for the previous
// selection become stale and their results will be dropped on arrival.
func (v *ChartView) Select(stockID int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if stockID == v.stockID {
		return
	}
	v.stockID = stockID
	v.generation = uuid.NewString()
	v.data = nil
}

// Load fetches chart data for the view's current selection and applies it
// unless the selection changed while the fetch was in flight, in which case
// the result is discarded and Load returns nil data.
func (v *ChartView) Load(ctx context.Context) (*ChartData, error) {
	v.mu.Lock()
	stockID, days, gen := v.stockID, v.days, v.generation
	v.mu.Unlock()

	data, err := v.svc.GetChartData(ctx, stockID, days, nil)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.generation != gen {
		v.svc.logger.Debug("Discarding chart data for superseded selection",
			zap.Int("stock_id", stockID))
		return nil, nil
	}
	v.data = data
	return data, nil
}

// Data returns the most recently applied chart data, or nil when nothing
// has been loaded for the current selection yet.
func (v *ChartView) Data() *ChartData {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data
}
