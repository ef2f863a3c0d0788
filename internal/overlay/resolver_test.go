package overlay

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/watchlist-service/internal/indicator"
	"github.com/yourorg/watchlist-service/internal/model"
)

func alignedSeries(t *testing.T, closes map[string]*float64) *model.MovingAverageSeries {
	t.Helper()
	dates := []string{"2024-03-01", "2024-03-04", "2024-03-05"}
	var bars []model.PriceBar
	for _, d := range dates {
		day, err := model.ParseDay(d)
		require.NoError(t, err)
		bars = append(bars, model.PriceBar{Date: day, Close: closes[d], Volume: 500})
	}
	series, err := indicator.Align(bars, []int{2})
	require.NoError(t, err)
	return series
}

func f(v float64) *float64 { return &v }

func TestResolve_MatchesBarClose(t *testing.T) {
	series := alignedSeries(t, map[string]*float64{
		"2024-03-01": f(100),
		"2024-03-04": f(104),
		"2024-03-05": f(106),
	})
	signals := []model.SignalEvent{
		{ID: "s1", SignalType: model.SignalBuy, SignalDate: "2024-03-04T09:31:00Z", SignalPrice: 103.2},
	}

	markers, err := Resolve(signals, series)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, "2024-03-04", markers[0].MatchedDate.String())
	assert.InDelta(t, 104, markers[0].PlottedValue, 1e-9)
}

func TestResolve_FallsBackToSignalPrice(t *testing.T) {
	series := alignedSeries(t, map[string]*float64{
		"2024-03-01": f(100),
		"2024-03-04": f(104),
		"2024-03-05": f(106),
	})
	signals := []model.SignalEvent{
		// No bar on the 2nd (weekend): plot at the signal's own price.
		{ID: "s1", SignalType: model.SignalSell, SignalDate: "2024-03-02T15:00:00Z", SignalPrice: 101.5},
	}

	markers, err := Resolve(signals, series)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, "2024-03-02", markers[0].MatchedDate.String())
	assert.InDelta(t, 101.5, markers[0].PlottedValue, 1e-9)
}

func TestResolve_NilCloseFallsBack(t *testing.T) {
	series := alignedSeries(t, map[string]*float64{
		"2024-03-01": f(100),
		"2024-03-04": nil,
		"2024-03-05": f(106),
	})
	signals := []model.SignalEvent{
		{ID: "s1", SignalType: model.SignalBuy, SignalDate: "2024-03-04T10:00:00Z", SignalPrice: 99.9},
	}

	markers, err := Resolve(signals, series)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.InDelta(t, 99.9, markers[0].PlottedValue, 1e-9)
}

func TestResolve_NeverDropsParsableSignals(t *testing.T) {
	series := alignedSeries(t, map[string]*float64{"2024-03-01": f(100)})
	signals := []model.SignalEvent{
		{ID: "a", SignalDate: "2024-03-01T01:00:00Z", SignalPrice: 1},
		{ID: "b", SignalDate: "2024-03-01T02:00:00Z", SignalPrice: 2},
		{ID: "c", SignalDate: "2099-12-31", SignalPrice: 3},
	}

	markers, err := Resolve(signals, series)
	require.NoError(t, err)
	assert.Len(t, markers, len(signals))
}

func TestResolve_MalformedDateSkippedAndReported(t *testing.T) {
	series := alignedSeries(t, map[string]*float64{"2024-03-01": f(100)})
	signals := []model.SignalEvent{
		{ID: "good", SignalDate: "2024-03-01T01:00:00Z", SignalPrice: 1},
		{ID: "bad", SignalDate: "not-a-date", SignalPrice: 2},
		{ID: "also-good", SignalDate: "2024-03-05T01:00:00Z", SignalPrice: 3},
	}

	markers, err := Resolve(signals, series)
	require.Error(t, err)

	var malformed *model.MalformedSignalError
	require.True(t, errors.As(err, &malformed))
	require.Len(t, malformed.Skipped, 1)
	assert.Equal(t, "bad", malformed.Skipped[0].ID)

	// Remaining signals still resolved.
	require.Len(t, markers, 2)
	assert.Equal(t, "good", markers[0].Signal.ID)
	assert.Equal(t, "also-good", markers[1].Signal.ID)
}

func TestGroupByDate_PreservesInputOrder(t *testing.T) {
	signals := []model.SignalEvent{
		{ID: "a", SignalDate: "2024-03-04T09:00:00Z"},
		{ID: "b", SignalDate: "2024-03-01T09:00:00Z"},
		{ID: "c", SignalDate: "2024-03-04T15:00:00Z"},
		{ID: "d", SignalDate: "bogus"},
	}

	groups := GroupByDate(signals)
	require.Len(t, groups, 2)

	assert.Equal(t, "2024-03-04", groups[0].Date.String())
	require.Len(t, groups[0].Signals, 2)
	assert.Equal(t, "a", groups[0].Signals[0].ID)
	assert.Equal(t, "c", groups[0].Signals[1].ID)

	assert.Equal(t, "2024-03-01", groups[1].Date.String())
	require.Len(t, groups[1].Signals, 1)
	assert.Equal(t, "b", groups[1].Signals[0].ID)
}

func TestGroupByDate_Empty(t *testing.T) {
	assert.Empty(t, GroupByDate(nil))
}

func TestParseSignalDate_Formats(t *testing.T) {
	day, err := parseSignalDate("2024-03-04T23:59:59+09:00")
	require.NoError(t, err)
	// Truncation happens in UTC.
	assert.Equal(t, model.DayOf(time.Date(2024, 3, 4, 14, 59, 59, 0, time.UTC)).String(), day.String())

	day, err = parseSignalDate("2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", day.String())
}
