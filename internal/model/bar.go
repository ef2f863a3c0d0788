package model

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day represents a calendar day with no time-of-day component.
type Day struct {
	time.Time
}

// DayOf truncates a timestamp to its calendar day in UTC.
func DayOf(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses an ISO calendar day (YYYY-MM-DD).
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid calendar day %q: %w", s, err)
	}
	return Day{t}, nil
}

// String returns the day in ISO format (YYYY-MM-DD).
func (d Day) String() string {
	return d.Format(dayLayout)
}

// MarshalJSON implements json.Marshaler, encoding the day as YYYY-MM-DD.
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dayLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting YYYY-MM-DD.
func (d *Day) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid calendar day %s", s)
	}
	parsed, err := ParseDay(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PriceBar represents one day's OHLCV record for a stock.
// A series is ordered ascending by date with no duplicate dates.
type PriceBar struct {
	Date   Day      `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume int64    `json:"volume"`
}

// MovingAveragePoint represents one bar of an aligned series together with
// its rolling moving averages. An average is nil until the trailing window
// holds enough contiguous non-nil closes.
type MovingAveragePoint struct {
	Date     Day              `json:"date"`
	Close    *float64         `json:"close"`
	Averages map[int]*float64 `json:"averages"`
}

// MovingAverageSeries is an ordered price series annotated with moving
// averages, indexable by calendar day.
type MovingAverageSeries struct {
	points  []MovingAveragePoint
	byDate  map[string]int
	windows []int
}

// NewMovingAverageSeries builds a series from aligned points in input order.
func NewMovingAverageSeries(points []MovingAveragePoint, windows []int) *MovingAverageSeries {
	byDate := make(map[string]int, len(points))
	for i, p := range points {
		byDate[p.Date.String()] = i
	}
	return &MovingAverageSeries{points: points, byDate: byDate, windows: windows}
}

// Points returns the aligned points in date order. The returned slice is a
// copy, so callers may range over it repeatedly or retain it.
func (s *MovingAverageSeries) Points() []MovingAveragePoint {
	out := make([]MovingAveragePoint, len(s.points))
	copy(out, s.points)
	return out
}

// At returns the point for the given calendar day, if any.
func (s *MovingAverageSeries) At(d Day) (MovingAveragePoint, bool) {
	i, ok := s.byDate[d.String()]
	if !ok {
		return MovingAveragePoint{}, false
	}
	return s.points[i], true
}

// Len returns the number of points in the series.
func (s *MovingAverageSeries) Len() int {
	return len(s.points)
}

// Windows returns the window sizes the series was aligned with.
func (s *MovingAverageSeries) Windows() []int {
	return s.windows
}
