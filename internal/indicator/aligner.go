package indicator

import (
	"fmt"

	"github.com/yourorg/watchlist-service/internal/model"
)

// DefaultWindows are the moving-average window sizes the dashboard charts.
var DefaultWindows = []int{20, 60, 90}

// Align annotates an ordered sequence of daily price bars with simple moving
// averages over the close price, one per window size. It is a pure function:
// calling it twice on the same input yields identical output.
//
// Input must be strictly ascending by date; Align fails with an
// InvalidOrderError rather than sorting defensively, since out-of-order bars
// indicate a contract violation upstream. A window's average at a position
// is nil until the trailing window holds `w` bars, all with non-nil closes;
// no partial averages are produced. Windows count bars, not calendar days,
// so gaps for non-trading days do not widen them.
func Align(bars []model.PriceBar, windows []int) (*model.MovingAverageSeries, error) {
	for _, w := range windows {
		if w <= 0 {
			return nil, fmt.Errorf("window size must be positive, got %d", w)
		}
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date.Time) {
			return nil, &model.InvalidOrderError{
				Position: i,
				Prev:     bars[i-1].Date,
				Curr:     bars[i].Date,
			}
		}
	}

	n := len(bars)

	// Prefix sums over closes plus a prefix count of nil closes let each
	// window value come out of two subtractions instead of a rescan.
	prefixSum := make([]float64, n+1)
	prefixNil := make([]int, n+1)
	for i, b := range bars {
		prefixSum[i+1] = prefixSum[i]
		prefixNil[i+1] = prefixNil[i]
		if b.Close != nil {
			prefixSum[i+1] += *b.Close
		} else {
			prefixNil[i+1]++
		}
	}

	points := make([]model.MovingAveragePoint, n)
	for i, b := range bars {
		averages := make(map[int]*float64, len(windows))
		for _, w := range windows {
			if i+1 < w || prefixNil[i+1]-prefixNil[i+1-w] > 0 {
				averages[w] = nil
				continue
			}
			avg := (prefixSum[i+1] - prefixSum[i+1-w]) / float64(w)
			averages[w] = &avg
		}
		points[i] = model.MovingAveragePoint{
			Date:     b.Date,
			Close:    b.Close,
			Averages: averages,
		}
	}

	return model.NewMovingAverageSeries(points, windows), nil
}
