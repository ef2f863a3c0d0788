package model

// Stock represents one screener candidate: a stock whose current price lies
// within the configured band of its 90-day moving average.
type Stock struct {
	ID              int      `json:"id"`
	Symbol          string   `json:"symbol"`
	Name            string   `json:"name"`
	Market          string   `json:"market,omitempty"`
	CurrentPrice    *float64 `json:"current_price"`
	MA90            *float64 `json:"ma_90"`
	DistancePercent *float64 `json:"distance_percent"`
}

// ScreenerPage represents one page of screener results from the data source.
// Total is the server-side count of all matching stocks, not the page size.
type ScreenerPage struct {
	Total  int     `json:"total"`
	Stocks []Stock `json:"stocks"`
}
