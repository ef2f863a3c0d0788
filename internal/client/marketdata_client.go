package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/yourorg/watchlist-service/internal/model"
)

// MarketDataClient handles communication with the external market data source.
type MarketDataClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMarketDataClient creates a new market data source client. Timeout policy
// lives here, on the HTTP client, not in the callers.
func NewMarketDataClient(baseURL, serviceKey string, timeout time.Duration, logger *zap.Logger) *MarketDataClient {
	return &MarketDataClient{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// GetPriceHistory retrieves a stock's daily price bars for the trailing
// number of days, ordered ascending by date.
func (c *MarketDataClient) GetPriceHistory(ctx context.Context, stockID, days int) ([]model.PriceBar, error) {
	endpoint := fmt.Sprintf("%s/stocks/%d/price-history?days=%d", c.baseURL, stockID, days)

	var bars []model.PriceBar
	if err := c.getJSON(ctx, endpoint, &bars); err != nil {
		c.logger.Error("Failed to get price history",
			zap.Int("stock_id", stockID),
			zap.Error(err))
		return nil, err
	}
	return bars, nil
}

// GetSignals retrieves a stock's trading signal events for the trailing
// number of days.
func (c *MarketDataClient) GetSignals(ctx context.Context, stockID, days int) ([]model.SignalEvent, error) {
	endpoint := fmt.Sprintf("%s/stocks/%d/signals?days=%d", c.baseURL, stockID, days)

	var signals []model.SignalEvent
	if err := c.getJSON(ctx, endpoint, &signals); err != nil {
		c.logger.Error("Failed to get signals",
			zap.Int("stock_id", stockID),
			zap.Error(err))
		return nil, err
	}
	return signals, nil
}

// GetNearMA90 retrieves one page of stocks whose current price lies within
// the given percentage band of their 90-day moving average. Screener pages
// are never retried here: failure handling belongs to the paginator's state
// machine and its caller.
func (c *MarketDataClient) GetNearMA90(ctx context.Context, bandPercent float64, offset, limit int) (*model.ScreenerPage, error) {
	query := url.Values{}
	query.Set("near_ma90", strconv.FormatFloat(bandPercent, 'f', -1, 64))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/stocks?%s", c.baseURL, query.Encode())

	var page model.ScreenerPage
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TriggerCrawl asks the data source to refresh its stock data and returns
// the crawl job id. The request is idempotent on the source side, so a
// transport or 5xx failure is retried with exponential backoff; 4xx
// responses are not retried.
func (c *MarketDataClient) TriggerCrawl(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s/crawl", c.baseURL)

	var response struct {
		JobID string `json:"job_id"`
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-Service-Key", c.serviceKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &model.FetchError{Endpoint: endpoint, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return &model.FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
			return backoff.Permanent(&model.FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode})
		}
		if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode crawl response: %w", err))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		c.logger.Error("Failed to trigger crawl", zap.Error(err))
		return "", err
	}

	return response.JobID, nil
}

// getJSON issues one GET with the service key header and decodes a 200
// response into out. Non-2xx and transport failures become FetchErrors.
func (c *MarketDataClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Service-Key", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &model.FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &model.FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}
