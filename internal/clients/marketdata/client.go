package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarag/riskfolio/internal/domain"
)

// Client fetches historical daily prices from a Yahoo-chart-compatible API.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new market data client. The timeout bounds every fetch;
// callers rely on it to fall through to the synthetic path instead of
// blocking.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "marketdata").Logger(),
	}
}

// GetDailyHistory fetches up to days daily closing prices for a symbol,
// ordered ascending by time. Malformed entries (null closes, zero prices) are
// skipped rather than failing the whole fetch.
func (c *Client) GetDailyHistory(ctx context.Context, symbol string, days int) ([]domain.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol))

	params := url.Values{}
	params.Add("range", fmt.Sprintf("%dd", days))
	params.Add("interval", "1d")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "riskfolio/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history fetch for %s returned HTTP %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return parseChartResponse(symbol, body)
}

func parseChartResponse(symbol string, body []byte) ([]domain.PricePoint, error) {
	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse chart response for %s: %w", symbol, err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %v", symbol, parsed.Chart.Error)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result for %s", symbol)
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart result for %s has no quote data", symbol)
	}

	closes := result.Indicators.Quote[0].Close
	points := make([]domain.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) {
			break
		}
		// Missing trading days arrive as nulls; skip them.
		if closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		points = append(points, domain.PricePoint{
			TimestampMillis: ts * 1000,
			Price:           *closes[i],
		})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("no usable price points for %s", symbol)
	}

	return points, nil
}
