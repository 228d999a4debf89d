// Package yahoo implements the quote and historical price providers on top
// of the Yahoo Finance v8 chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mgalanis/folio/internal/domain"
)

// DefaultBaseURL is the production Yahoo Finance endpoint
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoData is returned when Yahoo has no result for a ticker
var ErrNoData = errors.New("yahoo: no data for ticker")

// Client talks to the Yahoo Finance chart API
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// chartResponse mirrors the subset of the v8 chart payload we consume
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		ShortName          string  `json:"shortName"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
		PreviousClose      float64 `json:"previousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// fetchChart requests one ticker's chart for the given range
func (c *Client) fetchChart(ctx context.Context, ticker, rng string) (*chartResult, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		c.baseURL, url.PathEscape(ticker), url.QueryEscape(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "folio/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request returned status %d", resp.StatusCode)
	}

	var raw chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}

	if raw.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo: %s: %s", raw.Chart.Error.Code, raw.Chart.Error.Description)
	}
	if len(raw.Chart.Result) == 0 {
		return nil, ErrNoData
	}

	return &raw.Chart.Result[0], nil
}

// FetchQuote returns the current quote for a ticker. The last price is the
// regular market price with a last-non-zero-close fallback for thin charts.
func (c *Client) FetchQuote(ctx context.Context, ticker string) (domain.Quote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return domain.Quote{}, fmt.Errorf("empty ticker")
	}

	result, err := c.fetchChart(ctx, ticker, "1d")
	if err != nil {
		return domain.Quote{}, err
	}

	price := result.Meta.RegularMarketPrice
	marketTime := result.Meta.RegularMarketTime

	if price <= 0 && len(result.Timestamp) > 0 && len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		if len(closes) == len(result.Timestamp) {
			for i := len(closes) - 1; i >= 0; i-- {
				if closes[i] > 0 {
					price = closes[i]
					marketTime = result.Timestamp[i]
					break
				}
			}
		}
	}

	if price <= 0 {
		return domain.Quote{}, ErrNoData
	}

	prevClose := result.Meta.PreviousClose
	if prevClose <= 0 {
		prevClose = result.Meta.ChartPreviousClose
	}

	q := domain.Quote{
		Ticker:        ticker,
		CompanyName:   result.Meta.ShortName,
		LastPrice:     price,
		PreviousClose: prevClose,
	}

	if prevClose > 0 {
		q.Change = price - prevClose
		q.ChangePercent = q.Change / prevClose * 100
	}
	if marketTime > 0 {
		q.MarketTime = time.Unix(marketTime, 0).UTC().Format("2006-01-02 15:04:05")
	}

	return q, nil
}

// GetDailyCloses returns the daily closing series for a ticker.
// Timestamps are normalized to naive YYYY-MM-DD days in UTC at this
// boundary; the valuation core never sees timezones. An unknown ticker
// yields an empty series, not an error.
func (c *Client) GetDailyCloses(ctx context.Context, ticker, rng string) ([]domain.DailyClose, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker")
	}

	result, err := c.fetchChart(ctx, ticker, rng)
	if errors.Is(err, ErrNoData) {
		return []domain.DailyClose{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return []domain.DailyClose{}, nil
	}

	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return nil, fmt.Errorf("yahoo: close count %d does not match timestamp count %d", len(closes), len(result.Timestamp))
	}

	series := make([]domain.DailyClose, 0, len(closes))
	for i, ts := range result.Timestamp {
		c := closes[i]
		if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			// Null closes decode as zero; holidays and halts produce them.
			continue
		}
		series = append(series, domain.DailyClose{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: c,
		})
	}

	return series, nil
}
