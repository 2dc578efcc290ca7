package yahoo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	chartURL        = "https://query1.finance.yahoo.com/v8/finance/chart/%s"
	quoteSummaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary/%s"
)

// cacheEntry stores a cached response with expiration, mirroring
// alphavantage.Client's cache shape.
type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NativeClient is a Yahoo Finance client using Yahoo's public, unauthenticated
// chart and quoteSummary endpoints directly.
type NativeClient struct {
	httpClient *http.Client
	log        zerolog.Logger

	cacheMu sync.RWMutex
	cache   map[string]cacheEntry

	quoteTTL   time.Duration
	profileTTL time.Duration
}

// NewNativeClient creates a Yahoo Finance client.
func NewNativeClient(log zerolog.Logger) *NativeClient {
	return &NativeClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log.With().Str("component", "yahoo").Logger(),
		cache:      make(map[string]cacheEntry),
		quoteTTL:   15 * time.Minute,
		profileTTL: 24 * time.Hour,
	}
}

func (c *NativeClient) getFromCache(key string) (interface{}, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (c *NativeClient) setCache(key string, data interface{}, ttl time.Duration) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache[key] = cacheEntry{data: data, expiresAt: time.Now().Add(ttl)}
}

// GetQuote returns the latest price for symbol from the chart endpoint's
// metadata block, which Yahoo populates even for a single-day range.
func (c *NativeClient) GetQuote(symbol string) (*Quote, error) {
	cacheKey := "quote:" + symbol
	if cached, ok := c.getFromCache(cacheKey); ok {
		if q, ok := cached.(*Quote); ok {
			return q, nil
		}
	}

	now := time.Now()
	bars, meta, err := c.fetchChart(symbol, now.Add(-5*24*time.Hour), now)
	if err != nil {
		return nil, err
	}
	_ = bars

	quote := &Quote{
		Symbol:        symbol,
		Price:         meta.RegularMarketPrice,
		PreviousClose: meta.PreviousClose,
		MarketTime:    time.Unix(meta.RegularMarketTime, 0).UTC(),
	}

	c.setCache(cacheKey, quote, c.quoteTTL)
	return quote, nil
}

// GetHistoricalPrices returns daily OHLCV bars for symbol between from and
// to (Unix epoch seconds), oldest first.
func (c *NativeClient) GetHistoricalPrices(symbol string, from, to int64) ([]HistoricalPrice, error) {
	cacheKey := fmt.Sprintf("history:%s:%d:%d", symbol, from, to)
	if cached, ok := c.getFromCache(cacheKey); ok {
		if bars, ok := cached.([]HistoricalPrice); ok {
			return bars, nil
		}
	}

	bars, _, err := c.fetchChart(symbol, time.Unix(from, 0), time.Unix(to, 0))
	if err != nil {
		return nil, err
	}

	c.setCache(cacheKey, bars, 15*time.Minute)
	return bars, nil
}

// GetProfile returns sector/industry classification for symbol from the
// assetProfile quoteSummary module.
func (c *NativeClient) GetProfile(symbol string) (*Profile, error) {
	cacheKey := "profile:" + symbol
	if cached, ok := c.getFromCache(cacheKey); ok {
		if p, ok := cached.(*Profile); ok {
			return p, nil
		}
	}

	u := fmt.Sprintf(quoteSummaryURL, url.PathEscape(symbol))
	q := url.Values{}
	q.Set("modules", "assetProfile,price")

	body, err := c.doRequest(u + "?" + q.Encode())
	if err != nil {
		return nil, err
	}

	var parsed quoteSummaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("yahoo: parse quoteSummary for %s: %w", symbol, err)
	}
	if parsed.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo: %s", parsed.QuoteSummary.Error.Description)
	}
	if len(parsed.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no quoteSummary result for %s", symbol)
	}

	result := parsed.QuoteSummary.Result[0]
	profile := &Profile{
		Symbol:   symbol,
		Name:     result.Price.ShortName,
		Sector:   result.AssetProfile.Sector,
		Industry: result.AssetProfile.Industry,
	}

	c.setCache(cacheKey, profile, c.profileTTL)
	return profile, nil
}

func (c *NativeClient) fetchChart(symbol string, from, to time.Time) ([]HistoricalPrice, *struct {
	Symbol             string  `json:"symbol"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	PreviousClose      float64 `json:"previousClose"`
	RegularMarketTime  int64   `json:"regularMarketTime"`
}, error) {
	u := fmt.Sprintf(chartURL, url.PathEscape(symbol))
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	q.Set("interval", "1d")

	body, err := c.doRequest(u + "?" + q.Encode())
	if err != nil {
		return nil, nil, err
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("yahoo: parse chart for %s: %w", symbol, err)
	}
	if parsed.Chart.Error != nil {
		return nil, nil, fmt.Errorf("yahoo: %s", parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, nil, fmt.Errorf("yahoo: no chart result for %s", symbol)
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil, fmt.Errorf("yahoo: no quote indicators for %s", symbol)
	}

	quote := result.Indicators.Quote[0]
	bars := make([]HistoricalPrice, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := HistoricalPrice{Date: time.Unix(ts, 0).UTC(), Close: *quote.Close[i]}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	return bars, &result.Meta, nil
}

func (c *NativeClient) doRequest(fullURL string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; sentinel-batch-engine/1.0)")

	c.log.Debug().Str("url", fullURL).Msg("yahoo request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo: http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo: failed to read response body: %w", err)
	}
	return body, nil
}
