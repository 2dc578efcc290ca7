package alphavantage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// Time Series Endpoints
// =============================================================================

// GetDailyAdjustedPrices returns daily adjusted OHLCV data including dividends and splits,
// newest first. full requests the complete available history instead of the last 100 bars.
func (c *Client) GetDailyAdjustedPrices(symbol string, full bool) ([]AdjustedPrice, error) {
	outputSize := "compact"
	if full {
		outputSize = "full"
	}
	params := map[string]string{"symbol": symbol, "outputsize": outputSize}
	cacheKey := buildCacheKey("TIME_SERIES_DAILY_ADJUSTED", params)

	if cached, ok := c.getFromCache(cacheKey); ok {
		if prices, ok := cached.([]AdjustedPrice); ok {
			return prices, nil
		}
	}

	body, err := c.doRequest("TIME_SERIES_DAILY_ADJUSTED", params)
	if err != nil {
		return nil, err
	}

	prices, err := parseAdjustedTimeSeries(body, "Time Series (Daily)")
	if err != nil {
		return nil, fmt.Errorf("parse adjusted daily prices for %s: %w", symbol, err)
	}

	c.setCache(cacheKey, prices, c.cacheTTL.PriceData)
	return prices, nil
}

// GetGlobalQuote returns the latest price and volume information for a symbol.
func (c *Client) GetGlobalQuote(symbol string) (*GlobalQuote, error) {
	params := map[string]string{"symbol": symbol}
	cacheKey := buildCacheKey("GLOBAL_QUOTE", params)

	if cached, ok := c.getFromCache(cacheKey); ok {
		if quote, ok := cached.(*GlobalQuote); ok {
			return quote, nil
		}
	}

	body, err := c.doRequest("GLOBAL_QUOTE", params)
	if err != nil {
		return nil, err
	}

	quote, err := parseGlobalQuote(body)
	if err != nil {
		return nil, fmt.Errorf("parse global quote for %s: %w", symbol, err)
	}

	c.setCache(cacheKey, quote, c.cacheTTL.PriceData)
	return quote, nil
}

// SearchSymbol searches for symbols matching the given keywords. Results are not cached.
func (c *Client) SearchSymbol(keywords string) ([]SymbolMatch, error) {
	body, err := c.doRequest("SYMBOL_SEARCH", map[string]string{"keywords": keywords})
	if err != nil {
		return nil, err
	}
	matches, err := parseSymbolSearch(body)
	if err != nil {
		return nil, fmt.Errorf("parse symbol search: %w", err)
	}
	return matches, nil
}

// =============================================================================
// Parsing Functions
// =============================================================================

func parseAdjustedTimeSeries(body []byte, timeSeriesKey string) ([]AdjustedPrice, error) {
	var rawResponse map[string]json.RawMessage
	if err := json.Unmarshal(body, &rawResponse); err != nil {
		return nil, err
	}

	timeSeriesData, ok := rawResponse[timeSeriesKey]
	if !ok {
		return nil, fmt.Errorf("no %s data in response", timeSeriesKey)
	}

	var timeSeries map[string]map[string]string
	if err := json.Unmarshal(timeSeriesData, &timeSeries); err != nil {
		return nil, err
	}

	prices := make([]AdjustedPrice, 0, len(timeSeries))
	for dateStr, data := range timeSeries {
		prices = append(prices, AdjustedPrice{
			Date:             parseDate(dateStr),
			Open:             parseFloat64(data["1. open"]),
			High:             parseFloat64(data["2. high"]),
			Low:              parseFloat64(data["3. low"]),
			Close:            parseFloat64(data["4. close"]),
			AdjustedClose:    parseFloat64(data["5. adjusted close"]),
			Volume:           parseInt64(data["6. volume"]),
			DividendAmount:   parseFloat64(data["7. dividend amount"]),
			SplitCoefficient: parseFloat64(data["8. split coefficient"]),
		})
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Date.After(prices[j].Date)
	})

	return prices, nil
}

func parseGlobalQuote(body []byte) (*GlobalQuote, error) {
	var response struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, err
	}
	if len(response.GlobalQuote) == 0 {
		return nil, fmt.Errorf("no quote data in response")
	}

	data := response.GlobalQuote
	changePercentStr := strings.TrimSuffix(data["10. change percent"], "%")

	return &GlobalQuote{
		Symbol:           data["01. symbol"],
		Open:             parseFloat64(data["02. open"]),
		High:             parseFloat64(data["03. high"]),
		Low:              parseFloat64(data["04. low"]),
		Price:            parseFloat64(data["05. price"]),
		Volume:           parseInt64(data["06. volume"]),
		LatestTradingDay: parseDate(data["07. latest trading day"]),
		PreviousClose:    parseFloat64(data["08. previous close"]),
		Change:           parseFloat64(data["09. change"]),
		ChangePercent:    parseFloat64(changePercentStr),
	}, nil
}

func parseSymbolSearch(body []byte) ([]SymbolMatch, error) {
	var response struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, err
	}

	matches := make([]SymbolMatch, 0, len(response.BestMatches))
	for _, m := range response.BestMatches {
		matches = append(matches, SymbolMatch{
			Symbol:      m["1. symbol"],
			Name:        m["2. name"],
			Type:        m["3. type"],
			Region:      m["4. region"],
			MarketOpen:  m["5. marketOpen"],
			MarketClose: m["6. marketClose"],
			Timezone:    m["7. timezone"],
			Currency:    m["8. currency"],
			MatchScore:  m["9. matchScore"],
		})
	}
	return matches, nil
}
