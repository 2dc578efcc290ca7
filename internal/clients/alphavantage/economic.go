package alphavantage

import (
	"encoding/json"
	"fmt"
	"sort"
)

// =============================================================================
// Economic Indicator Endpoints
// =============================================================================

// GetTreasuryYield returns treasury yield data for the given maturity (e.g. "10year"),
// used as the risk-free rate input to the interest-rate beta factor.
func (c *Client) GetTreasuryYield(interval, maturity string) (*EconomicIndicator, error) {
	cacheKey := "TREASURY_YIELD"
	if maturity != "" {
		cacheKey = "TREASURY_YIELD:" + maturity
	}
	if interval != "" {
		cacheKey = cacheKey + ":" + interval
	}

	if cached, ok := c.getFromCache(cacheKey); ok {
		if data, ok := cached.(*EconomicIndicator); ok {
			return data, nil
		}
	}

	params := map[string]string{}
	if interval != "" {
		params["interval"] = interval
	}
	if maturity != "" {
		params["maturity"] = maturity
	}

	body, err := c.doRequest("TREASURY_YIELD", params)
	if err != nil {
		return nil, err
	}

	data, err := parseEconomicData(body)
	if err != nil {
		return nil, fmt.Errorf("parse treasury yield: %w", err)
	}

	c.setCache(cacheKey, data, c.cacheTTL.EconomicIndicators)
	return data, nil
}

// =============================================================================
// Parsing Functions
// =============================================================================

func parseEconomicData(body []byte) (*EconomicIndicator, error) {
	var response struct {
		Name     string              `json:"name"`
		Interval string              `json:"interval"`
		Unit     string              `json:"unit"`
		Data     []map[string]string `json:"data"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return nil, err
	}

	dataPoints := make([]EconomicDataPoint, 0, len(response.Data))
	for _, d := range response.Data {
		date := parseDate(d["date"])
		value := parseFloat64(d["value"])

		// API returns "." for missing data points; skip those.
		if value == 0 && d["value"] != "0" && d["value"] != "" {
			continue
		}

		dataPoints = append(dataPoints, EconomicDataPoint{
			Date:  date,
			Value: value,
		})
	}

	sort.Slice(dataPoints, func(i, j int) bool {
		return dataPoints[i].Date.After(dataPoints[j].Date)
	})

	return &EconomicIndicator{
		Name:     response.Name,
		Interval: response.Interval,
		Unit:     response.Unit,
		Data:     dataPoints,
	}, nil
}
