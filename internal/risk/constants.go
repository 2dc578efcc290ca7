// Package risk computes position-first, cached-then-aggregated risk
// metrics: market and interest-rate beta, realized/forecast volatility,
// and sector/concentration analytics, per spec.md §4.5.
package risk

import "math"

const (
	// MarketBetaWindowDays and MarketBetaMinObservations govern both the
	// market-beta and IR-beta regressions: same window, same policy.
	MarketBetaWindowDays      = 90
	MarketBetaMinObservations = 60
	BetaCap                   = 5.0
	SignificanceConfidence    = 0.90

	MarketBenchmarkSymbol = "SPY"
	IRBenchmarkSymbol     = "TLT" // 20+Y Treasury ETF, spec.md §4.5

	VolShortWindowDays      = 21
	VolLongWindowDays       = 63
	VolWeeklyWindowDays     = 5
	VolMinObservations      = 63
	VolPercentileWindowDays = 252 // 1-year distribution, trading days
	VolTrendWindowDays      = 21

	TradingDaysPerYear = 252
)

var annualizationFactor = math.Sqrt(float64(TradingDaysPerYear))

// SectorBenchmarkCode is the default benchmark sector-weight set compared
// against portfolio sector exposure.
const SectorBenchmarkCode = "SP500"
