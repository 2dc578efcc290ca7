package risk

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/factors"
	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/markcheno/go-talib"
)

// VolatilityResult is the outcome of one symbol's volatility computation,
// carrying enough to populate both PositionVolatility and, aggregated, the
// portfolio snapshot's volatility fields.
type VolatilityResult struct {
	RealizedVol21d float64
	RealizedVol63d float64
	ExpectedVolHAR float64
	Percentile     float64
	Trend          domain.VolatilityTrend
	Observations   int
}

// ComputeVolatility computes realized/forecast volatility for symbol (the
// underlying, for options — the caller resolves that via
// betaSymbolForPosition before calling). ok is false when fewer than
// VolMinObservations daily returns are available.
func ComputeVolatility(ctx context.Context, cache *marketdata.PriceCache, symbol string, date time.Time) (VolatilityResult, bool, error) {
	from := date.AddDate(0, 0, -(VolPercentileWindowDays + VolLongWindowDays + 30))

	returnSeries, err := marketdata.GetReturns(ctx, cache, []string{symbol}, from, date, false)
	if err != nil {
		return VolatilityResult{}, false, fmt.Errorf("risk: fetching returns for %s: %w", symbol, err)
	}

	returns := returnSeries[symbol].Returns
	if len(returns) < VolMinObservations {
		return VolatilityResult{}, false, nil
	}

	vol21 := realizedVol(returns, VolShortWindowDays)
	vol63 := realizedVol(returns, VolLongWindowDays)

	expectedVol := forecastHAR(returns)
	trend := classifyTrend(returns)
	percentile := volPercentile(returns)

	return VolatilityResult{
		RealizedVol21d: vol21,
		RealizedVol63d: vol63,
		ExpectedVolHAR: expectedVol,
		Percentile:     percentile,
		Trend:          trend,
		Observations:   len(returns),
	}, true, nil
}

// realizedVol annualizes the standard deviation of the last window returns
// by sqrt(TradingDaysPerYear). Returns 0 if fewer than window returns exist.
func realizedVol(returns []float64, window int) float64 {
	if len(returns) < window {
		return 0
	}
	sample := returns[len(returns)-window:]
	return stdDev(sample) * annualizationFactor
}

func stdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n - 1)

	return math.Sqrt(variance)
}

// forecastHAR fits a HAR-RV model: daily realized vol at t regressed on
// its own daily/weekly/monthly components as of t-1, then forecasts the
// next value from today's components. Falls back to a fixed-weight blend
// of today's components (0.5/0.3/0.2, favoring the most recent signal —
// the source pack does not carry fitted HAR coefficients) when there isn't
// enough history to fit a regression.
func forecastHAR(returns []float64) float64 {
	dailyRV := make([]float64, len(returns))
	for i, r := range returns {
		dailyRV[i] = math.Abs(r) * annualizationFactor
	}

	const lookback = VolLongWindowDays // need a full monthly window before the first training point
	if len(dailyRV) < lookback+10 {
		return blendHARComponents(dailyRV)
	}

	var y, xDaily, xWeekly, xMonthly []float64
	for t := lookback; t < len(dailyRV); t++ {
		y = append(y, dailyRV[t])
		xDaily = append(xDaily, dailyRV[t-1])
		xWeekly = append(xWeekly, mean(dailyRV[t-VolWeeklyWindowDays:t]))
		xMonthly = append(xMonthly, mean(dailyRV[t-VolShortWindowDays:t]))
	}

	fit, err := factors.RunRidgeRegression(y, [][]float64{xDaily, xWeekly, xMonthly}, 0)
	if err != nil {
		return blendHARComponents(dailyRV)
	}

	intercept := mean(y) - fit.Betas[0]*mean(xDaily) - fit.Betas[1]*mean(xWeekly) - fit.Betas[2]*mean(xMonthly)

	todayDaily := dailyRV[len(dailyRV)-1]
	todayWeekly := mean(dailyRV[len(dailyRV)-VolWeeklyWindowDays:])
	todayMonthly := mean(dailyRV[len(dailyRV)-VolShortWindowDays:])

	return intercept + fit.Betas[0]*todayDaily + fit.Betas[1]*todayWeekly + fit.Betas[2]*todayMonthly
}

func blendHARComponents(dailyRV []float64) float64 {
	daily := dailyRV[len(dailyRV)-1]
	weekly := mean(dailyRV[max(0, len(dailyRV)-VolWeeklyWindowDays):])
	monthly := mean(dailyRV[max(0, len(dailyRV)-VolShortWindowDays):])
	return 0.5*daily + 0.3*weekly + 0.2*monthly
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// classifyTrend compares the slope of the last VolTrendWindowDays realized
// 21-day vol values against a stability threshold. Uses go-talib's
// linear-regression-slope primitive rather than a hand-rolled fit.
func classifyTrend(returns []float64) domain.VolatilityTrend {
	series := rollingRealizedVol(returns, VolShortWindowDays)
	if len(series) < VolTrendWindowDays {
		return domain.TrendStable
	}

	window := series[len(series)-VolTrendWindowDays:]
	slopes := talib.LinearRegSlope(window, VolTrendWindowDays)
	slope := slopes[len(slopes)-1]

	levelMean := mean(window)
	if levelMean == 0 {
		return domain.TrendStable
	}

	relativeSlope := slope / levelMean
	const stabilityThreshold = 0.01 // 1% of level per day

	switch {
	case relativeSlope > stabilityThreshold:
		return domain.TrendIncreasing
	case relativeSlope < -stabilityThreshold:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// rollingRealizedVol computes a trailing-window realized-vol series,
// aligned to the input (shorter by window-1 entries at the front).
func rollingRealizedVol(returns []float64, window int) []float64 {
	if len(returns) < window {
		return nil
	}
	out := make([]float64, 0, len(returns)-window+1)
	for i := window; i <= len(returns); i++ {
		out = append(out, stdDev(returns[i-window:i])*annualizationFactor)
	}
	return out
}

// volPercentile ranks the current VolShortWindowDays realized vol against
// the trailing VolPercentileWindowDays distribution of the same rolling
// metric, returned as a 0..1 fraction.
func volPercentile(returns []float64) float64 {
	series := rollingRealizedVol(returns, VolShortWindowDays)
	if len(series) == 0 {
		return 0
	}

	history := series
	if len(history) > VolPercentileWindowDays {
		history = history[len(history)-VolPercentileWindowDays:]
	}

	current := series[len(series)-1]
	below := 0
	for _, v := range history {
		if v <= current {
			below++
		}
	}
	return float64(below) / float64(len(history))
}
