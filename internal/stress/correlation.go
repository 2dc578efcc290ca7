package stress

import (
	"context"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/factors"
	"github.com/aristath/sentinel/internal/marketdata"
	"gonum.org/v1/gonum/stat"
)

// CorrelationWindowDays is the trading-day window used to compute the
// factor correlation matrix, matching internal/correlation's default.
const CorrelationWindowDays = 90

func allFactorIDs() []domain.FactorID {
	out := make([]domain.FactorID, 0, len(domain.RidgeFactors)+len(domain.SpreadFactors))
	out = append(out, domain.RidgeFactors...)
	out = append(out, domain.SpreadFactors...)
	return out
}

// ComputeFactorCorrelationMatrix builds the factor-level correlation matrix
// spec.md §5 describes as computed once per run and shared read-only
// across every portfolio's stress tests that day. Each factor's return
// series is the same ETF (or long/short ETF spread) proxy internal/factors
// regresses symbols against, so the matrix reflects exactly the factor
// universe betas are expressed in. Values are clamped to [minCorr, maxCorr]
// immediately, before any caller performs a matrix operation on them, per
// spec.md §4.7 invariant (b).
func ComputeFactorCorrelationMatrix(ctx context.Context, cache *marketdata.PriceCache, date time.Time, minCorr, maxCorr float64) (domain.FactorCorrelationMatrix, error) {
	from := date.AddDate(0, 0, -(CorrelationWindowDays + 20))
	factorIDs := allFactorIDs()

	series := make(map[domain.FactorID]marketdata.ReturnSeries, len(factorIDs))
	for _, f := range factorIDs {
		s, err := factorReturnSeries(ctx, cache, f, from, date)
		if err != nil {
			return domain.FactorCorrelationMatrix{}, err
		}
		series[f] = trimReturnsToWindow(s, CorrelationWindowDays)
	}

	values := make(map[domain.FactorID]map[domain.FactorID]float64, len(factorIDs))
	for _, f := range factorIDs {
		values[f] = make(map[domain.FactorID]float64, len(factorIDs))
		values[f][f] = 1.0
	}

	for i := 0; i < len(factorIDs); i++ {
		for j := i + 1; j < len(factorIDs); j++ {
			f1, f2 := factorIDs[i], factorIDs[j]
			a, b := alignReturnSeries(series[f1], series[f2])

			var rho float64
			if len(a) >= 2 {
				rho = stat.Correlation(a, b, nil)
			}
			clamped := clamp(rho, minCorr, maxCorr)
			values[f1][f2] = clamped
			values[f2][f1] = clamped
		}
	}

	return domain.FactorCorrelationMatrix{Date: date, Values: values}, nil
}

// factorReturnSeries proxies a Ridge factor with its single ETF's returns,
// and a spread factor with the date-aligned long-minus-short return series
// of its ETF pair, mirroring factors.SpreadFactorETF's own construction.
func factorReturnSeries(ctx context.Context, cache *marketdata.PriceCache, f domain.FactorID, from, to time.Time) (marketdata.ReturnSeries, error) {
	if etf, ok := factors.RidgeFactorETF[f]; ok {
		returns, err := marketdata.GetReturns(ctx, cache, []string{etf}, from, to, false)
		if err != nil {
			return marketdata.ReturnSeries{}, err
		}
		return returns[etf], nil
	}

	pair := factors.SpreadFactorETF[f]
	returns, err := marketdata.GetReturns(ctx, cache, []string{pair.Long, pair.Short}, from, to, true)
	if err != nil {
		return marketdata.ReturnSeries{}, err
	}

	long, short := returns[pair.Long], returns[pair.Short]
	spread := make([]float64, len(long.Returns))
	for i := range spread {
		spread[i] = long.Returns[i] - short.Returns[i]
	}
	return marketdata.ReturnSeries{Dates: long.Dates, Returns: spread}, nil
}

func trimReturnsToWindow(s marketdata.ReturnSeries, windowDays int) marketdata.ReturnSeries {
	if len(s.Returns) <= windowDays {
		return s
	}
	start := len(s.Returns) - windowDays
	return marketdata.ReturnSeries{Dates: s.Dates[start:], Returns: s.Returns[start:]}
}

// alignReturnSeries inner-joins two return series on shared dates.
func alignReturnSeries(a, b marketdata.ReturnSeries) ([]float64, []float64) {
	byDate := make(map[time.Time]float64, len(b.Returns))
	for i, d := range b.Dates {
		byDate[d] = b.Returns[i]
	}

	alignedA := make([]float64, 0, len(a.Returns))
	alignedB := make([]float64, 0, len(a.Returns))
	for i, d := range a.Dates {
		if v, ok := byDate[d]; ok {
			alignedA = append(alignedA, a.Returns[i])
			alignedB = append(alignedB, v)
		}
	}
	return alignedA, alignedB
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
