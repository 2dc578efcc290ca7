// Package orchestrator drives the per-(portfolio, date) phase DAG (spec.md
// §4.9): position values, equity rollforward, aggregation, factor lookups,
// snapshot placeholder/completion, stress tests, and correlations, with
// bounded concurrency across portfolios and strict sequencing within one.
package orchestrator

import (
	"time"

	"github.com/aristath/sentinel/internal/domain"
)

// PortfolioAggregates are the position-derived snapshot fields computable
// directly from one day's positions and closes, with no dependency on any
// other phase's output.
type PortfolioAggregates struct {
	TotalValue     float64
	Cash           float64
	LongValue      float64
	ShortValue     float64
	GrossExposure  float64
	NetExposure    float64
	PositionCount  int
	PortfolioDelta float64
}

// AggregatePositionValues sums position-level market values into the
// portfolio-wide totals portfolio_snapshots carries, mirroring
// aggregation.LoadPositionWeights' active/PUBLIC/option handling but over
// absolute dollar values rather than equity-normalized weights. PRIVATE
// positions contribute to TotalValue/Cash-equivalent buckets via their
// cost basis (domain.Position.Value handles that valuation rule) but are
// excluded from delta since they carry none.
func AggregatePositionValues(positions []domain.Position, date time.Time, lastClose map[string]float64, greeks map[string]domain.PositionGreeks) PortfolioAggregates {
	var agg PortfolioAggregates

	for _, p := range positions {
		if !p.ActiveOn(date) {
			continue
		}

		close := lastClose[p.Symbol]
		signed := p.Value(close, true, true)
		abs := p.Value(close, false, true)

		agg.TotalValue += signed
		agg.GrossExposure += abs
		agg.NetExposure += signed
		agg.PositionCount++

		if signed >= 0 {
			agg.LongValue += abs
		} else {
			agg.ShortValue += abs
		}

		if p.Type.IsOption() {
			if g, ok := greeks[p.ID]; ok {
				agg.PortfolioDelta += g.Delta * p.Quantity * domain.OptionContractMultiplier
			}
			continue
		}
		if p.Class == domain.ClassPrivate {
			continue
		}
		agg.PortfolioDelta += signed
	}

	return agg
}

// DailyRealizedPnL sums the realized gain/loss of every position that
// exited exactly on date: (exitPrice - entryPrice) * quantity, sign-
// adjusted for short positions and option contract size. PRIVATE
// positions are excluded — there is no market close to mark them against,
// only their own entry/exit prices, which already settle at cost.
func DailyRealizedPnL(positions []domain.Position, date time.Time) float64 {
	var total float64
	for _, p := range positions {
		if p.ExitDate == nil || p.ExitPrice == nil || !sameDay(*p.ExitDate, date) {
			continue
		}
		if p.Class == domain.ClassPrivate {
			continue
		}

		multiplier := 1.0
		if p.Class == domain.ClassOptions {
			multiplier = domain.OptionContractMultiplier
		}

		pnl := (*p.ExitPrice - p.EntryPrice) * p.Quantity * multiplier
		if p.Type.IsShort() {
			pnl = -pnl
		}
		total += pnl
	}
	return total
}

// DailyUnrealizedPnLDelta sums the day-over-day mark-to-market change of
// every position that was active on both yesterday and today, using each
// day's own last close. Positions that entered or exited within the
// window are left to DailyRealizedPnL / the next day's aggregates.
func DailyUnrealizedPnLDelta(positions []domain.Position, date time.Time, todayClose, yesterdayClose map[string]float64) float64 {
	yesterday := date.AddDate(0, 0, -1)
	var total float64
	for _, p := range positions {
		if !p.ActiveOn(date) || !p.ActiveOn(yesterday) {
			continue
		}
		todayValue := p.Value(todayClose[p.Symbol], true, true)
		yesterdayValue := p.Value(yesterdayClose[p.Symbol], true, true)
		total += todayValue - yesterdayValue
	}
	return total
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// PortfolioVolatility is the dollar-weighted roll-up of position-level
// realized/forecast volatility, weighted by each position's absolute
// value share of the portfolio's total gross exposure (volatility is
// nonnegative, so a signed equity-weight — as AggregateBetas uses for
// beta — would let short positions subtract from the portfolio's risk
// instead of adding to it).
type PortfolioVolatility struct {
	RealizedVol21d       float64
	RealizedVol63d       float64
	ExpectedVolHAR       float64
	VolatilityPercentile float64
	VolatilityTrend      domain.VolatilityTrend
}

// AggregatePortfolioVolatility combines per-position volatility readings.
// Positions with no computed volatility (insufficient history) contribute
// nothing and are excluded from the weight base. Trend is read off
// whichever combination of 21d/63d vol is larger in weighted terms:
// 21d > 63d by a noticeable margin implies rising realized vol.
func AggregatePortfolioVolatility(weights map[string]float64, vols map[string]PositionVolatilityReading) PortfolioVolatility {
	var totalWeight float64
	var v21, v63, har, pct float64

	for symbol, w := range weights {
		reading, ok := vols[symbol]
		if !ok {
			continue
		}
		absW := w
		if absW < 0 {
			absW = -absW
		}
		totalWeight += absW
		v21 += absW * reading.RealizedVol21d
		v63 += absW * reading.RealizedVol63d
		har += absW * reading.ExpectedVolHAR
		pct += absW * reading.Percentile
	}

	if totalWeight == 0 {
		return PortfolioVolatility{}
	}

	out := PortfolioVolatility{
		RealizedVol21d:       v21 / totalWeight,
		RealizedVol63d:       v63 / totalWeight,
		ExpectedVolHAR:       har / totalWeight,
		VolatilityPercentile: pct / totalWeight,
	}

	switch {
	case out.RealizedVol21d > out.RealizedVol63d*1.1:
		out.VolatilityTrend = domain.TrendIncreasing
	case out.RealizedVol21d < out.RealizedVol63d*0.9:
		out.VolatilityTrend = domain.TrendDecreasing
	default:
		out.VolatilityTrend = domain.TrendStable
	}
	return out
}

// PositionVolatilityReading is the subset of internal/risk's VolatilityResult
// that orchestrator aggregates to the portfolio level.
type PositionVolatilityReading struct {
	RealizedVol21d float64
	RealizedVol63d float64
	ExpectedVolHAR float64
	Percentile     float64
}
