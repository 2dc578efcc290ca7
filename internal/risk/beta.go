package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/factors"
	"github.com/aristath/sentinel/internal/marketdata"
)

// ComputeMarketBeta regresses symbol's returns against SPY over
// MarketBetaWindowDays trading days. ok is false when the aligned sample
// falls below MarketBetaMinObservations — the caller should skip
// persisting rather than store a low-confidence beta.
func ComputeMarketBeta(ctx context.Context, cache *marketdata.PriceCache, symbol string, date time.Time) (factors.OLSResult, bool, error) {
	return computeBenchmarkBeta(ctx, cache, symbol, MarketBenchmarkSymbol, date)
}

// ComputeIRBeta regresses symbol's returns against TLT (the long Treasury
// ETF) over the same window and minimum-sample policy as market beta.
// Negative values are typical for equities: rates up, price down.
func ComputeIRBeta(ctx context.Context, cache *marketdata.PriceCache, symbol string, date time.Time) (factors.OLSResult, bool, error) {
	return computeBenchmarkBeta(ctx, cache, symbol, IRBenchmarkSymbol, date)
}

func computeBenchmarkBeta(ctx context.Context, cache *marketdata.PriceCache, symbol, benchmark string, date time.Time) (factors.OLSResult, bool, error) {
	from := date.AddDate(0, 0, -(MarketBetaWindowDays + 30))

	returns, err := marketdata.GetReturns(ctx, cache, []string{symbol, benchmark}, from, date, true)
	if err != nil {
		return factors.OLSResult{}, false, fmt.Errorf("risk: fetching returns for %s vs %s: %w", symbol, benchmark, err)
	}

	symbolSeries := returns[symbol]
	benchmarkSeries := returns[benchmark]

	n := len(symbolSeries.Returns)
	if n != len(benchmarkSeries.Returns) {
		n = min(n, len(benchmarkSeries.Returns))
	}
	if n > MarketBetaWindowDays {
		symbolSeries.Returns = symbolSeries.Returns[n-MarketBetaWindowDays:]
		benchmarkSeries.Returns = benchmarkSeries.Returns[n-MarketBetaWindowDays:]
		n = MarketBetaWindowDays
	}

	if n < MarketBetaMinObservations {
		return factors.OLSResult{}, false, nil
	}

	result, err := factors.RunUnivariateOLS(symbolSeries.Returns, benchmarkSeries.Returns, BetaCap, SignificanceConfidence)
	if err != nil {
		return factors.OLSResult{}, false, err
	}

	return result, true, nil
}

// betaSymbolForPosition returns the symbol whose returns should be used for
// a position's beta/volatility calculations: the underlying for options,
// the position's own symbol otherwise.
func betaSymbolForPosition(p domain.Position) string {
	if p.UnderlyingSymbol != "" {
		return p.UnderlyingSymbol
	}
	return p.Symbol
}
