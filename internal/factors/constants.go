// Package factors computes the symbol factor universe described in
// spec.md §4.3: six Ridge factor betas and four spread factor betas per
// symbol, persisted once per day and shared by every portfolio that holds
// the symbol.
package factors

import "github.com/aristath/sentinel/internal/domain"

const (
	// RidgeWindowDays is the trading-day window for the multivariate
	// ridge regression against the six factor ETFs.
	RidgeWindowDays = 60

	// RidgeLambda is the L2 penalty applied for numerical stability.
	RidgeLambda = 1.0

	// SpreadWindowDays is the trading-day window for the four univariate
	// spread-factor OLS regressions.
	SpreadWindowDays = 180

	// SpreadMinObservations is the minimum sample size below which a
	// spread regression is not run at all.
	SpreadMinObservations = 60

	// BetaCap bounds every factor beta (Ridge and spread) to ±BetaCap.
	BetaCap = 5.0

	// SignificanceConfidence is the confidence level used to flag a
	// spread beta as statistically significant.
	SignificanceConfidence = 0.90
)

// RidgeFactorETF maps each Ridge factor to the long-only ETF whose returns
// proxy that factor. Five of the six also appear in the spread pairs
// below (VUG, MTUM, IWM and QUAL as long legs, VTV as a short leg; USMV
// is in no pair) — factors_spread.py's stated motivation ("spreads
// address multicollinearity in the raw factor ETFs") implies they anchor
// the same raw set; see DESIGN.md Open Questions for the full rationale.
var RidgeFactorETF = map[domain.FactorID]string{
	domain.FactorValue:         "VTV",
	domain.FactorGrowth:        "VUG",
	domain.FactorMomentum:      "MTUM",
	domain.FactorQuality:       "QUAL",
	domain.FactorSize:          "IWM",
	domain.FactorLowVolatility: "USMV",
}

// SpreadPair is a long-short ETF pair whose return difference proxies a
// spread factor.
type SpreadPair struct {
	Long  string
	Short string
}

// SpreadFactorETF maps each spread factor to its long/short ETF pair, per
// factors_spread.py's module docstring.
var SpreadFactorETF = map[domain.FactorID]SpreadPair{
	domain.FactorSpreadGrowthVal: {Long: "VUG", Short: "VTV"},
	domain.FactorSpreadMomentum:  {Long: "MTUM", Short: "SPY"},
	domain.FactorSpreadSize:      {Long: "IWM", Short: "SPY"},
	domain.FactorSpreadQuality:   {Long: "QUAL", Short: "SPY"},
}

// AllETFSymbols returns the deduplicated union of every ETF ticker the
// factor universe needs bars for, used by the orchestrator to extend its
// symbol-refresh set per spec.md §4.3 ("the union of symbols present
// across all active portfolios, and all factor ETFs").
func AllETFSymbols() []string {
	seen := make(map[string]bool)
	var symbols []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			symbols = append(symbols, s)
		}
	}

	for _, etf := range RidgeFactorETF {
		add(etf)
	}
	for _, pair := range SpreadFactorETF {
		add(pair.Long)
		add(pair.Short)
	}
	return symbols
}
