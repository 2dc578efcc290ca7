// Package aggregation turns pre-computed per-symbol factor betas
// (internal/factors) into per-portfolio factor exposures, per spec.md
// §4.4. It is a lookup-and-weight operation, not a regression: the
// expensive fit already happened once per symbol in internal/factors.
package aggregation

import (
	"time"

	"github.com/aristath/sentinel/internal/domain"
)

// PositionWeight is one active PUBLIC position's signed weight toward its
// portfolio's equity, with the option delta carried alongside for
// delta-adjusted aggregation.
type PositionWeight struct {
	PositionID string
	Symbol     string
	Weight     float64
	Delta      *float64
	IsOption   bool
}

// Result is the outcome of aggregating one portfolio's factor exposures.
// Skipped is non-empty exactly when Exposures is empty: spec.md §4.4 asks
// for a structured skip rather than an error in these cases.
type Result struct {
	Exposures      []domain.PortfolioFactorExposure
	Skipped        domain.SkipReason
	MissingSymbols []string // symbols with no cached factor beta, for diagnostics
}

// LoadPositionWeights computes the signed weight of every active PUBLIC
// position as of date, using lastClose for valuation. Positions with no
// price available are skipped (logged by the caller, not here) rather
// than failing the whole portfolio.
func LoadPositionWeights(positions []domain.Position, equityBalance float64, date time.Time, lastClose map[string]float64, greeks map[string]domain.PositionGreeks) []PositionWeight {
	weights := make([]PositionWeight, 0, len(positions))

	for _, p := range positions {
		if p.Class != domain.ClassPublic || !p.ActiveOn(date) {
			continue
		}
		close, ok := lastClose[p.Symbol]
		if !ok {
			continue
		}

		signedValue := p.Value(close, true, true)
		weight := signedValue / equityBalance

		isOption := p.Type.IsOption()
		var delta *float64
		if isOption {
			if g, ok := greeks[p.ID]; ok {
				d := g.Delta
				delta = &d
			}
		}

		weights = append(weights, PositionWeight{
			PositionID: p.ID,
			Symbol:     p.Symbol,
			Weight:     weight,
			Delta:      delta,
			IsOption:   isOption,
		})
	}

	return weights
}

// AggregateBetas computes portfolio-level beta per factor:
// β_P,f = Σ_i w_i · β_{symbol_i, f}, where w_i is optionally delta-adjusted
// (w_i × delta_i) for option positions when useDeltaAdjusted is true.
// Positions whose symbol has no entry in symbolBetas contribute 0 and are
// returned separately as missing-coverage diagnostics.
func AggregateBetas(weights []PositionWeight, symbolBetas map[string]map[domain.FactorID]float64, useDeltaAdjusted bool) (map[domain.FactorID]float64, []string) {
	portfolioBetas := make(map[domain.FactorID]float64)
	for _, factorID := range allFactors() {
		portfolioBetas[factorID] = 0
	}

	missingSet := make(map[string]bool)

	for _, w := range weights {
		betas, ok := symbolBetas[w.Symbol]
		if !ok {
			missingSet[w.Symbol] = true
			continue
		}

		effectiveWeight := w.Weight
		if useDeltaAdjusted && w.IsOption && w.Delta != nil {
			effectiveWeight = w.Weight * *w.Delta
		}

		for factorID, beta := range betas {
			portfolioBetas[factorID] += effectiveWeight * beta
		}
	}

	missing := make([]string, 0, len(missingSet))
	for s := range missingSet {
		missing = append(missing, s)
	}

	return portfolioBetas, missing
}

// Aggregate runs the full §4.4 pipeline for one portfolio/date, returning
// a structured skip when preconditions aren't met instead of an error.
func Aggregate(portfolio domain.Portfolio, positions []domain.Position, date time.Time, lastClose map[string]float64, greeks map[string]domain.PositionGreeks, symbolBetas map[string]map[domain.FactorID]float64, useDeltaAdjusted bool) Result {
	if portfolio.EquityBalance <= 0 {
		return Result{Skipped: domain.SkipZeroEquityBalance}
	}

	weights := LoadPositionWeights(positions, portfolio.EquityBalance, date, lastClose, greeks)
	if len(weights) == 0 {
		return Result{Skipped: domain.SkipNoPublicPositions}
	}

	portfolioBetas, missing := AggregateBetas(weights, symbolBetas, useDeltaAdjusted)
	covered := false
	for _, w := range weights {
		if _, ok := symbolBetas[w.Symbol]; ok {
			covered = true
			break
		}
	}
	if !covered {
		return Result{Skipped: domain.SkipNoSymbolBetas, MissingSymbols: missing}
	}

	exposures := make([]domain.PortfolioFactorExposure, 0, len(portfolioBetas))
	for factorID, beta := range portfolioBetas {
		exposures = append(exposures, domain.PortfolioFactorExposure{
			PortfolioID:    portfolio.ID,
			FactorID:       factorID,
			Date:           date,
			Beta:           beta,
			DollarExposure: beta * portfolio.EquityBalance,
		})
	}

	return Result{Exposures: exposures, MissingSymbols: missing}
}

func allFactors() []domain.FactorID {
	all := make([]domain.FactorID, 0, len(domain.RidgeFactors)+len(domain.SpreadFactors))
	all = append(all, domain.RidgeFactors...)
	all = append(all, domain.SpreadFactors...)
	return all
}
