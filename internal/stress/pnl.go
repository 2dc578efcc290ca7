package stress

import "github.com/aristath/sentinel/internal/domain"

// FactorImpact is one scenario's per-factor P&L contribution, the slice
// serialized into StressTestResult.FactorImpactJSON.
type FactorImpact struct {
	FactorID      domain.FactorID `json:"factor_id"`
	ShockPct      float64         `json:"shock_pct"`
	ExposureBasis float64         `json:"exposure_basis"`
	FactorPnL     float64         `json:"factor_pnl"`
	UsedFallback  bool            `json:"used_fallback"`
}

// directImpacts computes impact_f = shock_f * exposure_basis for every
// factor the scenario shocks. exposure_basis is the portfolio's precomputed
// dollar exposure to f, already beta-weighted (aggregation's DollarExposure
// = beta_f * equityBalance); when that is unset (a factor the aggregation
// phase never priced a dollar amount for) it falls back to computing the
// same product, beta_f * equityBalance, directly and is tagged as such. A
// factor the portfolio has no beta for at all cannot be priced and is
// skipped from the returned slice entirely, not zero-filled.
func directImpacts(scenario domain.StressScenario, exposures map[domain.FactorID]domain.PortfolioFactorExposure, equityBalance float64) []FactorImpact {
	impacts := make([]FactorImpact, 0, len(scenario.ShockedFactors))

	for factorID, shock := range scenario.ShockedFactors {
		exposure, ok := exposures[factorID]
		if !ok {
			continue
		}

		basis := exposure.DollarExposure
		fallback := false
		if basis == 0 {
			basis = exposure.Beta * equityBalance
			fallback = true
		}

		impacts = append(impacts, FactorImpact{
			FactorID:      factorID,
			ShockPct:      shock,
			ExposureBasis: basis,
			FactorPnL:     shock * basis,
			UsedFallback:  fallback,
		})
	}

	return impacts
}

// correlatedPnL spreads each shocked factor's direct impact onto every
// unshocked factor g via C[g,f], sums the spillover, and scales it down
// before adding it back to the direct total. See DESIGN.md for the
// correlation-scale rationale.
func correlatedPnL(directTotal float64, impacts []FactorImpact, matrix domain.FactorCorrelationMatrix, scale float64) float64 {
	shockedPnL := make(map[domain.FactorID]float64, len(impacts))
	for _, imp := range impacts {
		shockedPnL[imp.FactorID] = imp.FactorPnL
	}

	var spillover float64
	for g, row := range matrix.Values {
		if _, shocked := shockedPnL[g]; shocked {
			continue
		}
		for f, pnl := range shockedPnL {
			spillover += row[f] * pnl
		}
	}

	return directTotal + spillover*scale
}
