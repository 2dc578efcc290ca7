package stress

import (
	"testing"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDirectImpacts_UsesPrecomputedDollarExposureWhenPresent(t *testing.T) {
	scenario := domain.StressScenario{
		ShockedFactors: map[domain.FactorID]float64{domain.FactorMomentum: -0.10},
	}
	exposures := map[domain.FactorID]domain.PortfolioFactorExposure{
		domain.FactorMomentum: {Beta: 1.2, DollarExposure: 50000},
	}

	impacts := directImpacts(scenario, exposures, 1_000_000)

	assert.Len(t, impacts, 1)
	assert.False(t, impacts[0].UsedFallback)
	assert.Equal(t, 50000.0, impacts[0].ExposureBasis)
	assert.InDelta(t, -0.10*50000, impacts[0].FactorPnL, 1e-9)
}

// TestDirectImpacts_MatchesWorkedExampleExactly pins the fallback path to
// spec.md §8 scenario 5's own numbers (beta=1.2, shock=-0.10,
// equity=1,000,000 -> -120,000). FactorPnL must be shock * basis, not
// beta * shock * basis: basis already carries the beta weighting
// (beta * equityBalance), so multiplying by beta a second time would yield
// -144,000 instead of the documented -120,000.
func TestDirectImpacts_MatchesWorkedExampleExactly(t *testing.T) {
	scenario := domain.StressScenario{
		ShockedFactors: map[domain.FactorID]float64{domain.FactorMomentum: -0.10},
	}
	exposures := map[domain.FactorID]domain.PortfolioFactorExposure{
		domain.FactorMomentum: {Beta: 1.2, DollarExposure: 0},
	}

	impacts := directImpacts(scenario, exposures, 1_000_000)

	assert.Len(t, impacts, 1)
	assert.True(t, impacts[0].UsedFallback)
	assert.Equal(t, 1_200_000.0, impacts[0].ExposureBasis)
	assert.InDelta(t, -120_000.0, impacts[0].FactorPnL, 1e-9)
}

func TestDirectImpacts_FallsBackToBetaTimesEquityWhenDollarExposureMissing(t *testing.T) {
	scenario := domain.StressScenario{
		ShockedFactors: map[domain.FactorID]float64{domain.FactorSize: -0.20},
	}
	exposures := map[domain.FactorID]domain.PortfolioFactorExposure{
		domain.FactorSize: {Beta: 0.5, DollarExposure: 0},
	}

	impacts := directImpacts(scenario, exposures, 2_000_000)

	assert.Len(t, impacts, 1)
	assert.True(t, impacts[0].UsedFallback)
	assert.Equal(t, 0.5*2_000_000, impacts[0].ExposureBasis)
	assert.InDelta(t, -0.20*0.5*2_000_000, impacts[0].FactorPnL, 1e-9)
}

func TestDirectImpacts_SkipsFactorsWithNoExposureRow(t *testing.T) {
	scenario := domain.StressScenario{
		ShockedFactors: map[domain.FactorID]float64{domain.FactorQuality: 0.05},
	}
	impacts := directImpacts(scenario, map[domain.FactorID]domain.PortfolioFactorExposure{}, 1_000_000)
	assert.Empty(t, impacts)
}

func TestCorrelatedPnL_AddsScaledSpilloverFromUnshockedFactors(t *testing.T) {
	impacts := []FactorImpact{{FactorID: domain.FactorMomentum, FactorPnL: -1000}}
	matrix := domain.FactorCorrelationMatrix{
		Values: map[domain.FactorID]map[domain.FactorID]float64{
			domain.FactorMomentum: {domain.FactorMomentum: 1.0, domain.FactorSize: 0.5},
			domain.FactorSize:     {domain.FactorSize: 1.0, domain.FactorMomentum: 0.5},
		},
	}

	result := correlatedPnL(-1000, impacts, matrix, 0.5)

	// spillover onto SIZE = 0.5 * -1000 = -500, scaled by 0.5 = -250
	assert.InDelta(t, -1250, result, 1e-9)
}

func TestCorrelatedPnL_IgnoresShockedFactorsWhenSummingSpillover(t *testing.T) {
	impacts := []FactorImpact{
		{FactorID: domain.FactorMomentum, FactorPnL: -1000},
		{FactorID: domain.FactorSize, FactorPnL: -200},
	}
	matrix := domain.FactorCorrelationMatrix{
		Values: map[domain.FactorID]map[domain.FactorID]float64{
			domain.FactorMomentum: {domain.FactorMomentum: 1.0, domain.FactorSize: 0.9, domain.FactorQuality: 0.3},
			domain.FactorSize:     {domain.FactorSize: 1.0, domain.FactorMomentum: 0.9, domain.FactorQuality: 0.1},
			domain.FactorQuality:  {domain.FactorQuality: 1.0, domain.FactorMomentum: 0.3, domain.FactorSize: 0.1},
		},
	}

	result := correlatedPnL(-1200, impacts, matrix, 1.0)

	// only QUALITY is unshocked: spillover = 0.3*-1000 + 0.1*-200 = -320
	assert.InDelta(t, -1520, result, 1e-9)
}
