package stress

import (
	"testing"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RunAll_OnlyRunsActiveScenarios(t *testing.T) {
	lib := &Library{
		MinCorrelation: -0.95,
		MaxCorrelation: 0.95,
		Scenarios: []domain.StressScenario{
			{Name: "active-one", Active: true, ShockedFactors: map[domain.FactorID]float64{domain.FactorMomentum: -0.1}},
			{Name: "inactive-one", Active: false, ShockedFactors: map[domain.FactorID]float64{domain.FactorMomentum: -0.9}},
		},
	}
	svc := NewService(lib, zerolog.Nop())

	exposures := map[domain.FactorID]domain.PortfolioFactorExposure{
		domain.FactorMomentum: {Beta: 1.0, DollarExposure: 100000},
	}
	matrix := domain.FactorCorrelationMatrix{Values: map[domain.FactorID]map[domain.FactorID]float64{
		domain.FactorMomentum: {domain.FactorMomentum: 1.0},
	}}

	results, err := svc.RunAll("port1", time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC), exposures, 1_000_000, matrix)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "active-one", results[0].ScenarioName)
}

func TestService_RunScenario_ProducesDirectAndCorrelatedPnL(t *testing.T) {
	lib := &Library{
		Scenarios: []domain.StressScenario{
			{
				Name:           "market-down-10",
				Active:         true,
				ShockedFactors: map[domain.FactorID]float64{domain.FactorMomentum: -0.10},
			},
		},
	}
	svc := NewService(lib, zerolog.Nop())

	exposures := map[domain.FactorID]domain.PortfolioFactorExposure{
		domain.FactorMomentum: {Beta: 1.1, DollarExposure: 200000},
		domain.FactorSize:     {Beta: 0.4, DollarExposure: 50000},
	}
	matrix := domain.FactorCorrelationMatrix{Values: map[domain.FactorID]map[domain.FactorID]float64{
		domain.FactorMomentum: {domain.FactorMomentum: 1.0, domain.FactorSize: 0.6},
		domain.FactorSize:     {domain.FactorSize: 1.0, domain.FactorMomentum: 0.6},
	}}

	results, err := svc.RunAll("port1", time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC), exposures, 1_000_000, matrix)

	require.NoError(t, err)
	require.Len(t, results, 1)
	result := results[0]

	wantDirect := -0.10 * 200000
	assert.InDelta(t, wantDirect, result.DirectPnL, 1e-6)
	assert.NotEqual(t, result.DirectPnL, result.CorrelatedPnL)
	assert.NotEmpty(t, result.FactorImpactJSON)
	assert.False(t, result.UsedFallback)
}

func TestService_RunScenario_FlagsResultAsUsedFallbackWhenAnyImpactFellBack(t *testing.T) {
	lib := &Library{
		Scenarios: []domain.StressScenario{
			{Name: "s", Active: true, ShockedFactors: map[domain.FactorID]float64{domain.FactorSize: -0.1}},
		},
	}
	svc := NewService(lib, zerolog.Nop())

	exposures := map[domain.FactorID]domain.PortfolioFactorExposure{
		domain.FactorSize: {Beta: 0.3, DollarExposure: 0},
	}
	matrix := domain.FactorCorrelationMatrix{Values: map[domain.FactorID]map[domain.FactorID]float64{
		domain.FactorSize: {domain.FactorSize: 1.0},
	}}

	results, err := svc.RunAll("port1", time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC), exposures, 500_000, matrix)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].UsedFallback)
}
