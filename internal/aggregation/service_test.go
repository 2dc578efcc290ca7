package aggregation

import (
	"testing"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/stretchr/testify/assert"
)

var asOf = time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

func longPosition(id, symbol string, qty float64) domain.Position {
	return domain.Position{
		ID:        id,
		Symbol:    symbol,
		Type:      domain.PositionLong,
		Class:     domain.ClassPublic,
		Quantity:  qty,
		EntryDate: asOf.AddDate(0, -1, 0),
	}
}

func TestLoadPositionWeights_ComputesSignedWeightAgainstEquity(t *testing.T) {
	positions := []domain.Position{longPosition("p1", "AAPL", 100)}
	lastClose := map[string]float64{"AAPL": 200}

	weights := LoadPositionWeights(positions, 10000, asOf, lastClose, nil)

	assert.Len(t, weights, 1)
	assert.InDelta(t, 2.0, weights[0].Weight, 1e-9) // 100*200 / 10000
}

func TestLoadPositionWeights_SkipsNonPublicAndInactivePositions(t *testing.T) {
	private := longPosition("p1", "PRIV", 1)
	private.Class = domain.ClassPrivate

	exited := longPosition("p2", "MSFT", 10)
	exitDate := asOf.AddDate(0, 0, -1)
	exited.ExitDate = &exitDate

	positions := []domain.Position{private, exited}
	lastClose := map[string]float64{"MSFT": 300}

	weights := LoadPositionWeights(positions, 10000, asOf, lastClose, nil)
	assert.Empty(t, weights)
}

func TestLoadPositionWeights_SkipsPositionsWithNoPrice(t *testing.T) {
	positions := []domain.Position{longPosition("p1", "NOPRICE", 5)}
	weights := LoadPositionWeights(positions, 10000, asOf, map[string]float64{}, nil)
	assert.Empty(t, weights)
}

func TestLoadPositionWeights_CarriesDeltaForOptions(t *testing.T) {
	option := longPosition("p1", "SPY", 2)
	option.Type = domain.PositionLongCall
	option.Class = domain.ClassOptions

	positions := []domain.Position{option}
	lastClose := map[string]float64{"SPY": 450}
	greeks := map[string]domain.PositionGreeks{"p1": {PositionID: "p1", Delta: 0.6}}

	weights := LoadPositionWeights(positions, 10000, asOf, lastClose, greeks)

	assert.Len(t, weights, 1)
	assert.True(t, weights[0].IsOption)
	assert.NotNil(t, weights[0].Delta)
	assert.InDelta(t, 0.6, *weights[0].Delta, 1e-9)
}

func TestAggregateBetas_WeightsContributionsPerFactor(t *testing.T) {
	weights := []PositionWeight{
		{Symbol: "AAPL", Weight: 0.5},
		{Symbol: "MSFT", Weight: 0.5},
	}
	symbolBetas := map[string]map[domain.FactorID]float64{
		"AAPL": {domain.FactorValue: 1.0, domain.FactorGrowth: 2.0},
		"MSFT": {domain.FactorValue: 0.0, domain.FactorGrowth: 1.0},
	}

	betas, missing := AggregateBetas(weights, symbolBetas, false)

	assert.Empty(t, missing)
	assert.InDelta(t, 0.5, betas[domain.FactorValue], 1e-9)
	assert.InDelta(t, 1.5, betas[domain.FactorGrowth], 1e-9)
}

func TestAggregateBetas_DeltaAdjustsOptionWeightWhenEnabled(t *testing.T) {
	delta := 0.5
	weights := []PositionWeight{
		{Symbol: "SPY", Weight: 1.0, IsOption: true, Delta: &delta},
	}
	symbolBetas := map[string]map[domain.FactorID]float64{
		"SPY": {domain.FactorValue: 2.0},
	}

	adjusted, _ := AggregateBetas(weights, symbolBetas, true)
	unadjusted, _ := AggregateBetas(weights, symbolBetas, false)

	assert.InDelta(t, 1.0, adjusted[domain.FactorValue], 1e-9)  // 1.0*0.5*2.0
	assert.InDelta(t, 2.0, unadjusted[domain.FactorValue], 1e-9) // 1.0*2.0
}

func TestAggregateBetas_ReportsMissingSymbolCoverage(t *testing.T) {
	weights := []PositionWeight{
		{Symbol: "KNOWN", Weight: 1.0},
		{Symbol: "UNKNOWN", Weight: 1.0},
	}
	symbolBetas := map[string]map[domain.FactorID]float64{
		"KNOWN": {domain.FactorValue: 1.0},
	}

	_, missing := AggregateBetas(weights, symbolBetas, false)
	assert.Equal(t, []string{"UNKNOWN"}, missing)
}

func TestAggregate_SkipsWhenEquityBalanceIsZeroOrNegative(t *testing.T) {
	portfolio := domain.Portfolio{ID: "port1", EquityBalance: 0}
	result := Aggregate(portfolio, nil, asOf, nil, nil, nil, false)
	assert.Equal(t, domain.SkipZeroEquityBalance, result.Skipped)
	assert.Empty(t, result.Exposures)
}

func TestAggregate_SkipsWhenNoPublicPositions(t *testing.T) {
	portfolio := domain.Portfolio{ID: "port1", EquityBalance: 10000}
	positions := []domain.Position{}
	result := Aggregate(portfolio, positions, asOf, nil, nil, nil, false)
	assert.Equal(t, domain.SkipNoPublicPositions, result.Skipped)
}

func TestAggregate_SkipsWhenNoSymbolBetasAvailableForAnyPosition(t *testing.T) {
	portfolio := domain.Portfolio{ID: "port1", EquityBalance: 10000}
	positions := []domain.Position{longPosition("p1", "AAPL", 10)}
	lastClose := map[string]float64{"AAPL": 100}

	result := Aggregate(portfolio, positions, asOf, lastClose, nil, map[string]map[domain.FactorID]float64{}, false)

	assert.Equal(t, domain.SkipNoSymbolBetas, result.Skipped)
}

func TestAggregate_ProducesExposuresWithDollarAmounts(t *testing.T) {
	portfolio := domain.Portfolio{ID: "port1", EquityBalance: 10000}
	positions := []domain.Position{longPosition("p1", "AAPL", 100)}
	lastClose := map[string]float64{"AAPL": 100} // weight = 1.0
	symbolBetas := map[string]map[domain.FactorID]float64{
		"AAPL": {domain.FactorValue: 1.2},
	}

	result := Aggregate(portfolio, positions, asOf, lastClose, nil, symbolBetas, false)

	assert.Empty(t, result.Skipped)
	var found bool
	for _, exp := range result.Exposures {
		if exp.FactorID == domain.FactorValue {
			found = true
			assert.InDelta(t, 1.2, exp.Beta, 1e-9)
			assert.InDelta(t, 12000.0, exp.DollarExposure, 1e-6)
		}
	}
	assert.True(t, found)
}
