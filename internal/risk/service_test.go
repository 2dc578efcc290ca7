package risk

import (
	"context"
	"testing"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestComputePositionRisk_PopulatesAllThreeMetricsWhenSufficientHistory(t *testing.T) {
	cache := marketdata.NewPriceCache(syntheticProvider{correlated: true})
	svc := NewService(cache, nil, nil, zerolog.Nop())

	position := domain.Position{ID: "p1", PortfolioID: "port1", Symbol: "AAPL"}
	risk := svc.ComputePositionRisk(context.Background(), position, testDate)

	assert.NotNil(t, risk.MarketBeta)
	assert.NotNil(t, risk.IRBeta)
	assert.NotNil(t, risk.Volatility)
}

func TestComputePositionRisk_UsesUnderlyingSymbolForOptions(t *testing.T) {
	cache := marketdata.NewPriceCache(syntheticProvider{correlated: true})
	svc := NewService(cache, nil, nil, zerolog.Nop())

	option := domain.Position{ID: "p1", PortfolioID: "port1", Symbol: "AAPL240119C00150000", UnderlyingSymbol: "AAPL", Class: domain.ClassOptions, Type: domain.PositionLongCall}
	risk := svc.ComputePositionRisk(context.Background(), option, testDate)

	assert.NotNil(t, risk.Volatility)
	assert.Equal(t, "AAPL", risk.Volatility.Symbol)
}

func TestAggregatePortfolioRisk_WeightsBetaByEquityShare(t *testing.T) {
	cache := marketdata.NewPriceCache(syntheticProvider{correlated: true})
	svc := NewService(cache, fakeSectorSource{sectors: map[string]string{"AAPL": "Technology"}}, nil, zerolog.Nop())

	position := domain.Position{ID: "p1", PortfolioID: "port1", Symbol: "AAPL", Type: domain.PositionLong, Class: domain.ClassPublic, Quantity: 100}
	risks := map[string]PositionRisk{
		"p1": {MarketBeta: &domain.PositionMarketBeta{Beta: 1.2}, IRBeta: &domain.PositionIRBeta{Beta: -0.3}},
	}
	lastClose := map[string]float64{"AAPL": 100}

	aggregate := svc.AggregatePortfolioRisk(context.Background(), "port1", testDate, []domain.Position{position}, lastClose, 10000, risks)

	// weight = 100*100/10000 = 1.0
	assert.InDelta(t, 1.2, aggregate.MarketBeta, 1e-9)
	assert.InDelta(t, -0.3, aggregate.IRBeta, 1e-9)
	assert.InDelta(t, 10000.0, aggregate.Concentration.HHI, 1e-6) // single position => max concentration
}

func TestAggregatePortfolioRisk_SkipsPositionsWithNoLastClose(t *testing.T) {
	cache := marketdata.NewPriceCache(syntheticProvider{})
	svc := NewService(cache, nil, nil, zerolog.Nop())

	position := domain.Position{ID: "p1", PortfolioID: "port1", Symbol: "NOPRICE"}
	aggregate := svc.AggregatePortfolioRisk(context.Background(), "port1", testDate, []domain.Position{position}, map[string]float64{}, 10000, nil)

	assert.Equal(t, 0.0, aggregate.MarketBeta)
	assert.Equal(t, 0.0, aggregate.Concentration.HHI)
}
