package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSectorSource struct {
	sectors map[string]string
}

func (f fakeSectorSource) Sector(ctx context.Context, symbol string) (string, bool) {
	s, ok := f.sectors[symbol]
	return s, ok
}

type fakeBenchmarkSource struct {
	weights map[string]float64
}

func (f fakeBenchmarkSource) SectorWeights(ctx context.Context, benchmarkCode string, asOf time.Time) (map[string]float64, bool) {
	return f.weights, true
}

func TestComputeConcentration_HHIAndEffectivePositions(t *testing.T) {
	values := []PositionMarketValue{
		{Symbol: "A", AbsoluteValue: 500},
		{Symbol: "B", AbsoluteValue: 300},
		{Symbol: "C", AbsoluteValue: 200},
	}

	metrics := ComputeConcentration("port1", testDate, values)

	assert.InDelta(t, 3800, metrics.HHI, 1e-6)
	assert.InDelta(t, 10000.0/3800.0, metrics.EffectivePositions, 1e-9)
	assert.InDelta(t, 1.0, metrics.Top3Concentration, 1e-9)
}

func TestComputeConcentration_ZeroTotalValueReturnsZeroedMetrics(t *testing.T) {
	metrics := ComputeConcentration("port1", testDate, nil)
	assert.Equal(t, 0.0, metrics.HHI)
	assert.Equal(t, 0.0, metrics.EffectivePositions)
}

func TestComputeSectorExposure_ComparesAgainstBenchmark(t *testing.T) {
	values := []PositionMarketValue{
		{Symbol: "AAPL", AbsoluteValue: 700, Sector: "Technology"},
		{Symbol: "XOM", AbsoluteValue: 300, Sector: "Energy"},
	}
	benchmark := fakeBenchmarkSource{weights: map[string]float64{"Technology": 0.28, "Energy": 0.04}}

	exposures, err := ComputeSectorExposure(context.Background(), "port1", testDate, values, benchmark)
	require.NoError(t, err)

	var tech, energy bool
	for _, e := range exposures {
		switch e.Sector {
		case "Technology":
			tech = true
			assert.InDelta(t, 0.7, e.Weight, 1e-9)
			assert.InDelta(t, 0.7-0.28, e.OverUnderweight, 1e-9)
		case "Energy":
			energy = true
			assert.InDelta(t, 0.3, e.Weight, 1e-9)
		}
	}
	assert.True(t, tech)
	assert.True(t, energy)
}

func TestComputeSectorExposure_UnclassifiedPositionsExcludedFromExposureRows(t *testing.T) {
	values := []PositionMarketValue{
		{Symbol: "AAPL", AbsoluteValue: 500, Sector: "Technology"},
		{Symbol: "UNKNOWN", AbsoluteValue: 500, Sector: ""},
	}
	benchmark := fakeBenchmarkSource{weights: map[string]float64{"Technology": 0.28}}

	exposures, err := ComputeSectorExposure(context.Background(), "port1", testDate, values, benchmark)
	require.NoError(t, err)

	for _, e := range exposures {
		assert.NotEqual(t, "", e.Sector)
	}
	// unclassified value still counts toward the total, so Technology's
	// weight is 500/1000, not 500/500.
	for _, e := range exposures {
		if e.Sector == "Technology" {
			assert.InDelta(t, 0.5, e.Weight, 1e-9)
		}
	}
}
