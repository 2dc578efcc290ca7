package risk

import (
	"context"
	"sort"
	"time"

	"github.com/aristath/sentinel/internal/domain"
)

// SectorSource resolves a symbol's GICS-style sector classification. An
// out-of-pack collaborator populates this (company_profiles in the source
// system); internal/risk only reads it.
type SectorSource interface {
	Sector(ctx context.Context, symbol string) (string, bool)
}

// BenchmarkWeightSource resolves a named benchmark's sector weights as of
// a date, e.g. S&P 500 GICS sector weights. Like SectorSource, this is an
// injected collaborator — internal/risk never computes benchmark weights
// itself.
type BenchmarkWeightSource interface {
	SectorWeights(ctx context.Context, benchmarkCode string, asOf time.Time) (map[string]float64, bool)
}

// PositionMarketValue pairs a position's absolute market value with its
// resolved sector, for sector/concentration aggregation.
type PositionMarketValue struct {
	Symbol        string
	AbsoluteValue float64
	Sector        string
}

// ComputeSectorExposure aggregates positions' absolute market value by
// sector and compares against the benchmark's sector weights. Positions
// whose symbol has no sector classification are grouped under "" and
// excluded from the returned exposures (counted only in the total).
func ComputeSectorExposure(ctx context.Context, portfolioID string, date time.Time, values []PositionMarketValue, benchmark BenchmarkWeightSource) ([]domain.SectorExposure, error) {
	total := 0.0
	sectorTotals := make(map[string]float64)
	for _, v := range values {
		total += v.AbsoluteValue
		if v.Sector == "" {
			continue
		}
		sectorTotals[v.Sector] += v.AbsoluteValue
	}

	if total == 0 {
		return nil, nil
	}

	benchmarkWeights, _ := benchmark.SectorWeights(ctx, SectorBenchmarkCode, date)

	sectors := make(map[string]bool, len(sectorTotals)+len(benchmarkWeights))
	for s := range sectorTotals {
		sectors[s] = true
	}
	for s := range benchmarkWeights {
		sectors[s] = true
	}

	exposures := make([]domain.SectorExposure, 0, len(sectors))
	for sector := range sectors {
		weight := sectorTotals[sector] / total
		benchWeight := benchmarkWeights[sector]
		exposures = append(exposures, domain.SectorExposure{
			PortfolioID:     portfolioID,
			Date:            date,
			Sector:          sector,
			Weight:          weight,
			BenchmarkWeight: benchWeight,
			OverUnderweight: weight - benchWeight,
		})
	}

	return exposures, nil
}

// ComputeConcentration computes HHI, effective position count, and top-3/
// top-10 concentration from each position's absolute weight of total
// portfolio value.
func ComputeConcentration(portfolioID string, date time.Time, values []PositionMarketValue) domain.ConcentrationMetrics {
	total := 0.0
	for _, v := range values {
		total += v.AbsoluteValue
	}
	if total == 0 {
		return domain.ConcentrationMetrics{PortfolioID: portfolioID, Date: date}
	}

	weights := make([]float64, len(values))
	for i, v := range values {
		weights[i] = v.AbsoluteValue / total
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(weights)))

	hhi := 0.0
	for _, w := range weights {
		hhi += w * w
	}
	hhi *= 10000

	effective := 0.0
	if hhi > 0 {
		effective = 10000 / hhi
	}

	return domain.ConcentrationMetrics{
		PortfolioID:        portfolioID,
		Date:               date,
		HHI:                hhi,
		EffectivePositions: effective,
		Top3Concentration:  sumTopN(weights, 3),
		Top10Concentration: sumTopN(weights, 10),
	}
}

func sumTopN(sortedDescWeights []float64, n int) float64 {
	if n > len(sortedDescWeights) {
		n = len(sortedDescWeights)
	}
	sum := 0.0
	for _, w := range sortedDescWeights[:n] {
		sum += w
	}
	return sum
}
