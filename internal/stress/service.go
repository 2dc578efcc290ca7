package stress

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultCorrelationScale implements scale = 1 / (1 + shocked_count): with
// one shocked factor, correlated spillover should not outweigh the direct
// shock; as more factors are shocked simultaneously their pairwise
// correlations increasingly double-count shared variance, so the scale
// shrinks. See DESIGN.md Open Questions for the full rationale.
func DefaultCorrelationScale(shockedFactorCount int) float64 {
	return 1.0 / (1.0 + float64(shockedFactorCount))
}

// Config parameterizes one Service beyond the scenario library's own
// correlation-clamp bounds.
type Config struct {
	CorrelationScaleFunc func(shockedFactorCount int) float64
}

// Service runs a portfolio's active scenario library against a shared
// factor correlation matrix that internal/di computes once per process at
// startup.
type Service struct {
	library *Library
	config  Config
	log     zerolog.Logger
}

func NewService(library *Library, log zerolog.Logger) *Service {
	return &Service{
		library: library,
		config:  Config{CorrelationScaleFunc: DefaultCorrelationScale},
		log:     log.With().Str("component", "stress").Logger(),
	}
}

// RunAll executes every active scenario in the library for one
// portfolio/date. matrix is computed once per process at startup by
// internal/di (via ComputeFactorCorrelationMatrix) and shared read-only
// across every portfolio and every batch run.
func (s *Service) RunAll(portfolioID string, date time.Time, exposures map[domain.FactorID]domain.PortfolioFactorExposure, equityBalance float64, matrix domain.FactorCorrelationMatrix) ([]domain.StressTestResult, error) {
	active := s.library.ActiveScenarios()
	results := make([]domain.StressTestResult, 0, len(active))

	for _, scenario := range active {
		result, err := s.runScenario(portfolioID, date, scenario, exposures, equityBalance, matrix)
		if err != nil {
			return nil, fmt.Errorf("stress: scenario %q: %w", scenario.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

func (s *Service) runScenario(portfolioID string, date time.Time, scenario domain.StressScenario, exposures map[domain.FactorID]domain.PortfolioFactorExposure, equityBalance float64, matrix domain.FactorCorrelationMatrix) (domain.StressTestResult, error) {
	impacts := directImpacts(scenario, exposures, equityBalance)

	var directTotal float64
	usedFallback := false
	for _, imp := range impacts {
		directTotal += imp.FactorPnL
		usedFallback = usedFallback || imp.UsedFallback
	}

	scale := s.config.CorrelationScaleFunc(len(scenario.ShockedFactors))
	correlatedTotal := correlatedPnL(directTotal, impacts, matrix, scale)

	impactJSON, err := json.Marshal(impacts)
	if err != nil {
		return domain.StressTestResult{}, err
	}

	if len(impacts) < len(scenario.ShockedFactors) {
		s.log.Warn().
			Str("portfolio_id", portfolioID).
			Str("scenario", scenario.Name).
			Int("shocked_factors", len(scenario.ShockedFactors)).
			Int("priced_factors", len(impacts)).
			Msg("stress: some shocked factors had no portfolio beta to price")
	}

	return domain.StressTestResult{
		PortfolioID:      portfolioID,
		ScenarioName:     scenario.Name,
		Date:             date,
		DirectPnL:        directTotal,
		CorrelatedPnL:    correlatedTotal,
		FactorImpactJSON: string(impactJSON),
		UsedFallback:     usedFallback,
	}, nil
}
