package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/sentinel/internal/aggregation"
	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/aristath/sentinel/internal/risk"
	"github.com/aristath/sentinel/internal/snapshot"
	"github.com/google/uuid"
)

// PortfolioDateResult is the outcome of running P1-P8 for one (portfolio,
// date) pair.
type PortfolioDateResult struct {
	PortfolioID string
	Date        time.Time
	Skipped     domain.SkipReason
	Err         error
}

func lastClose(ctx context.Context, cache *marketdata.PriceCache, symbol string, date time.Time) (float64, bool) {
	bars, err := cache.Bars(ctx, symbol, date.AddDate(0, 0, -10), date)
	if err != nil || len(bars) == 0 {
		return 0, false
	}
	return bars[len(bars)-1].Close, true
}

// runPortfolioDate executes P1 through P8 strictly in order for one
// portfolio/date. A phase failure aborts the remaining phases for this
// portfolio only (spec.md §4.9's per-portfolio partial-failure policy);
// the placeholder row written by P5, if any, is left for admin cleanup.
func (s *Service) runPortfolioDate(ctx context.Context, portfolio domain.Portfolio, date time.Time, forceRerun bool) PortfolioDateResult {
	res := PortfolioDateResult{PortfolioID: portfolio.ID, Date: date}

	positions, err := s.repo.PositionsByPortfolio(ctx, portfolio.ID)
	if err != nil {
		res.Err = fmt.Errorf("load positions: %w", err)
		return res
	}

	symbols := activeSymbols(positions, date)
	todayClose := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		if c, ok := lastClose(ctx, s.cache, sym, date); ok {
			todayClose[sym] = c
		} else {
			s.log.Warn().Str("symbol", sym).Str("portfolio_id", portfolio.ID).Msg("no price available, symbol excluded from today's marks")
		}
	}

	// P1: update_position_values
	for _, p := range positions {
		if !p.ActiveOn(date) || p.Class == domain.ClassPrivate {
			continue
		}
		close, ok := todayClose[p.Symbol]
		if !ok {
			continue
		}
		value := p.Value(close, true, true)
		if err := s.repo.UpdatePositionMarketValue(ctx, p.ID, value); err != nil {
			s.log.Warn().Err(err).Str("position_id", p.ID).Msg("failed to persist position market value")
		}
	}

	greeks, err := s.repo.Greeks(ctx, positionIDs(positions), date)
	if err != nil {
		s.log.Warn().Err(err).Str("portfolio_id", portfolio.ID).Msg("failed to load position greeks, proceeding without delta")
		greeks = map[string]domain.PositionGreeks{}
	}

	prevSnapshot, err := s.repo.PreviousSnapshot(ctx, portfolio.ID, date)
	if err != nil {
		res.Err = fmt.Errorf("load previous snapshot: %w", err)
		return res
	}
	previousEquity := portfolio.EquityBalance
	previousCumulativePnL, previousCumulativeRealized := 0.0, 0.0
	yesterdayClose := map[string]float64{}
	if prevSnapshot != nil {
		previousEquity = prevSnapshot.EquityBalance
		previousCumulativePnL = prevSnapshot.CumulativePnL
		previousCumulativeRealized = prevSnapshot.CumulativeRealizedPnL
		for _, sym := range symbols {
			if c, ok := lastClose(ctx, s.cache, sym, date.AddDate(0, 0, -1)); ok {
				yesterdayClose[sym] = c
			}
		}
	}

	priorDayAbandoned, err := s.snapshots.PriorDayAbandoned(ctx, portfolio.ID, date)
	if err != nil {
		res.Err = fmt.Errorf("check prior day snapshot: %w", err)
		return res
	}

	dailyRealized := DailyRealizedPnL(positions, date)
	dailyUnrealizedDelta := DailyUnrealizedPnLDelta(positions, date, todayClose, yesterdayClose)
	dailyPnL := dailyRealized + dailyUnrealizedDelta

	// P2: update_equity_balance (rollforward)
	dailyFlow, err := s.capitalFlows.NetFlow(ctx, portfolio.ID, date)
	if err != nil {
		res.Err = fmt.Errorf("fetch capital flow: %w", err)
		return res
	}
	newEquity := snapshot.EquityRollforward(previousEquity, dailyRealized, dailyFlow, priorDayAbandoned)
	if err := s.repo.UpdatePortfolioEquityBalance(ctx, portfolio.ID, newEquity); err != nil {
		res.Err = fmt.Errorf("persist rolled-forward equity: %w", err)
		return res
	}

	// P3: portfolio_aggregation
	agg := AggregatePositionValues(positions, date, todayClose, greeks)

	// P4: factor lookups — pure read against the global symbol universe
	// pre-pass (runSymbolUniverse), never a live regression per portfolio.
	symbolBetas, err := s.factorsRepo.Exposures(ctx, symbols, date)
	if err != nil {
		s.log.Warn().Err(err).Str("portfolio_id", portfolio.ID).Msg("failed to load symbol factor exposures")
		symbolBetas = map[string]map[domain.FactorID]float64{}
	}

	aggResult := aggregation.Aggregate(portfolio, positions, date, todayClose, greeks, symbolBetas, true)
	if aggResult.Skipped != "" {
		res.Skipped = aggResult.Skipped
	} else if err := s.repo.UpsertFactorExposures(ctx, aggResult.Exposures); err != nil {
		res.Err = fmt.Errorf("persist factor exposures: %w", err)
		return res
	}

	positionRisks := make(map[string]risk.PositionRisk, len(positions))
	volReadings := make(map[string]PositionVolatilityReading)
	positionWeights := make(map[string]float64)
	for _, p := range positions {
		if !p.ActiveOn(date) {
			continue
		}
		pr := s.riskSvc.ComputePositionRisk(ctx, p, date)
		positionRisks[p.ID] = pr
		if pr.Volatility != nil {
			volReadings[p.Symbol] = PositionVolatilityReading{
				RealizedVol21d: pr.Volatility.RealizedVol21d,
				RealizedVol63d: pr.Volatility.RealizedVol63d,
				ExpectedVolHAR: pr.Volatility.ExpectedVolHAR,
				Percentile:     pr.Volatility.Percentile,
			}
		}
		if close, ok := todayClose[p.Symbol]; ok && portfolio.EquityBalance != 0 {
			positionWeights[p.Symbol] = p.Value(close, true, true) / newEquity
		}
	}
	riskAgg := s.riskSvc.AggregatePortfolioRisk(ctx, portfolio.ID, date, positions, todayClose, newEquity, positionRisks)
	volAgg := AggregatePortfolioVolatility(positionWeights, volReadings)

	sectorJSON, err := json.Marshal(riskAgg.SectorExposures)
	if err != nil {
		sectorJSON = []byte("{}")
	}

	// P5: snapshot placeholder
	staged, err := s.snapshots.StagePlaceholder(ctx, portfolio.ID, date, previousEquity, forceRerun)
	if err != nil {
		res.Err = fmt.Errorf("stage snapshot placeholder: %w", err)
		return res
	}
	if !staged {
		return res
	}

	// P6: snapshot completion
	fields := snapshot.Fields{
		TotalValue:            agg.TotalValue,
		LongValue:             agg.LongValue,
		ShortValue:            agg.ShortValue,
		GrossExposure:         agg.GrossExposure,
		NetExposure:           agg.NetExposure,
		DailyPnL:              dailyPnL,
		CumulativePnL:         previousCumulativePnL + dailyPnL,
		CumulativeRealizedPnL: previousCumulativeRealized + dailyRealized,
		PortfolioDelta:        agg.PortfolioDelta,
		PositionCount:         agg.PositionCount,
		RealizedVol21d:        volAgg.RealizedVol21d,
		RealizedVol63d:        volAgg.RealizedVol63d,
		ExpectedVolHAR:        volAgg.ExpectedVolHAR,
		VolatilityPercentile:  volAgg.VolatilityPercentile,
		VolatilityTrend:       string(volAgg.VolatilityTrend),
		MarketBeta:            riskAgg.MarketBeta,
		HHI:                   riskAgg.Concentration.HHI,
		EffectivePositions:    riskAgg.Concentration.EffectivePositions,
		Top3Concentration:     riskAgg.Concentration.Top3Concentration,
		Top10Concentration:    riskAgg.Concentration.Top10Concentration,
		SectorExposureJSON:    string(sectorJSON),
	}
	if err := s.snapshots.Complete(ctx, portfolio.ID, date, previousEquity, dailyRealized, fields); err != nil {
		res.Err = fmt.Errorf("complete snapshot: %w", err)
		return res
	}

	// P7: stress tests
	exposureMap, err := s.repo.FactorExposures(ctx, portfolio.ID, date)
	if err != nil {
		s.log.Warn().Err(err).Str("portfolio_id", portfolio.ID).Msg("failed to reload factor exposures for stress tests")
	} else if len(exposureMap) > 0 {
		results, err := s.stressSvc.RunAll(portfolio.ID, date, exposureMap, newEquity, s.factorCorrelation)
		if err != nil {
			s.log.Warn().Err(err).Str("portfolio_id", portfolio.ID).Msg("stress tests failed")
		} else if err := s.repo.UpsertStressResults(ctx, s.stressLibrary.ActiveScenarios(), results); err != nil {
			s.log.Warn().Err(err).Str("portfolio_id", portfolio.ID).Msg("failed to persist stress results")
		}
	}

	// P8: correlations (may fail gracefully for early dates)
	if len(symbols) >= 2 {
		calcID := uuid.NewString()
		corrResult, err := s.correlationSvc.Compute(ctx, calcID, portfolio.ID, symbols, date)
		if err != nil {
			s.log.Warn().Err(err).Str("portfolio_id", portfolio.ID).Msg("correlation computation failed, skipping for this date")
		} else if err := s.repo.UpsertCorrelation(ctx, corrResult.Calculation, corrResult.Pairwise, corrResult.Clusters); err != nil {
			s.log.Warn().Err(err).Str("portfolio_id", portfolio.ID).Msg("failed to persist correlation results")
		}
	}

	return res
}

func activeSymbols(positions []domain.Position, date time.Time) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, p := range positions {
		if !p.ActiveOn(date) || p.Class == domain.ClassPrivate || seen[p.Symbol] {
			continue
		}
		seen[p.Symbol] = true
		symbols = append(symbols, p.Symbol)
	}
	return symbols
}

func positionIDs(positions []domain.Position) []string {
	ids := make([]string, len(positions))
	for i, p := range positions {
		ids[i] = p.ID
	}
	return ids
}
