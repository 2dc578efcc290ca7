package risk

import (
	"context"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/rs/zerolog"
)

// Service computes position-first risk metrics for one portfolio/date and
// aggregates them to the portfolio level, per spec.md §4.5's "position-
// first with caching" pattern: compute once per position, persist
// immediately, then aggregate with equity-balance weights.
type Service struct {
	cache     *marketdata.PriceCache
	sectors   SectorSource
	benchmark BenchmarkWeightSource
	log       zerolog.Logger
}

func NewService(cache *marketdata.PriceCache, sectors SectorSource, benchmark BenchmarkWeightSource, log zerolog.Logger) *Service {
	return &Service{cache: cache, sectors: sectors, benchmark: benchmark, log: log.With().Str("component", "risk").Logger()}
}

// PositionRisk bundles one position's computed beta/volatility rows,
// ready for immediate persistence.
type PositionRisk struct {
	MarketBeta *domain.PositionMarketBeta
	IRBeta     *domain.PositionIRBeta
	Volatility *domain.PositionVolatility
}

// ComputePositionRisk computes market beta, IR beta, and volatility for a
// single position. Each sub-result is nil when its own minimum-sample
// policy isn't met — spec.md §7's "skip don't fail" contract, applied
// metric by metric rather than failing the whole position.
func (s *Service) ComputePositionRisk(ctx context.Context, position domain.Position, date time.Time) PositionRisk {
	symbol := betaSymbolForPosition(position)

	var out PositionRisk

	if marketResult, ok, err := ComputeMarketBeta(ctx, s.cache, symbol, date); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("market beta computation failed")
	} else if ok {
		out.MarketBeta = &domain.PositionMarketBeta{
			PositionID:   position.ID,
			PortfolioID:  position.PortfolioID,
			Date:         date,
			Beta:         marketResult.Beta,
			RSquared:     marketResult.RSquared,
			Observations: marketResult.Observations,
			WindowDays:   MarketBetaWindowDays,
		}
	}

	if irResult, ok, err := ComputeIRBeta(ctx, s.cache, symbol, date); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("IR beta computation failed")
	} else if ok {
		out.IRBeta = &domain.PositionIRBeta{
			PositionID:   position.ID,
			PortfolioID:  position.PortfolioID,
			Date:         date,
			Beta:         irResult.Beta,
			RSquared:     irResult.RSquared,
			Observations: irResult.Observations,
			WindowDays:   MarketBetaWindowDays,
		}
	}

	if volResult, ok, err := ComputeVolatility(ctx, s.cache, symbol, date); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("volatility computation failed")
	} else if ok {
		out.Volatility = &domain.PositionVolatility{
			PositionID:     position.ID,
			PortfolioID:    position.PortfolioID,
			Symbol:         symbol,
			Date:           date,
			RealizedVol21d: volResult.RealizedVol21d,
			RealizedVol63d: volResult.RealizedVol63d,
			ExpectedVolHAR: volResult.ExpectedVolHAR,
			Percentile:     volResult.Percentile,
			Trend:          volResult.Trend,
		}
	}

	return out
}

// PortfolioRiskAggregate is the equity-weighted roll-up of position-level
// betas, plus sector/concentration metrics computed directly from
// positions (no per-position caching needed there).
type PortfolioRiskAggregate struct {
	MarketBeta      float64
	IRBeta          float64
	SectorExposures []domain.SectorExposure
	Concentration   domain.ConcentrationMetrics
}

// AggregatePortfolioRisk weights each position's market/IR beta by its
// signed market-value share of equityBalance (spec.md §4.5 step 5), and
// computes sector/concentration metrics from the positions' absolute
// market values. Positions with no computed beta/sector contribute 0 to
// the weighted average and are excluded from concentration inputs only if
// their value is also 0.
func (s *Service) AggregatePortfolioRisk(ctx context.Context, portfolioID string, date time.Time, positions []domain.Position, lastClose map[string]float64, equityBalance float64, risks map[string]PositionRisk) PortfolioRiskAggregate {
	var weightedMarketBeta, weightedIRBeta float64
	values := make([]PositionMarketValue, 0, len(positions))

	for _, p := range positions {
		close, ok := lastClose[p.Symbol]
		if !ok {
			continue
		}

		absValue := p.Value(close, false, true)
		signedValue := p.Value(close, true, true)
		weight := 0.0
		if equityBalance != 0 {
			weight = signedValue / equityBalance
		}

		if risk, ok := risks[p.ID]; ok {
			if risk.MarketBeta != nil {
				weightedMarketBeta += weight * risk.MarketBeta.Beta
			}
			if risk.IRBeta != nil {
				weightedIRBeta += weight * risk.IRBeta.Beta
			}
		}

		sector := ""
		if s.sectors != nil {
			if sec, found := s.sectors.Sector(ctx, p.Symbol); found {
				sector = sec
			}
		}

		values = append(values, PositionMarketValue{Symbol: p.Symbol, AbsoluteValue: absValue, Sector: sector})
	}

	var sectorExposures []domain.SectorExposure
	if s.benchmark != nil {
		var err error
		sectorExposures, err = ComputeSectorExposure(ctx, portfolioID, date, values, s.benchmark)
		if err != nil {
			s.log.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("sector exposure computation failed")
		}
	}

	concentration := ComputeConcentration(portfolioID, date, values)

	return PortfolioRiskAggregate{
		MarketBeta:      weightedMarketBeta,
		IRBeta:          weightedIRBeta,
		SectorExposures: sectorExposures,
		Concentration:   concentration,
	}
}
