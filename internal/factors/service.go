package factors

import (
	"context"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/rs/zerolog"
)

// RidgeMinObservations is the floor below which a Ridge regression is not
// attempted at all, distinct from RidgeWindowDays (the full window). A
// symbol with a shorter listing history than the window but at least this
// many trading days still gets a partial_history row rather than none.
const RidgeMinObservations = 30

// Service computes the daily symbol factor universe: six Ridge betas and
// four spread betas per symbol, against the shared factor ETF return
// series, per spec.md §4.3.
type Service struct {
	cache *marketdata.PriceCache
	log   zerolog.Logger
}

// NewService builds a factor service over a per-run price cache.
func NewService(cache *marketdata.PriceCache, log zerolog.Logger) *Service {
	return &Service{cache: cache, log: log.With().Str("component", "factors").Logger()}
}

// ComputeSymbolExposures computes every Ridge and spread factor exposure
// for symbol as of date. Returns one SymbolFactorExposure per factor that
// produced at least a partial_history fit; factors with insufficient
// sample size are omitted entirely, per spec.md §4.3's "insufficient
// (skip persist)" quality flag.
func (s *Service) ComputeSymbolExposures(ctx context.Context, symbol string, date time.Time) ([]domain.SymbolFactorExposure, error) {
	var exposures []domain.SymbolFactorExposure

	ridgeExposures, err := s.computeRidge(ctx, symbol, date)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("ridge regression failed")
	} else {
		exposures = append(exposures, ridgeExposures...)
	}

	for factorID, pair := range SpreadFactorETF {
		exposure, ok, err := s.computeSpread(ctx, symbol, factorID, pair, date)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Str("factor", string(factorID)).Msg("spread regression failed")
			continue
		}
		if ok {
			exposures = append(exposures, exposure)
		}
	}

	return exposures, nil
}

func (s *Service) computeRidge(ctx context.Context, symbol string, date time.Time) ([]domain.SymbolFactorExposure, error) {
	from := date.AddDate(0, 0, -RidgeWindowDays*2) // generous calendar padding for non-trading days
	symbols := make([]string, 0, len(domain.RidgeFactors)+1)
	symbols = append(symbols, symbol)
	for _, factorID := range domain.RidgeFactors {
		symbols = append(symbols, RidgeFactorETF[factorID])
	}

	returns, err := marketdata.GetReturns(ctx, s.cache, symbols, from, date, true)
	if err != nil {
		return nil, err
	}

	symbolReturns := returns[symbol]
	n := len(symbolReturns.Returns)
	if n < RidgeMinObservations {
		return nil, nil
	}
	if n > RidgeWindowDays {
		symbolReturns = trimToWindow(symbolReturns, RidgeWindowDays)
		n = RidgeWindowDays
	}

	x := make([][]float64, len(domain.RidgeFactors))
	for i, factorID := range domain.RidgeFactors {
		etfReturns := trimToWindow(returns[RidgeFactorETF[factorID]], n)
		x[i] = etfReturns.Returns
	}

	result, err := RunRidgeRegression(symbolReturns.Returns, x, RidgeLambda)
	if err != nil {
		return nil, err
	}

	quality := qualityFlag(result.Observations, RidgeMinObservations, RidgeWindowDays)

	exposures := make([]domain.SymbolFactorExposure, 0, len(domain.RidgeFactors))
	for i, factorID := range domain.RidgeFactors {
		exposures = append(exposures, domain.SymbolFactorExposure{
			Symbol:       symbol,
			FactorID:     factorID,
			Date:         date,
			Beta:         result.Betas[i],
			RSquared:     result.RSquared,
			Observations: result.Observations,
			QualityFlag:  quality,
		})
	}
	return exposures, nil
}

func (s *Service) computeSpread(ctx context.Context, symbol string, factorID domain.FactorID, pair SpreadPair, date time.Time) (domain.SymbolFactorExposure, bool, error) {
	from := date.AddDate(0, 0, -SpreadWindowDays*2)

	returns, err := marketdata.GetReturns(ctx, s.cache, []string{symbol, pair.Long, pair.Short}, from, date, true)
	if err != nil {
		return domain.SymbolFactorExposure{}, false, err
	}

	symbolReturns := returns[symbol]
	n := len(symbolReturns.Returns)
	if n < SpreadMinObservations {
		return domain.SymbolFactorExposure{}, false, nil
	}
	if n > SpreadWindowDays {
		symbolReturns = trimToWindow(symbolReturns, SpreadWindowDays)
		n = SpreadWindowDays
	}

	longReturns := trimToWindow(returns[pair.Long], n)
	shortReturns := trimToWindow(returns[pair.Short], n)

	spreadReturns := make([]float64, n)
	for i := 0; i < n; i++ {
		spreadReturns[i] = longReturns.Returns[i] - shortReturns.Returns[i]
	}

	result, err := RunUnivariateOLS(symbolReturns.Returns, spreadReturns, BetaCap, SignificanceConfidence)
	if err != nil {
		return domain.SymbolFactorExposure{}, false, err
	}

	quality := qualityFlag(result.Observations, SpreadMinObservations, SpreadWindowDays)

	return domain.SymbolFactorExposure{
		Symbol:          symbol,
		FactorID:        factorID,
		Date:            date,
		Beta:            result.Beta,
		RSquared:        result.RSquared,
		Observations:    result.Observations,
		QualityFlag:     quality,
		SignificantAt90: result.SignificantAt90,
	}, true, nil
}

// trimToWindow keeps the most recent n observations of series, oldest
// first within the kept slice.
func trimToWindow(series marketdata.ReturnSeries, n int) marketdata.ReturnSeries {
	if len(series.Returns) <= n {
		return series
	}
	start := len(series.Returns) - n
	return marketdata.ReturnSeries{
		Dates:   series.Dates[start:],
		Returns: series.Returns[start:],
	}
}

func qualityFlag(n, min, window int) domain.QualityFlag {
	switch {
	case n >= window:
		return domain.QualityFullHistory
	case n >= min:
		return domain.QualityPartialHistory
	default:
		return domain.QualityInsufficient
	}
}
