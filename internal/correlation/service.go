package correlation

import (
	"context"
	"sort"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/rs/zerolog"
)

// Service computes one CorrelationCalculation (plus pairwise and cluster
// children) per portfolio/date.
type Service struct {
	cache     *marketdata.PriceCache
	log       zerolog.Logger
	windowDays int
	threshold  float64
}

func NewService(cache *marketdata.PriceCache, log zerolog.Logger) *Service {
	return &Service{
		cache:      cache,
		log:        log.With().Str("component", "correlation").Logger(),
		windowDays: DefaultWindowDays,
		threshold:  DefaultClusterThreshold,
	}
}

// Result is one portfolio/date's correlation matrix and clustering.
type Result struct {
	Calculation domain.CorrelationCalculation
	Pairwise    []domain.PairwiseCorrelation
	Clusters    []domain.CorrelationCluster
}

// Compute builds the log-return correlation matrix over symbols for one
// portfolio/date. Pairs below MinPairObservations are silently omitted,
// not stored. Generating an ID for the calculation row is the caller's
// responsibility (it owns persistence and transaction boundaries).
func (s *Service) Compute(ctx context.Context, calculationID, portfolioID string, symbols []string, date time.Time) (Result, error) {
	from := date.AddDate(0, 0, -(s.windowDays + 20))

	seriesBySymbol := make(map[string]LogReturnSeries, len(symbols))
	for _, symbol := range symbols {
		bars, err := s.cache.Bars(ctx, symbol, from, date)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("correlation: bars fetch failed, symbol excluded")
			continue
		}
		seriesBySymbol[symbol] = trimToWindow(logReturns(bars), s.windowDays)
	}

	var pairwise []domain.PairwiseCorrelation
	var edges []pairwiseEdge

	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			a, okA := seriesBySymbol[symbols[i]]
			b, okB := seriesBySymbol[symbols[j]]
			if !okA || !okB {
				continue
			}

			result, ok := computePairwise(a, b)
			if !ok {
				continue
			}

			pairwise = append(pairwise, domain.PairwiseCorrelation{
				CalculationID: calculationID,
				Symbol1:       symbols[i],
				Symbol2:       symbols[j],
				Rho:           result.Rho,
				N:             result.N,
			})
			edges = append(edges, pairwiseEdge{symbol1: symbols[i], symbol2: symbols[j], rho: result.Rho})
		}
	}

	groups := clusterSymbols(symbols, edges, s.threshold)
	clusters := make([]domain.CorrelationCluster, 0, len(groups))
	for i, members := range groups {
		sort.Strings(members)
		clusters = append(clusters, domain.CorrelationCluster{
			CalculationID: calculationID,
			ClusterIndex:  i,
			Symbols:       members,
		})
	}

	calculation := domain.CorrelationCalculation{
		ID:          calculationID,
		PortfolioID: portfolioID,
		Date:        date,
		WindowDays:  s.windowDays,
		CreatedAt:   time.Now().UTC(),
	}

	return Result{Calculation: calculation, Pairwise: pairwise, Clusters: clusters}, nil
}

func trimToWindow(series LogReturnSeries, windowDays int) LogReturnSeries {
	if len(series.Returns) <= windowDays {
		return series
	}
	start := len(series.Returns) - windowDays
	return LogReturnSeries{
		Dates:   series.Dates[start:],
		Returns: series.Returns[start:],
	}
}
