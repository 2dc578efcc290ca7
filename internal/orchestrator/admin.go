package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunCorrelationsOnly recomputes the correlation matrix for one portfolio, or
// every active portfolio when portfolioID is nil, without touching any of
// the other phases. It backs the admin "trigger/correlations" endpoint,
// which exists because correlations are the one phase the daily run lets
// fail gracefully (spec.md §4.9) and operators need a way to retry them
// once enough history has accumulated.
func (s *Service) RunCorrelationsOnly(ctx context.Context, portfolioID *string, date time.Time) error {
	portfolios, err := s.repo.ActivePortfolios(ctx)
	if err != nil {
		return fmt.Errorf("load active portfolios: %w", err)
	}
	if portfolioID != nil {
		filtered := portfolios[:0]
		for _, p := range portfolios {
			if p.ID == *portfolioID {
				filtered = append(filtered, p)
			}
		}
		portfolios = filtered
	}

	var firstErr error
	for _, portfolio := range portfolios {
		if err := s.runPortfolioCorrelation(ctx, portfolio.ID, date); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Service) runPortfolioCorrelation(ctx context.Context, portfolioID string, date time.Time) error {
	positions, err := s.repo.PositionsByPortfolio(ctx, portfolioID)
	if err != nil {
		return fmt.Errorf("load positions for %s: %w", portfolioID, err)
	}

	symbols := activeSymbols(positions, date)
	if len(symbols) < 2 {
		return nil
	}

	result, err := s.correlationSvc.Compute(ctx, uuid.NewString(), portfolioID, symbols, date)
	if err != nil {
		return fmt.Errorf("compute correlations for %s: %w", portfolioID, err)
	}
	if err := s.repo.UpsertCorrelation(ctx, result.Calculation, result.Pairwise, result.Clusters); err != nil {
		return fmt.Errorf("persist correlations for %s: %w", portfolioID, err)
	}
	return nil
}
