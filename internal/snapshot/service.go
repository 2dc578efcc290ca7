package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Service is the two-phase snapshot writer described in spec.md §4.8.
type Service struct {
	repo  *Repository
	flows CapitalFlowSource
	log   zerolog.Logger
}

// NewService wires the repository and the injected capital-flow collaborator.
func NewService(repo *Repository, flows CapitalFlowSource, log zerolog.Logger) *Service {
	return &Service{repo: repo, flows: flows, log: log}
}

// StagePlaceholder writes phase 1 of the protocol: an is_complete=0 row
// carrying only the prior equity balance, so a mid-run crash leaves a
// visibly incomplete row rather than no row at all. Returns false without
// writing anything if a complete row already exists for this day and
// forceRerun is false.
func (s *Service) StagePlaceholder(ctx context.Context, portfolioID string, date time.Time, previousEquityBalance float64, forceRerun bool) (bool, error) {
	staged, err := s.repo.WritePlaceholder(ctx, portfolioID, date, previousEquityBalance, forceRerun)
	if err != nil {
		return false, err
	}
	if !staged {
		s.log.Debug().Str("portfolio_id", portfolioID).Time("date", date).Msg("snapshot already complete, skipping placeholder")
	}
	return staged, nil
}

// PriorDayAbandoned exposes the repository's abandoned-placeholder check
// for callers (the orchestrator's equity rollforward phase) that need the
// same flag Complete computes internally, before Complete itself runs.
func (s *Service) PriorDayAbandoned(ctx context.Context, portfolioID string, date time.Time) (bool, error) {
	return s.repo.PriorDayAbandoned(ctx, portfolioID, date)
}

// Complete runs phase 2: it rolls the equity balance forward per
// EquityRollforward, fills in every field the batch's other phases
// computed, and marks the row complete.
func (s *Service) Complete(ctx context.Context, portfolioID string, date time.Time, previousEquityBalance float64, dailyRealizedPnL float64, f Fields) error {
	abandoned, err := s.repo.PriorDayAbandoned(ctx, portfolioID, date)
	if err != nil {
		return fmt.Errorf("check prior day snapshot: %w", err)
	}

	dailyCapitalFlow, err := s.flows.NetFlow(ctx, portfolioID, date)
	if err != nil {
		return fmt.Errorf("fetch daily capital flow: %w", err)
	}

	f.DailyCapitalFlow = dailyCapitalFlow
	f.DailyRealizedPnL = dailyRealizedPnL
	f.EquityBalance = EquityRollforward(previousEquityBalance, dailyRealizedPnL, dailyCapitalFlow, abandoned)

	if err := s.repo.Complete(ctx, portfolioID, date, f); err != nil {
		return err
	}
	s.log.Info().Str("portfolio_id", portfolioID).Time("date", date).Float64("equity_balance", f.EquityBalance).Msg("snapshot completed")
	return nil
}

// CleanupAbandonedPlaceholders removes placeholder rows past DefaultPlaceholderGrace
// that a prior run never completed, so they don't block a fresh run.
func (s *Service) CleanupAbandonedPlaceholders(ctx context.Context) (int64, error) {
	n, err := s.repo.CleanupAbandonedPlaceholders(ctx, DefaultPlaceholderGrace)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Warn().Int64("count", n).Msg("cleaned up abandoned snapshot placeholders")
	}
	return n, nil
}
