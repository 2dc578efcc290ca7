package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/sentinel/internal/calendar"
	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/correlation"
	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/factors"
	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/aristath/sentinel/internal/risk"
	"github.com/aristath/sentinel/internal/snapshot"
	"github.com/aristath/sentinel/internal/stress"
	"github.com/rs/zerolog"
)

// Service wires the batch engine's per-(portfolio, date) phase DAG to its
// collaborators and drives both the daily backfilling run and the admin
// force-rerun path (spec.md §4.9).
type Service struct {
	repo     *Repository
	tracker  *Tracker
	cache    *marketdata.PriceCache
	calendar *calendar.Calendar
	config   *config.Config
	log      zerolog.Logger

	snapshots    *snapshot.Service
	capitalFlows snapshot.CapitalFlowSource

	factorsSvc        *factors.Service
	factorsRepo       *factors.Repository
	riskSvc           *risk.Service
	stressSvc         *stress.Service
	stressLibrary     *stress.Library
	correlationSvc    *correlation.Service
	factorCorrelation domain.FactorCorrelationMatrix
}

// NewService wires every collaborator the phase DAG calls into. factorCorrelation
// is computed once per process at startup by internal/di and shared
// read-only across every portfolio's stress phase.
func NewService(
	repo *Repository,
	tracker *Tracker,
	cache *marketdata.PriceCache,
	cal *calendar.Calendar,
	cfg *config.Config,
	snapshots *snapshot.Service,
	capitalFlows snapshot.CapitalFlowSource,
	factorsSvc *factors.Service,
	factorsRepo *factors.Repository,
	riskSvc *risk.Service,
	stressSvc *stress.Service,
	stressLibrary *stress.Library,
	correlationSvc *correlation.Service,
	factorCorrelation domain.FactorCorrelationMatrix,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:              repo,
		tracker:           tracker,
		cache:             cache,
		calendar:          cal,
		config:            cfg,
		snapshots:         snapshots,
		capitalFlows:      capitalFlows,
		factorsSvc:        factorsSvc,
		factorsRepo:       factorsRepo,
		riskSvc:           riskSvc,
		stressSvc:         stressSvc,
		stressLibrary:     stressLibrary,
		correlationSvc:    correlationSvc,
		factorCorrelation: factorCorrelation,
		log:               log.With().Str("component", "orchestrator").Logger(),
	}
}

// SetFactorCorrelation replaces the shared correlation matrix used by the
// stress phase, for callers that recompute it outside of a batch run. No
// scheduled job calls it.
func (s *Service) SetFactorCorrelation(matrix domain.FactorCorrelationMatrix) {
	s.factorCorrelation = matrix
}

// RunDaily backfills every portfolio up through the most recent trading day:
// for each portfolio it finds the latest completed snapshot date and walks
// forward one trading day at a time, so a portfolio that missed several runs
// catches up in order rather than skipping straight to today (spec.md §4.9).
func (s *Service) RunDaily(ctx context.Context, triggeredBy string) error {
	portfolios, err := s.repo.ActivePortfolios(ctx)
	if err != nil {
		return fmt.Errorf("load active portfolios: %w", err)
	}

	through := s.calendar.MostRecentTradingDay()

	var jobs []portfolioDateJob
	for _, p := range portfolios {
		latest, ok, err := s.repo.LatestCompletedSnapshotDate(ctx, p.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("portfolio_id", p.ID).Msg("failed to load latest snapshot date, skipping portfolio this run")
			continue
		}
		start := through
		if ok {
			start = latest.AddDate(0, 0, 1)
		}
		for _, d := range s.calendar.TradingDaysBetween(start, through) {
			jobs = append(jobs, portfolioDateJob{portfolio: p, date: d})
		}
	}

	run, err := s.tracker.Start(ctx, triggeredBy, len(jobs), false)
	if err != nil {
		return err
	}
	defer func() {
		status := "completed"
		if ctx.Err() != nil {
			status = "cancelled"
		}
		s.tracker.Clear(ctx, status)
	}()
	s.log.Info().Str("batch_run_id", run.BatchRunID).Int("jobs", len(jobs)).Msg("daily batch run starting")

	s.runSymbolUniverse(ctx, jobs)
	s.runJobsByPortfolio(ctx, jobs, false)
	return nil
}

// RunForceRerun reprocesses every trading day in [start, end] for the given
// portfolio (or every active portfolio, when portfolioID is nil), bypassing
// the already-complete check and first deleting any computed rows in that
// range so stale data never survives alongside reprocessed data.
func (s *Service) RunForceRerun(ctx context.Context, start, end time.Time, portfolioID *string, triggeredBy string) error {
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

	days := s.calendar.TradingDaysBetween(start, end)

	for _, p := range portfolios {
		if err := s.repo.DeletePortfolioDateRange(ctx, p.ID, start, end); err != nil {
			return fmt.Errorf("clear prior results for portfolio %s: %w", p.ID, err)
		}
	}

	var jobs []portfolioDateJob
	for _, p := range portfolios {
		for _, d := range days {
			jobs = append(jobs, portfolioDateJob{portfolio: p, date: d})
		}
	}

	run, err := s.tracker.Start(ctx, triggeredBy, len(jobs), true)
	if err != nil {
		return err
	}
	defer func() {
		status := "completed"
		if ctx.Err() != nil {
			status = "cancelled"
		}
		s.tracker.Clear(ctx, status)
	}()
	s.log.Info().Str("batch_run_id", run.BatchRunID).Int("jobs", len(jobs)).Msg("force-rerun batch run starting")

	s.runSymbolUniverse(ctx, jobs)
	s.runJobsByPortfolio(ctx, jobs, true)
	return nil
}

type portfolioDateJob struct {
	portfolio domain.Portfolio
	date      time.Time
}

// runSymbolUniverse is the global, portfolio-agnostic pre-pass for spec.md
// §4.3's symbol factor universe and §2's data-flow diagram, which places
// symbol_universe.run as one step before the per-portfolio loop: for every
// distinct date in jobs, it computes each factor exposure once per symbol
// over the union of every portfolio's active symbols on that date, and
// persists the result, so later P4 lookups never run the same regression
// twice for a symbol two portfolios happen to share — an O(|symbols|) cost
// instead of O(Σ positions) across portfolios.
func (s *Service) runSymbolUniverse(ctx context.Context, jobs []portfolioDateJob) {
	positionsByPortfolio := make(map[string][]domain.Position)
	symbolsByDate := make(map[time.Time]map[string]bool)

	for _, j := range jobs {
		positions, ok := positionsByPortfolio[j.portfolio.ID]
		if !ok {
			var err error
			positions, err = s.repo.PositionsByPortfolio(ctx, j.portfolio.ID)
			if err != nil {
				s.log.Warn().Err(err).Str("portfolio_id", j.portfolio.ID).Msg("failed to load positions for symbol universe pre-pass")
				continue
			}
			positionsByPortfolio[j.portfolio.ID] = positions
		}
		symbols, ok := symbolsByDate[j.date]
		if !ok {
			symbols = make(map[string]bool)
			symbolsByDate[j.date] = symbols
		}
		for _, sym := range activeSymbols(positions, j.date) {
			symbols[sym] = true
		}
	}

	for date, symbols := range symbolsByDate {
		for sym := range symbols {
			exposures, err := s.factorsSvc.ComputeSymbolExposures(ctx, sym, date)
			if err != nil {
				s.log.Warn().Err(err).Str("symbol", sym).Time("date", date).Msg("symbol factor universe computation failed")
				continue
			}
			if err := s.factorsRepo.UpsertExposures(ctx, exposures); err != nil {
				s.log.Warn().Err(err).Str("symbol", sym).Time("date", date).Msg("failed to persist symbol factor exposures")
			}
		}
	}
}

// runJobsByPortfolio fans work out with bounded concurrency across
// portfolios while keeping every portfolio's own dates strictly sequential
// (spec.md §4.9): each goroutine owns one portfolio and walks its dates in
// order, so P1-P8 of day N always completes before day N+1 starts.
func (s *Service) runJobsByPortfolio(ctx context.Context, jobs []portfolioDateJob, forceRerun bool) {
	byPortfolio := make(map[string][]portfolioDateJob)
	var order []string
	for _, j := range jobs {
		if _, ok := byPortfolio[j.portfolio.ID]; !ok {
			order = append(order, j.portfolio.ID)
		}
		byPortfolio[j.portfolio.ID] = append(byPortfolio[j.portfolio.ID], j)
	}

	limit := s.config.OrchestratorMaxPortfolioConcurrency
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	var mu sync.Mutex
	completed, failed := 0, 0

	for _, portfolioID := range order {
		portfolioJobs := byPortfolio[portfolioID]
		wg.Add(1)
		sem <- struct{}{}
		go func(portfolioJobs []portfolioDateJob) {
			defer wg.Done()
			defer func() { <-sem }()

			for _, j := range portfolioJobs {
				res := s.runPortfolioDate(ctx, j.portfolio, j.date, forceRerun)

				mu.Lock()
				if res.Err != nil {
					failed++
					s.log.Error().Err(res.Err).Str("portfolio_id", j.portfolio.ID).Time("date", j.date).Msg("phase DAG failed for portfolio/date")
				} else {
					completed++
				}
				s.tracker.Progress(completed, failed, "batch_run", j.portfolio.ID)
				mu.Unlock()

				if res.Err != nil {
					// this portfolio's remaining dates depend on today's
					// rolled-forward equity and snapshot; abandon the rest
					// of its queue rather than compound the failure.
					break
				}
			}
		}(portfolioJobs)
	}
	wg.Wait()
}
