package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/sentinel/internal/calendar"
	"github.com/aristath/sentinel/internal/clients/alphavantage"
	"github.com/aristath/sentinel/internal/clients/yahoo"
	"github.com/aristath/sentinel/internal/companyprofile"
	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/correlation"
	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/events"
	"github.com/aristath/sentinel/internal/factors"
	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/aristath/sentinel/internal/orchestrator"
	"github.com/aristath/sentinel/internal/queue"
	"github.com/aristath/sentinel/internal/risk"
	"github.com/aristath/sentinel/internal/snapshot"
	"github.com/aristath/sentinel/internal/stress"
	"github.com/rs/zerolog"
)

// zeroCapitalFlow stands in for snapshot.CapitalFlowSource: this schema
// carries no capital-flow ledger (deposits/withdrawals are a sibling
// system's concern per spec.md's external-collaborator framing), so every
// day's net flow is honestly reported as zero rather than fabricating one.
type zeroCapitalFlow struct{}

func (zeroCapitalFlow) NetFlow(ctx context.Context, portfolioID string, date time.Time) (float64, error) {
	return 0, nil
}

// InitializeMarketData wires the provider chain (AlphaVantage primary, Yahoo
// fallback — original_source's provider-priority note) behind a PriceCache,
// plus the calendar and company-profile store that read/write the core
// database, generalized from the teacher's client construction in its own
// di package.
func InitializeMarketData(container *Container, cfg *config.Config, log zerolog.Logger) {
	avClient := alphavantage.NewClient(cfg.AlphaVantageAPIKeys, log)
	yahooClient := yahoo.NewNativeClient(log)

	avProvider := marketdata.NewAlphaVantageProvider(avClient)
	yahooProvider := marketdata.NewYahooProvider(yahooClient)
	chain := marketdata.NewChain(log, avProvider, yahooProvider)

	container.Cache = marketdata.NewPriceCache(chain)
	container.Calendar = calendar.New(calendar.SystemClock{})

	container.Profiles = companyprofile.NewStore(container.CoreDB.Conn())
	container.Refresher = companyprofile.NewRefresher(container.Profiles, chain)
}

// InitializeServices wires every calculation service and the orchestrator
// that drives them through the phase DAG (spec.md §4.9), generalized from
// the teacher's InitializeServices but scoped to this engine's much
// smaller service graph.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.FactorsSvc = factors.NewService(container.Cache, log)
	container.FactorsRepo = factors.NewRepository(container.MarketDataDB.Conn())
	container.RiskSvc = risk.NewService(container.Cache, container.Profiles, nil, log)
	container.CorrelationSvc = correlation.NewService(container.Cache, log)

	library, err := stress.DefaultLibrary()
	if err != nil {
		return fmt.Errorf("failed to load default stress scenario library: %w", err)
	}
	container.StressLibrary = library
	container.StressSvc = stress.NewService(library, log)

	snapshotRepo := snapshot.NewRepository(container.AnalyticsDB.Conn())
	container.SnapshotSvc = snapshot.NewService(snapshotRepo, zeroCapitalFlow{}, log)

	container.OrchestratorRepo = orchestrator.NewRepository(container.CoreDB.Conn(), container.AnalyticsDB.Conn())
	container.Tracker = orchestrator.NewTracker(container.CoreDB.Conn())

	matrix, err := stress.ComputeFactorCorrelationMatrix(
		context.Background(),
		container.Cache,
		container.Calendar.MostRecentTradingDay(),
		cfg.StressCorrClampMin,
		cfg.StressCorrClampMax,
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to seed initial factor correlation matrix, starting with an empty one")
		matrix = domain.FactorCorrelationMatrix{}
	}

	container.Orchestrator = orchestrator.NewService(
		container.OrchestratorRepo,
		container.Tracker,
		container.Cache,
		container.Calendar,
		cfg,
		container.SnapshotSvc,
		zeroCapitalFlow{},
		container.FactorsSvc,
		container.FactorsRepo,
		container.RiskSvc,
		container.StressSvc,
		container.StressLibrary,
		container.CorrelationSvc,
		matrix,
		log,
	)

	return nil
}

// InitializeQueue wires the event bus, in-memory job queue, handler
// registry, worker pool and time-based scheduler (internal/queue, kept
// near-verbatim from the teacher's own queue package), registering one
// handler per JobType the scheduler or an admin trigger can enqueue.
func InitializeQueue(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.EventBus = events.NewBus(log)

	history := queue.NewHistory(container.JobsDB.Conn())
	container.Queue = queue.NewManager(queue.NewMemoryQueue(), history)

	registry := queue.NewRegistry()
	registerJobHandlers(registry, container, log)
	container.Registry = registry

	queue.RegisterListeners(container.EventBus, container.Queue, registry, log)

	workers := queue.NewWorkerPool(container.Queue, registry, 2)
	workers.SetLogger(log)
	container.Workers = workers

	sched := queue.NewScheduler(container.Queue)
	sched.SetLogger(log)
	container.Sched = sched
}

// registerJobHandlers binds each JobType to the orchestrator/companyprofile
// call it backs, so both the scheduler's cron-like triggers (§4.10) and an
// admin manual trigger (§6) funnel through the same worker pool instead of
// duplicating dispatch logic in two places.
func registerJobHandlers(registry *queue.Registry, container *Container, log zerolog.Logger) {
	handlerLog := log.With().Str("component", "job_handlers").Logger()

	registry.Register(queue.JobTypeDailyBatch, func(job *queue.Job) error {
		return container.Orchestrator.RunDaily(context.Background(), "scheduler")
	})

	registry.Register(queue.JobTypeCorrelations, func(job *queue.Job) error {
		return container.Orchestrator.RunCorrelationsOnly(context.Background(), nil, container.Calendar.MostRecentTradingDay())
	})

	registry.Register(queue.JobTypeCompanyProfileSync, func(job *queue.Job) error {
		symbols, err := container.OrchestratorRepo.ActiveSymbols(context.Background())
		if err != nil {
			return fmt.Errorf("load active symbols for company profile sync: %w", err)
		}
		refreshed, err := container.Refresher.RefreshAll(context.Background(), symbols)
		if err != nil {
			return err
		}
		handlerLog.Info().Int("refreshed", refreshed).Msg("scheduled company profile sync finished")
		return nil
	})

	registry.Register(queue.JobTypeWeeklyHistoricalBackfill, func(job *queue.Job) error {
		symbols, err := container.OrchestratorRepo.ActiveSymbols(context.Background())
		if err != nil {
			return fmt.Errorf("load active symbols for weekly backfill: %w", err)
		}
		through := container.Calendar.MostRecentTradingDay()
		from := through.AddDate(0, 0, -90)
		errs := container.Cache.Prefetch(context.Background(), symbols, from, through)
		if len(errs) > 0 {
			handlerLog.Warn().Int("failed", len(errs)).Msg("weekly historical backfill finished with failures")
		}
		return nil
	})

	registry.Register(queue.JobTypeMarketDataRefresh, func(job *queue.Job) error {
		symbols, err := container.OrchestratorRepo.ActiveSymbols(context.Background())
		if err != nil {
			return fmt.Errorf("load active symbols for market data refresh: %w", err)
		}
		through := container.Calendar.MostRecentTradingDay()
		from := through.AddDate(-1, 0, 0)
		container.Cache.Prefetch(context.Background(), symbols, from, through)
		return nil
	})

	registry.Register(queue.JobTypeCleanupIncomplete, func(job *queue.Job) error {
		_, err := container.SnapshotSvc.CleanupAbandonedPlaceholders(context.Background())
		return err
	})

	registry.Register(queue.JobTypeRestoreSectorTags, func(job *queue.Job) error {
		symbols, err := container.OrchestratorRepo.ActiveSymbols(context.Background())
		if err != nil {
			return fmt.Errorf("load active symbols for sector tag restore: %w", err)
		}
		_, err = container.Refresher.RefreshMissing(context.Background(), symbols)
		return err
	})
}
