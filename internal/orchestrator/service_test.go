package orchestrator

import (
	"context"
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/aristath/sentinel/internal/calendar"
	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/correlation"
	"github.com/aristath/sentinel/internal/factors"
	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/aristath/sentinel/internal/risk"
	"github.com/aristath/sentinel/internal/snapshot"
	"github.com/aristath/sentinel/internal/stress"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves a deterministic, ever-varying daily close for any
// symbol over any requested window, so every phase's regression gets as
// much history as it asks for without a network round-trip.
type fakeProvider struct{}

func (fakeProvider) Name() string { return "fake" }

func (fakeProvider) Bars(ctx context.Context, symbol string, from, to time.Time) ([]marketdata.Bar, error) {
	seed := symbolSeed(symbol)
	var bars []marketdata.Bar
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days := float64(d.Unix() / 86400)
		price := 100 + 8*math.Sin(days/11+seed) + days*0.015
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		bars = append(bars, marketdata.Bar{Date: day, Open: price, High: price, Low: price, Close: price, Volume: 1000})
	}
	return bars, nil
}

func (fakeProvider) Quotes(ctx context.Context, symbols []string) (map[string]marketdata.Quote, error) {
	return map[string]marketdata.Quote{}, nil
}

func (fakeProvider) Profile(ctx context.Context, symbol string) (marketdata.Profile, error) {
	return marketdata.Profile{}, nil
}

func (fakeProvider) Holdings(ctx context.Context, symbol string) ([]marketdata.Holding, error) {
	return nil, nil
}

func (fakeProvider) Financials(ctx context.Context, symbol string) (marketdata.Financials, error) {
	return marketdata.Financials{}, nil
}

func (fakeProvider) EarningsCalendar(ctx context.Context, symbol string, horizon time.Duration) ([]marketdata.EarningsEvent, error) {
	return nil, nil
}

func symbolSeed(symbol string) float64 {
	var h float64
	for _, r := range symbol {
		h += float64(r)
	}
	return h
}

type zeroFlow struct{}

func (zeroFlow) NetFlow(ctx context.Context, portfolioID string, date time.Time) (float64, error) {
	return 0, nil
}

// testHarness wires a real phase DAG (factors/risk/stress/correlation/
// snapshot) against in-memory databases and a fake price provider, the way
// internal/di wires the production Service but scoped to one test's needs.
type testHarness struct {
	service *Service
	core    *sql.DB
	analytics *sql.DB
	factorsDB *sql.DB
	cal     *calendar.Calendar
	date    time.Time
	cache   *marketdata.PriceCache
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	core, analytics := setupOrchestratorTestDBs(t)
	factorsDB := setupFactorsTestDB(t)

	date := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	cal := calendar.New(calendar.FixedClock{At: date})
	through := cal.MostRecentTradingDay()

	cache := marketdata.NewPriceCache(fakeProvider{})
	factorsSvc := factors.NewService(cache, zerolog.Nop())
	factorsRepo := factors.NewRepository(factorsDB)
	riskSvc := risk.NewService(cache, nil, nil, zerolog.Nop())

	library, err := stress.DefaultLibrary()
	require.NoError(t, err)
	stressSvc := stress.NewService(library, zerolog.Nop())

	correlationSvc := correlation.NewService(cache, zerolog.Nop())

	snapshotRepo := snapshot.NewRepository(analytics)
	snapshotSvc := snapshot.NewService(snapshotRepo, zeroFlow{}, zerolog.Nop())

	repo := NewRepository(core, analytics)
	tracker := NewTracker(core)

	matrix, err := stress.ComputeFactorCorrelationMatrix(context.Background(), cache, through, -0.95, 0.95)
	require.NoError(t, err)

	cfg := &config.Config{OrchestratorMaxPortfolioConcurrency: 4}

	svc := NewService(repo, tracker, cache, cal, cfg, snapshotSvc, zeroFlow{}, factorsSvc, factorsRepo, riskSvc, stressSvc, library, correlationSvc, matrix, zerolog.Nop())

	return &testHarness{service: svc, core: core, analytics: analytics, factorsDB: factorsDB, cal: cal, date: through, cache: cache}
}

// warmCache prefetches a wide history window for every symbol up front,
// mirroring a deployment where the scheduler's market-data-refresh job has
// already run before the daily batch starts. PriceCache.Bars serves every
// later request for a symbol out of whatever range was first cached, so a
// phase that happened to ask for a narrow window first would otherwise
// starve every later, wider-window phase for the same symbol.
func (h *testHarness) warmCache(t *testing.T, symbols []string) {
	t.Helper()
	from := h.date.AddDate(-1, -1, 0)
	errs := h.cache.Prefetch(context.Background(), append(symbols, factors.AllETFSymbols()...), from, h.date)
	require.Empty(t, errs)
}

func setupFactorsTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE symbol_factor_exposures (
			symbol TEXT NOT NULL, factor_id TEXT NOT NULL, date INTEGER NOT NULL,
			beta REAL NOT NULL, r_squared REAL NOT NULL, observations INTEGER NOT NULL,
			quality_flag TEXT NOT NULL, significant_at_90 INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (symbol, factor_id, date)
		);
	`)
	require.NoError(t, err)
	return db
}

func insertPortfolio(t *testing.T, core *sql.DB, id string, equity float64) {
	t.Helper()
	_, err := core.Exec(`INSERT INTO portfolios (id, user_id, equity_balance, is_active) VALUES (?, 'u1', ?, 1)`, id, equity)
	require.NoError(t, err)
}

func insertPosition(t *testing.T, core *sql.DB, id, portfolioID, symbol, posType string, quantity, entryPrice float64, entryDate time.Time) {
	t.Helper()
	_, err := core.Exec(`
		INSERT INTO positions (id, portfolio_id, symbol, position_type, class, quantity, entry_price, entry_date)
		VALUES (?, ?, ?, ?, 'PUBLIC', ?, ?, ?)
	`, id, portfolioID, symbol, posType, quantity, entryPrice, entryDate.Unix())
	require.NoError(t, err)
}

func TestService_RunDaily_CompletesFirstRunForActivePortfolio(t *testing.T) {
	h := newTestHarness(t)
	insertPortfolio(t, h.core, "p1", 100000)
	entryDate := h.date.AddDate(0, 0, -30)
	insertPosition(t, h.core, "pos1", "p1", "AAPL", "LONG", 100, 90, entryDate)
	insertPosition(t, h.core, "pos2", "p1", "MSFT", "SHORT", 50, 200, entryDate)
	h.warmCache(t, []string{"AAPL", "MSFT"})

	err := h.service.RunDaily(context.Background(), "test")
	require.NoError(t, err)

	_, active := h.service.tracker.Current()
	assert.False(t, active)

	snap, err := snapshot.NewRepository(h.analytics).GetByPortfolioDate(context.Background(), "p1", h.date)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.True(t, snap.IsComplete)
	assert.Equal(t, 2, snap.PositionCount)

	var exposureCount int
	require.NoError(t, h.analytics.QueryRow(`SELECT COUNT(*) FROM portfolio_factor_exposures WHERE portfolio_id = 'p1'`).Scan(&exposureCount))
	assert.Greater(t, exposureCount, 0)

	var stressCount int
	require.NoError(t, h.analytics.QueryRow(`SELECT COUNT(*) FROM stress_test_results WHERE portfolio_id = 'p1'`).Scan(&stressCount))
	assert.Greater(t, stressCount, 0)

	var correlationCount int
	require.NoError(t, h.analytics.QueryRow(`SELECT COUNT(*) FROM pairwise_correlations`).Scan(&correlationCount))
	assert.Greater(t, correlationCount, 0)

	var symbolFactorCount int
	require.NoError(t, h.factorsDB.QueryRow(`SELECT COUNT(*) FROM symbol_factor_exposures WHERE symbol = 'AAPL'`).Scan(&symbolFactorCount))
	assert.Greater(t, symbolFactorCount, 0)
}

func TestService_RunDaily_ComputesSymbolUniverseOnceForSymbolsSharedAcrossPortfolios(t *testing.T) {
	h := newTestHarness(t)
	insertPortfolio(t, h.core, "p1", 100000)
	insertPortfolio(t, h.core, "p2", 50000)
	entryDate := h.date.AddDate(0, 0, -30)
	insertPosition(t, h.core, "pos1", "p1", "AAPL", "LONG", 100, 90, entryDate)
	insertPosition(t, h.core, "pos2", "p2", "AAPL", "LONG", 40, 90, entryDate)
	h.warmCache(t, []string{"AAPL"})

	err := h.service.RunDaily(context.Background(), "test")
	require.NoError(t, err)

	var rowCount int
	require.NoError(t, h.factorsDB.QueryRow(`
		SELECT COUNT(*) FROM symbol_factor_exposures WHERE symbol = 'AAPL' AND date = ?
	`, h.date.Unix()).Scan(&rowCount))
	assert.Greater(t, rowCount, 0, "the global pre-pass should have written AAPL's betas once for the shared date")

	var betaP1, betaP2 float64
	require.NoError(t, h.analytics.QueryRow(`SELECT beta FROM portfolio_factor_exposures WHERE portfolio_id = 'p1' ORDER BY factor_id LIMIT 1`).Scan(&betaP1))
	require.NoError(t, h.analytics.QueryRow(`SELECT beta FROM portfolio_factor_exposures WHERE portfolio_id = 'p2' ORDER BY factor_id LIMIT 1`).Scan(&betaP2))
	assert.Equal(t, betaP1, betaP2, "both portfolios hold only AAPL, so their aggregated beta for a shared factor must come from the same pre-computed symbol exposure")
}

func TestService_RunDaily_SkipsPortfolioAlreadyCompletedThroughToday(t *testing.T) {
	h := newTestHarness(t)
	insertPortfolio(t, h.core, "p1", 100000)
	entryDate := h.date.AddDate(0, 0, -30)
	insertPosition(t, h.core, "pos1", "p1", "AAPL", "LONG", 100, 90, entryDate)
	h.warmCache(t, []string{"AAPL"})

	require.NoError(t, h.service.RunDaily(context.Background(), "test"))
	require.NoError(t, h.service.RunDaily(context.Background(), "test"))

	var lastTotalJobs int
	require.NoError(t, h.core.QueryRow(`SELECT total_jobs FROM batch_runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(&lastTotalJobs))
	assert.Equal(t, 0, lastTotalJobs)
}

func TestService_RunDaily_ReturnsErrBatchRunActiveWhenAlreadyRunning(t *testing.T) {
	h := newTestHarness(t)
	_, err := h.service.tracker.Start(context.Background(), "other", 1, false)
	require.NoError(t, err)

	err = h.service.RunDaily(context.Background(), "test")
	assert.ErrorIs(t, err, ErrBatchRunActive)
}

func TestService_RunForceRerun_ClearsAndRecomputesExistingResults(t *testing.T) {
	h := newTestHarness(t)
	insertPortfolio(t, h.core, "p1", 100000)
	entryDate := h.date.AddDate(0, 0, -30)
	insertPosition(t, h.core, "pos1", "p1", "AAPL", "LONG", 100, 90, entryDate)
	h.warmCache(t, []string{"AAPL"})

	require.NoError(t, h.service.RunDaily(context.Background(), "test"))

	var before float64
	require.NoError(t, h.analytics.QueryRow(`SELECT total_value FROM portfolio_snapshots WHERE portfolio_id = 'p1'`).Scan(&before))

	err := h.service.RunForceRerun(context.Background(), h.date, h.date, nil, "admin")
	require.NoError(t, err)

	snap, err := snapshot.NewRepository(h.analytics).GetByPortfolioDate(context.Background(), "p1", h.date)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.True(t, snap.IsComplete)
}

func TestService_RunForceRerun_FiltersToSinglePortfolioWhenIDGiven(t *testing.T) {
	h := newTestHarness(t)
	insertPortfolio(t, h.core, "p1", 100000)
	insertPortfolio(t, h.core, "p2", 50000)
	entryDate := h.date.AddDate(0, 0, -30)
	insertPosition(t, h.core, "pos1", "p1", "AAPL", "LONG", 100, 90, entryDate)
	insertPosition(t, h.core, "pos2", "p2", "MSFT", "LONG", 100, 90, entryDate)
	h.warmCache(t, []string{"AAPL", "MSFT"})

	only := "p1"
	err := h.service.RunForceRerun(context.Background(), h.date, h.date, &only, "admin")
	require.NoError(t, err)

	snapP1, err := snapshot.NewRepository(h.analytics).GetByPortfolioDate(context.Background(), "p1", h.date)
	require.NoError(t, err)
	assert.NotNil(t, snapP1)

	snapP2, err := snapshot.NewRepository(h.analytics).GetByPortfolioDate(context.Background(), "p2", h.date)
	require.NoError(t, err)
	assert.Nil(t, snapP2)
}

func TestService_RunCorrelationsOnly_PersistsPairwiseCorrelationsForActivePortfolios(t *testing.T) {
	h := newTestHarness(t)
	insertPortfolio(t, h.core, "p1", 100000)
	entryDate := h.date.AddDate(0, 0, -30)
	insertPosition(t, h.core, "pos1", "p1", "AAPL", "LONG", 100, 90, entryDate)
	insertPosition(t, h.core, "pos2", "p1", "MSFT", "LONG", 50, 200, entryDate)
	h.warmCache(t, []string{"AAPL", "MSFT"})

	err := h.service.RunCorrelationsOnly(context.Background(), nil, h.date)
	require.NoError(t, err)

	var count int
	require.NoError(t, h.analytics.QueryRow(`SELECT COUNT(*) FROM pairwise_correlations`).Scan(&count))
	assert.Greater(t, count, 0)
}
