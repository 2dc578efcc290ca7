package orchestrator

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/sentinel/internal/domain"
)

// Repository is the orchestrator's single point of raw-SQL access across
// the core and analytics databases. Every write here is a single
// autocommit statement on the *sql.DB; no transaction spans a phase, so
// each statement commits on its own.
type Repository struct {
	core      *sql.DB
	analytics *sql.DB
}

func NewRepository(core, analytics *sql.DB) *Repository {
	return &Repository{core: core, analytics: analytics}
}

// ActivePortfolios returns every non-deleted, active portfolio.
func (r *Repository) ActivePortfolios(ctx context.Context) ([]domain.Portfolio, error) {
	rows, err := r.core.QueryContext(ctx, `
		SELECT id, user_id, equity_balance, base_currency, is_active, deleted_at
		FROM portfolios
		WHERE is_active = 1 AND deleted_at IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("load active portfolios: %w", err)
	}
	defer rows.Close()

	var out []domain.Portfolio
	for rows.Next() {
		var p domain.Portfolio
		var deletedAt sql.NullInt64
		var isActive int
		if err := rows.Scan(&p.ID, &p.UserID, &p.EquityBalance, &p.BaseCurrency, &isActive, &deletedAt); err != nil {
			return nil, fmt.Errorf("scan portfolio: %w", err)
		}
		p.IsActive = isActive != 0
		if deletedAt.Valid {
			t := time.Unix(deletedAt.Int64, 0).UTC()
			p.DeletedAt = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ActiveSymbols returns every distinct symbol held by a non-deleted position
// in an active, non-deleted portfolio, for admin endpoints that need to warm
// market data across the whole book rather than one portfolio at a time.
func (r *Repository) ActiveSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.core.QueryContext(ctx, `
		SELECT DISTINCT p.symbol
		FROM positions p
		JOIN portfolios pf ON pf.id = p.portfolio_id
		WHERE p.deleted_at IS NULL AND pf.is_active = 1 AND pf.deleted_at IS NULL AND p.class != 'PRIVATE'
	`)
	if err != nil {
		return nil, fmt.Errorf("load active symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, symbol)
	}
	return out, rows.Err()
}

// PositionsByPortfolio returns every non-deleted position owned by portfolioID.
func (r *Repository) PositionsByPortfolio(ctx context.Context, portfolioID string) ([]domain.Position, error) {
	rows, err := r.core.QueryContext(ctx, `
		SELECT id, portfolio_id, symbol, position_type, class, quantity, entry_price,
			entry_date, exit_date, exit_price, underlying_symbol, strike, expiration, market_value
		FROM positions
		WHERE portfolio_id = ? AND deleted_at IS NULL
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	defer rows.Close()

	var out []domain.Position
	for rows.Next() {
		var p domain.Position
		var entryDate int64
		var exitDate, expiration sql.NullInt64
		var exitPrice, strike, marketValue sql.NullFloat64
		var underlying sql.NullString
		if err := rows.Scan(&p.ID, &p.PortfolioID, &p.Symbol, &p.Type, &p.Class, &p.Quantity, &p.EntryPrice,
			&entryDate, &exitDate, &exitPrice, &underlying, &strike, &expiration, &marketValue); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		p.EntryDate = time.Unix(entryDate, 0).UTC()
		p.UnderlyingSymbol = underlying.String
		if exitDate.Valid {
			t := time.Unix(exitDate.Int64, 0).UTC()
			p.ExitDate = &t
		}
		if exitPrice.Valid {
			v := exitPrice.Float64
			p.ExitPrice = &v
		}
		if strike.Valid {
			v := strike.Float64
			p.Strike = &v
		}
		if expiration.Valid {
			t := time.Unix(expiration.Int64, 0).UTC()
			p.Expiration = &t
		}
		if marketValue.Valid {
			v := marketValue.Float64
			p.MarketValue = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Greeks returns the most recent position_greeks row on or before date for
// each position ID in positionIDs.
func (r *Repository) Greeks(ctx context.Context, positionIDs []string, date time.Time) (map[string]domain.PositionGreeks, error) {
	out := make(map[string]domain.PositionGreeks)
	for _, id := range positionIDs {
		row := r.core.QueryRowContext(ctx, `
			SELECT position_id, date, delta FROM position_greeks
			WHERE position_id = ? AND date <= ?
			ORDER BY date DESC LIMIT 1
		`, id, date.Unix())
		var g domain.PositionGreeks
		var d int64
		if err := row.Scan(&g.PositionID, &d, &g.Delta); err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("load greeks for %s: %w", id, err)
		}
		g.Date = time.Unix(d, 0).UTC()
		out[id] = g
	}
	return out, nil
}

// UpdatePositionMarketValue persists P1's refreshed mark for one position.
func (r *Repository) UpdatePositionMarketValue(ctx context.Context, positionID string, value float64) error {
	_, err := r.core.ExecContext(ctx, `UPDATE positions SET market_value = ? WHERE id = ?`, value, positionID)
	if err != nil {
		return fmt.Errorf("update position market value: %w", err)
	}
	return nil
}

// UpdatePortfolioEquityBalance persists P2's rolled-forward equity balance.
func (r *Repository) UpdatePortfolioEquityBalance(ctx context.Context, portfolioID string, equityBalance float64) error {
	_, err := r.core.ExecContext(ctx, `UPDATE portfolios SET equity_balance = ? WHERE id = ?`, equityBalance, portfolioID)
	if err != nil {
		return fmt.Errorf("update portfolio equity balance: %w", err)
	}
	return nil
}

// UpsertFactorExposures writes P4's portfolio-level factor betas.
func (r *Repository) UpsertFactorExposures(ctx context.Context, exposures []domain.PortfolioFactorExposure) error {
	for _, e := range exposures {
		_, err := r.analytics.ExecContext(ctx, `
			INSERT INTO portfolio_factor_exposures (portfolio_id, factor_id, date, beta, dollar_exposure)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(portfolio_id, factor_id, date) DO UPDATE SET
				beta = excluded.beta,
				dollar_exposure = excluded.dollar_exposure
		`, e.PortfolioID, string(e.FactorID), dateKey(e.Date), e.Beta, e.DollarExposure)
		if err != nil {
			return fmt.Errorf("upsert factor exposure %s/%s: %w", e.PortfolioID, e.FactorID, err)
		}
	}
	return nil
}

// FactorExposures reads back P4's output for P7's stress-test input.
func (r *Repository) FactorExposures(ctx context.Context, portfolioID string, date time.Time) (map[domain.FactorID]domain.PortfolioFactorExposure, error) {
	rows, err := r.analytics.QueryContext(ctx, `
		SELECT factor_id, date, beta, dollar_exposure FROM portfolio_factor_exposures
		WHERE portfolio_id = ? AND date = ?
	`, portfolioID, dateKey(date))
	if err != nil {
		return nil, fmt.Errorf("load factor exposures: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.FactorID]domain.PortfolioFactorExposure)
	for rows.Next() {
		var e domain.PortfolioFactorExposure
		var factorID string
		var d int64
		if err := rows.Scan(&factorID, &d, &e.Beta, &e.DollarExposure); err != nil {
			return nil, fmt.Errorf("scan factor exposure: %w", err)
		}
		e.PortfolioID = portfolioID
		e.FactorID = domain.FactorID(factorID)
		e.Date = time.Unix(d, 0).UTC()
		out[e.FactorID] = e
	}
	return out, rows.Err()
}

// UpsertStressResults writes P7's output, registering each scenario
// definition the first time it's seen (stress_test_results FK-references
// stress_scenarios).
func (r *Repository) UpsertStressResults(ctx context.Context, scenarios []domain.StressScenario, results []domain.StressTestResult) error {
	for _, sc := range scenarios {
		shockedJSON, err := json.Marshal(sc.ShockedFactors)
		if err != nil {
			return fmt.Errorf("marshal shocked factors for %s: %w", sc.Name, err)
		}
		_, err = r.analytics.ExecContext(ctx, `
			INSERT INTO stress_scenarios (name, category, severity, active, optional, historical, shocked_factors_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				category = excluded.category,
				severity = excluded.severity,
				active = excluded.active,
				optional = excluded.optional,
				historical = excluded.historical,
				shocked_factors_json = excluded.shocked_factors_json
		`, sc.Name, sc.Category, string(sc.Severity), boolToInt(sc.Active), boolToInt(sc.Optional), boolToInt(sc.Historical), string(shockedJSON))
		if err != nil {
			return fmt.Errorf("upsert stress scenario %s: %w", sc.Name, err)
		}
	}

	for _, res := range results {
		_, err := r.analytics.ExecContext(ctx, `
			INSERT INTO stress_test_results (portfolio_id, scenario_name, date, direct_pnl, correlated_pnl, factor_impact_json, used_fallback)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(portfolio_id, scenario_name, date) DO UPDATE SET
				direct_pnl = excluded.direct_pnl,
				correlated_pnl = excluded.correlated_pnl,
				factor_impact_json = excluded.factor_impact_json,
				used_fallback = excluded.used_fallback
		`, res.PortfolioID, res.ScenarioName, dateKey(res.Date), res.DirectPnL, res.CorrelatedPnL, res.FactorImpactJSON, boolToInt(res.UsedFallback))
		if err != nil {
			return fmt.Errorf("upsert stress result %s/%s: %w", res.PortfolioID, res.ScenarioName, err)
		}
	}
	return nil
}

// UpsertCorrelation writes P8's output: the calculation row, then its
// pairwise and cluster children.
func (r *Repository) UpsertCorrelation(ctx context.Context, calc domain.CorrelationCalculation, pairwise []domain.PairwiseCorrelation, clusters []domain.CorrelationCluster) error {
	_, err := r.analytics.ExecContext(ctx, `
		INSERT INTO correlation_calculations (id, portfolio_id, date, window_days, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET window_days = excluded.window_days
	`, calc.ID, calc.PortfolioID, dateKey(calc.Date), calc.WindowDays, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("upsert correlation calculation: %w", err)
	}

	for _, p := range pairwise {
		_, err := r.analytics.ExecContext(ctx, `
			INSERT INTO pairwise_correlations (calculation_id, symbol1, symbol2, rho, n)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(calculation_id, symbol1, symbol2) DO UPDATE SET rho = excluded.rho, n = excluded.n
		`, p.CalculationID, p.Symbol1, p.Symbol2, p.Rho, p.N)
		if err != nil {
			return fmt.Errorf("upsert pairwise correlation: %w", err)
		}
	}

	for _, c := range clusters {
		symbolsJSON, err := json.Marshal(c.Symbols)
		if err != nil {
			return fmt.Errorf("marshal cluster symbols: %w", err)
		}
		_, err = r.analytics.ExecContext(ctx, `
			INSERT INTO correlation_clusters (calculation_id, cluster_index, symbols_json)
			VALUES (?, ?, ?)
			ON CONFLICT(calculation_id, cluster_index) DO UPDATE SET symbols_json = excluded.symbols_json
		`, c.CalculationID, c.ClusterIndex, string(symbolsJSON))
		if err != nil {
			return fmt.Errorf("upsert correlation cluster: %w", err)
		}
	}
	return nil
}

// LatestCompletedSnapshotDate returns the most recent snapshot_date with
// is_complete=1 for portfolioID, or ok=false if none exists yet.
func (r *Repository) LatestCompletedSnapshotDate(ctx context.Context, portfolioID string) (time.Time, bool, error) {
	row := r.analytics.QueryRowContext(ctx, `
		SELECT snapshot_date FROM portfolio_snapshots
		WHERE portfolio_id = ? AND is_complete = 1
		ORDER BY snapshot_date DESC LIMIT 1
	`, portfolioID)
	var d int64
	if err := row.Scan(&d); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("load latest completed snapshot: %w", err)
	}
	return time.Unix(d, 0).UTC(), true, nil
}

// PreviousSnapshot returns the last snapshot (complete or not) strictly
// before date, for reading forward the prior equity/cumulative-P&L state.
func (r *Repository) PreviousSnapshot(ctx context.Context, portfolioID string, date time.Time) (*domain.PortfolioSnapshot, error) {
	row := r.analytics.QueryRowContext(ctx, `
		SELECT portfolio_id, snapshot_date, total_value, cash, long_value, short_value,
			gross_exposure, net_exposure, daily_pnl, cumulative_pnl, daily_realized_pnl,
			cumulative_realized_pnl, daily_capital_flow, portfolio_delta, position_count,
			equity_balance, realized_vol_21d, realized_vol_63d, expected_vol_har,
			volatility_percentile, volatility_trend, market_beta, hhi, effective_positions,
			top3_concentration, top10_concentration, sector_exposure_json,
			is_complete, created_at, completed_at
		FROM portfolio_snapshots
		WHERE portfolio_id = ? AND snapshot_date < ?
		ORDER BY snapshot_date DESC LIMIT 1
	`, portfolioID, dateKey(date))
	return scanSnapshot(row)
}

// DeletePortfolioDateRange performs the force-rerun cascading delete,
// child tables first: cluster rows -> pairwise rows -> calculation rows ->
// stress test result rows -> snapshot rows -> factor exposure rows, all scoped to
// [startDate, endDate] for one portfolio.
func (r *Repository) DeletePortfolioDateRange(ctx context.Context, portfolioID string, startDate, endDate time.Time) error {
	start, end := dateKey(startDate), dateKey(endDate)

	stmts := []struct {
		label string
		query string
	}{
		{"correlation_clusters", `
			DELETE FROM correlation_clusters WHERE calculation_id IN (
				SELECT id FROM correlation_calculations WHERE portfolio_id = ? AND date BETWEEN ? AND ?
			)`},
		{"pairwise_correlations", `
			DELETE FROM pairwise_correlations WHERE calculation_id IN (
				SELECT id FROM correlation_calculations WHERE portfolio_id = ? AND date BETWEEN ? AND ?
			)`},
		{"correlation_calculations", `DELETE FROM correlation_calculations WHERE portfolio_id = ? AND date BETWEEN ? AND ?`},
		{"stress_test_results", `DELETE FROM stress_test_results WHERE portfolio_id = ? AND date BETWEEN ? AND ?`},
		{"portfolio_snapshots", `DELETE FROM portfolio_snapshots WHERE portfolio_id = ? AND snapshot_date BETWEEN ? AND ?`},
		{"portfolio_factor_exposures", `DELETE FROM portfolio_factor_exposures WHERE portfolio_id = ? AND date BETWEEN ? AND ?`},
	}

	for _, s := range stmts {
		if _, err := r.analytics.ExecContext(ctx, s.query, portfolioID, start, end); err != nil {
			return fmt.Errorf("delete %s for force-rerun: %w", s.label, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func dateKey(d time.Time) int64 {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

func scanSnapshot(row *sql.Row) (*domain.PortfolioSnapshot, error) {
	var (
		s                       domain.PortfolioSnapshot
		snapshotDate, createdAt int64
		completedAt             sql.NullInt64
		isComplete              int
		volatilityTrend         sql.NullString
		vol21, vol63, har, pct  sql.NullFloat64
		beta, hhi, eff, t3, t10 sql.NullFloat64
	)
	err := row.Scan(
		&s.PortfolioID, &snapshotDate, &s.TotalValue, &s.Cash, &s.LongValue, &s.ShortValue,
		&s.GrossExposure, &s.NetExposure, &s.DailyPnL, &s.CumulativePnL, &s.DailyRealizedPnL,
		&s.CumulativeRealizedPnL, &s.DailyCapitalFlow, &s.PortfolioDelta, &s.PositionCount,
		&s.EquityBalance, &vol21, &vol63, &har,
		&pct, &volatilityTrend, &beta, &hhi, &eff,
		&t3, &t10, &s.SectorExposureJSON,
		&isComplete, &createdAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	s.SnapshotDate = time.Unix(snapshotDate, 0).UTC()
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	s.IsComplete = isComplete != 0
	s.RealizedVol21d = vol21.Float64
	s.RealizedVol63d = vol63.Float64
	s.ExpectedVolHAR = har.Float64
	s.VolatilityPercentile = pct.Float64
	s.VolatilityTrend = volatilityTrend.String
	s.MarketBeta = beta.Float64
	s.HHI = hhi.Float64
	s.EffectivePositions = eff.Float64
	s.Top3Concentration = t3.Float64
	s.Top10Concentration = t10.Float64
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		s.CompletedAt = &t
	}
	return &s, nil
}
