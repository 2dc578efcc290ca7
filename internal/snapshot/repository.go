package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/sentinel/internal/domain"
)

// Repository is the raw-SQL persistence layer over portfolio_snapshots,
// following the upsert idiom in internal/queue/history.go.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps the analytics database connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func dateKey(d time.Time) int64 {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// WritePlaceholder inserts the is_complete=0 row for a portfolio/date if one
// doesn't already exist. If a row already exists and is complete, forceRerun
// must be true for it to be reset back to a placeholder; otherwise
// WritePlaceholder is a no-op and returns (false, nil).
func (r *Repository) WritePlaceholder(ctx context.Context, portfolioID string, date time.Time, equityBalance float64, forceRerun bool) (staged bool, err error) {
	existing, err := r.GetByPortfolioDate(ctx, portfolioID, date)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.IsComplete && !forceRerun {
		return false, nil
	}

	now := time.Now().UTC().Unix()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO portfolio_snapshots (portfolio_id, snapshot_date, equity_balance, is_complete, created_at, completed_at)
		VALUES (?, ?, ?, 0, ?, NULL)
		ON CONFLICT(portfolio_id, snapshot_date) DO UPDATE SET
			equity_balance = excluded.equity_balance,
			is_complete    = 0,
			created_at     = excluded.created_at,
			completed_at   = NULL
	`, portfolioID, dateKey(date), equityBalance, now)
	if err != nil {
		return false, fmt.Errorf("write snapshot placeholder: %w", err)
	}
	return true, nil
}

// Fields holds every value computed by the batch's other per-portfolio
// phases, filled in at completion time.
type Fields struct {
	TotalValue            float64
	Cash                  float64
	LongValue             float64
	ShortValue            float64
	GrossExposure         float64
	NetExposure           float64
	DailyPnL              float64
	CumulativePnL         float64
	DailyRealizedPnL      float64
	CumulativeRealizedPnL float64
	DailyCapitalFlow      float64
	PortfolioDelta        float64
	PositionCount         int
	EquityBalance         float64
	RealizedVol21d        float64
	RealizedVol63d        float64
	ExpectedVolHAR        float64
	VolatilityPercentile  float64
	VolatilityTrend       string
	MarketBeta            float64
	HHI                   float64
	EffectivePositions    float64
	Top3Concentration     float64
	Top10Concentration    float64
	SectorExposureJSON    string
}

// Complete fills in every computed field and marks the row is_complete=1.
func (r *Repository) Complete(ctx context.Context, portfolioID string, date time.Time, f Fields) error {
	now := time.Now().UTC().Unix()
	sectorJSON := f.SectorExposureJSON
	if sectorJSON == "" {
		sectorJSON = "{}"
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE portfolio_snapshots SET
			total_value             = ?,
			cash                    = ?,
			long_value              = ?,
			short_value             = ?,
			gross_exposure          = ?,
			net_exposure            = ?,
			daily_pnl               = ?,
			cumulative_pnl          = ?,
			daily_realized_pnl      = ?,
			cumulative_realized_pnl = ?,
			daily_capital_flow      = ?,
			portfolio_delta         = ?,
			position_count          = ?,
			equity_balance          = ?,
			realized_vol_21d        = ?,
			realized_vol_63d        = ?,
			expected_vol_har        = ?,
			volatility_percentile   = ?,
			volatility_trend        = ?,
			market_beta             = ?,
			hhi                     = ?,
			effective_positions     = ?,
			top3_concentration      = ?,
			top10_concentration     = ?,
			sector_exposure_json    = ?,
			is_complete             = 1,
			completed_at            = ?
		WHERE portfolio_id = ? AND snapshot_date = ?
	`,
		f.TotalValue, f.Cash, f.LongValue, f.ShortValue, f.GrossExposure, f.NetExposure,
		f.DailyPnL, f.CumulativePnL, f.DailyRealizedPnL, f.CumulativeRealizedPnL,
		f.DailyCapitalFlow, f.PortfolioDelta, f.PositionCount, f.EquityBalance,
		f.RealizedVol21d, f.RealizedVol63d, f.ExpectedVolHAR, f.VolatilityPercentile,
		f.VolatilityTrend, f.MarketBeta, f.HHI, f.EffectivePositions,
		f.Top3Concentration, f.Top10Concentration, sectorJSON,
		now, portfolioID, dateKey(date),
	)
	if err != nil {
		return fmt.Errorf("complete snapshot: %w", err)
	}
	return nil
}

// GetByPortfolioDate returns the snapshot row for a portfolio/date, or nil
// if no row exists yet.
func (r *Repository) GetByPortfolioDate(ctx context.Context, portfolioID string, date time.Time) (*domain.PortfolioSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT portfolio_id, snapshot_date, total_value, cash, long_value, short_value,
			gross_exposure, net_exposure, daily_pnl, cumulative_pnl, daily_realized_pnl,
			cumulative_realized_pnl, daily_capital_flow, portfolio_delta, position_count,
			equity_balance, realized_vol_21d, realized_vol_63d, expected_vol_har,
			volatility_percentile, volatility_trend, market_beta, hhi, effective_positions,
			top3_concentration, top10_concentration, sector_exposure_json,
			is_complete, created_at, completed_at
		FROM portfolio_snapshots
		WHERE portfolio_id = ? AND snapshot_date = ?
	`, portfolioID, dateKey(date))

	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (*domain.PortfolioSnapshot, error) {
	var (
		s                        domain.PortfolioSnapshot
		snapshotDate, createdAt  int64
		completedAt              sql.NullInt64
		isComplete               int
		volatilityTrend          sql.NullString

		realizedVol21d, realizedVol63d, expectedVolHAR, volPercentile             sql.NullFloat64
		marketBeta, hhi, effectivePositions, top3Concentration, top10Concentration sql.NullFloat64
	)
	err := row.Scan(
		&s.PortfolioID, &snapshotDate, &s.TotalValue, &s.Cash, &s.LongValue, &s.ShortValue,
		&s.GrossExposure, &s.NetExposure, &s.DailyPnL, &s.CumulativePnL, &s.DailyRealizedPnL,
		&s.CumulativeRealizedPnL, &s.DailyCapitalFlow, &s.PortfolioDelta, &s.PositionCount,
		&s.EquityBalance, &realizedVol21d, &realizedVol63d, &expectedVolHAR,
		&volPercentile, &volatilityTrend, &marketBeta, &hhi, &effectivePositions,
		&top3Concentration, &top10Concentration, &s.SectorExposureJSON,
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
	s.RealizedVol21d = realizedVol21d.Float64
	s.RealizedVol63d = realizedVol63d.Float64
	s.ExpectedVolHAR = expectedVolHAR.Float64
	s.VolatilityPercentile = volPercentile.Float64
	s.VolatilityTrend = volatilityTrend.String
	s.MarketBeta = marketBeta.Float64
	s.HHI = hhi.Float64
	s.EffectivePositions = effectivePositions.Float64
	s.Top3Concentration = top3Concentration.Float64
	s.Top10Concentration = top10Concentration.Float64
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		s.CompletedAt = &t
	}
	return &s, nil
}

// PriorDayAbandoned reports whether the portfolio's snapshot row for the day
// before date exists but was never completed, per EquityRollforward's
// placeholder-correction case. A missing row (no snapshot at all, e.g. the
// portfolio's first run) is not treated as abandoned.
func (r *Repository) PriorDayAbandoned(ctx context.Context, portfolioID string, date time.Time) (bool, error) {
	priorDay := date.AddDate(0, 0, -1)
	snap, err := r.GetByPortfolioDate(ctx, portfolioID, priorDay)
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, nil
	}
	return !snap.IsComplete, nil
}

// CleanupAbandonedPlaceholders deletes placeholder rows older than grace
// that never reached completion, so a crashed run doesn't block the next
// day's WritePlaceholder with a stale row.
func (r *Repository) CleanupAbandonedPlaceholders(ctx context.Context, grace time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-grace).Unix()
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM portfolio_snapshots WHERE is_complete = 0 AND created_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup abandoned snapshot placeholders: %w", err)
	}
	return res.RowsAffected()
}
