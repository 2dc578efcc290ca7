package snapshot

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupSnapshotTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS portfolio_snapshots (
			portfolio_id             TEXT NOT NULL,
			snapshot_date            INTEGER NOT NULL,
			total_value              REAL NOT NULL DEFAULT 0,
			cash                     REAL NOT NULL DEFAULT 0,
			long_value               REAL NOT NULL DEFAULT 0,
			short_value              REAL NOT NULL DEFAULT 0,
			gross_exposure           REAL NOT NULL DEFAULT 0,
			net_exposure             REAL NOT NULL DEFAULT 0,
			daily_pnl                REAL NOT NULL DEFAULT 0,
			cumulative_pnl           REAL NOT NULL DEFAULT 0,
			daily_realized_pnl       REAL NOT NULL DEFAULT 0,
			cumulative_realized_pnl  REAL NOT NULL DEFAULT 0,
			daily_capital_flow       REAL NOT NULL DEFAULT 0,
			portfolio_delta          REAL NOT NULL DEFAULT 0,
			position_count           INTEGER NOT NULL DEFAULT 0,
			equity_balance           REAL NOT NULL DEFAULT 0,
			realized_vol_21d         REAL,
			realized_vol_63d         REAL,
			expected_vol_har         REAL,
			volatility_percentile    REAL,
			volatility_trend         TEXT,
			market_beta              REAL,
			hhi                      REAL,
			effective_positions      REAL,
			top3_concentration       REAL,
			top10_concentration      REAL,
			sector_exposure_json     TEXT NOT NULL DEFAULT '{}',
			is_complete              INTEGER NOT NULL DEFAULT 0,
			created_at               INTEGER NOT NULL,
			completed_at             INTEGER,
			PRIMARY KEY (portfolio_id, snapshot_date)
		)
	`)
	require.NoError(t, err)
	return db
}

func TestRepository_WritePlaceholder_CreatesIncompleteRow(t *testing.T) {
	db := setupSnapshotTestDB(t)
	defer db.Close()
	repo := NewRepository(db)
	date := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	staged, err := repo.WritePlaceholder(context.Background(), "port1", date, 100000, false)
	require.NoError(t, err)
	assert.True(t, staged)

	snap, err := repo.GetByPortfolioDate(context.Background(), "port1", date)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.False(t, snap.IsComplete)
	assert.Equal(t, 100000.0, snap.EquityBalance)
}

func TestRepository_WritePlaceholder_SkipsWhenAlreadyCompleteAndNoForce(t *testing.T) {
	db := setupSnapshotTestDB(t)
	defer db.Close()
	repo := NewRepository(db)
	date := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	_, err := repo.WritePlaceholder(context.Background(), "port1", date, 100000, false)
	require.NoError(t, err)
	require.NoError(t, repo.Complete(context.Background(), "port1", date, Fields{EquityBalance: 101000}))

	staged, err := repo.WritePlaceholder(context.Background(), "port1", date, 999999, false)
	require.NoError(t, err)
	assert.False(t, staged)

	snap, err := repo.GetByPortfolioDate(context.Background(), "port1", date)
	require.NoError(t, err)
	assert.True(t, snap.IsComplete)
	assert.Equal(t, 101000.0, snap.EquityBalance)
}

func TestRepository_WritePlaceholder_ForceRerunResetsCompleteRow(t *testing.T) {
	db := setupSnapshotTestDB(t)
	defer db.Close()
	repo := NewRepository(db)
	date := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	_, err := repo.WritePlaceholder(context.Background(), "port1", date, 100000, false)
	require.NoError(t, err)
	require.NoError(t, repo.Complete(context.Background(), "port1", date, Fields{EquityBalance: 101000}))

	staged, err := repo.WritePlaceholder(context.Background(), "port1", date, 100000, true)
	require.NoError(t, err)
	assert.True(t, staged)

	snap, err := repo.GetByPortfolioDate(context.Background(), "port1", date)
	require.NoError(t, err)
	assert.False(t, snap.IsComplete)
}

func TestRepository_PriorDayAbandoned_TrueWhenPriorRowIncomplete(t *testing.T) {
	db := setupSnapshotTestDB(t)
	defer db.Close()
	repo := NewRepository(db)
	today := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	_, err := repo.WritePlaceholder(context.Background(), "port1", yesterday, 100000, false)
	require.NoError(t, err)

	abandoned, err := repo.PriorDayAbandoned(context.Background(), "port1", today)
	require.NoError(t, err)
	assert.True(t, abandoned)
}

func TestRepository_PriorDayAbandoned_FalseWhenPriorRowComplete(t *testing.T) {
	db := setupSnapshotTestDB(t)
	defer db.Close()
	repo := NewRepository(db)
	today := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	_, err := repo.WritePlaceholder(context.Background(), "port1", yesterday, 100000, false)
	require.NoError(t, err)
	require.NoError(t, repo.Complete(context.Background(), "port1", yesterday, Fields{EquityBalance: 101000}))

	abandoned, err := repo.PriorDayAbandoned(context.Background(), "port1", today)
	require.NoError(t, err)
	assert.False(t, abandoned)
}

func TestRepository_PriorDayAbandoned_FalseWhenNoPriorRow(t *testing.T) {
	db := setupSnapshotTestDB(t)
	defer db.Close()
	repo := NewRepository(db)

	abandoned, err := repo.PriorDayAbandoned(context.Background(), "port1", time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, abandoned)
}

func TestRepository_CleanupAbandonedPlaceholders_DeletesOldIncompleteRows(t *testing.T) {
	db := setupSnapshotTestDB(t)
	defer db.Close()
	repo := NewRepository(db)
	date := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	_, err := repo.WritePlaceholder(context.Background(), "port1", date, 100000, false)
	require.NoError(t, err)

	oldCreated := time.Now().UTC().Add(-2 * time.Hour).Unix()
	_, err = db.Exec(`UPDATE portfolio_snapshots SET created_at = ? WHERE portfolio_id = ?`, oldCreated, "port1")
	require.NoError(t, err)

	n, err := repo.CleanupAbandonedPlaceholders(context.Background(), DefaultPlaceholderGrace)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	snap, err := repo.GetByPortfolioDate(context.Background(), "port1", date)
	require.NoError(t, err)
	assert.Nil(t, snap)
}
