package queue

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS job_history (
			job_type TEXT PRIMARY KEY,
			last_run_at TEXT NOT NULL,
			last_status TEXT NOT NULL DEFAULT 'success',
			detail_blob BLOB
		)
	`)
	require.NoError(t, err)

	return db
}

func TestHistory_ShouldRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	history := NewHistory(db)

	// First run - should run
	shouldRun := history.ShouldRun(JobTypeDailyBatch, 15*time.Minute)
	assert.True(t, shouldRun)

	// Record execution
	err := history.RecordExecution(JobTypeDailyBatch, time.Now(), "success", nil)
	require.NoError(t, err)

	// Just ran - should not run
	shouldRun = history.ShouldRun(JobTypeDailyBatch, 15*time.Minute)
	assert.False(t, shouldRun)

	// Wait for interval to pass (simulate by recording old time)
	oldTime := time.Now().Add(-16 * time.Minute)
	err = history.RecordExecution(JobTypeDailyBatch, oldTime, "success", nil)
	require.NoError(t, err)

	// Interval passed - should run
	shouldRun = history.ShouldRun(JobTypeDailyBatch, 15*time.Minute)
	assert.True(t, shouldRun)
}

func TestHistory_RecordExecution(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	history := NewHistory(db)

	now := time.Now()
	err := history.RecordExecution(JobTypeDailyBatch, now, "success", nil)
	require.NoError(t, err)

	// Verify it was recorded
	var lastStatus string
	var lastRunAtUnix int64
	err = db.QueryRow("SELECT last_run_at, last_status FROM job_history WHERE job_type = ?", JobTypeDailyBatch).
		Scan(&lastRunAtUnix, &lastStatus)
	require.NoError(t, err)

	assert.Equal(t, "success", lastStatus)

	// Convert Unix timestamp to time.Time and verify it's close
	parsed := time.Unix(lastRunAtUnix, 0).UTC()
	assert.WithinDuration(t, now, parsed, 1*time.Second)
}

func TestHistory_RecordFailure(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	history := NewHistory(db)

	err := history.RecordExecution(JobTypeDailyBatch, time.Now(), "failed", nil)
	require.NoError(t, err)

	var lastStatus string
	err = db.QueryRow("SELECT last_status FROM job_history WHERE job_type = ?", JobTypeDailyBatch).
		Scan(&lastStatus)
	require.NoError(t, err)

	assert.Equal(t, "failed", lastStatus)
}

func TestHistory_DifferentJobTypes(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	history := NewHistory(db)

	// Record different job types
	history.RecordExecution(JobTypeDailyBatch, time.Now(), "success", nil)
	history.RecordExecution(JobTypeCorrelations, time.Now().Add(-1*time.Hour), "success", nil)

	// Each should track independently
	assert.False(t, history.ShouldRun(JobTypeDailyBatch, 15*time.Minute))
	assert.True(t, history.ShouldRun(JobTypeCorrelations, 30*time.Minute))
}

func TestHistory_RecordExecution_RoundTripsPayloadThroughLastDetail(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	history := NewHistory(db)

	payload := map[string]interface{}{"portfolio_id": "p1", "forced": true}
	err := history.RecordExecution(JobTypeDailyBatch, time.Now(), "success", payload)
	require.NoError(t, err)

	detail, ok, err := history.LastDetail(JobTypeDailyBatch)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "p1", detail["portfolio_id"])
	assert.Equal(t, true, detail["forced"])
}

func TestHistory_LastDetail_ReturnsNotOkWhenPayloadEmpty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	history := NewHistory(db)

	err := history.RecordExecution(JobTypeDailyBatch, time.Now(), "success", nil)
	require.NoError(t, err)

	_, ok, err := history.LastDetail(JobTypeDailyBatch)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHistory_LastDetail_ReturnsNotOkWhenJobNeverRan(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	history := NewHistory(db)

	_, ok, err := history.LastDetail(JobTypeDailyBatch)
	require.NoError(t, err)
	assert.False(t, ok)
}
